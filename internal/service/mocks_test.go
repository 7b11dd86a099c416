package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockLinkStore struct {
	mock.Mock
}

func (s *MockLinkStore) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	args := s.Called(ctx, code)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (s *MockLinkStore) ExistsByCodeAndUserID(ctx context.Context, code string, userID uuid.UUID) (bool, error) {
	args := s.Called(ctx, code, userID)
	return args.Bool(0), args.Error(1)
}

func (s *MockLinkStore) Save(ctx context.Context, link *models.Link) (*models.Link, error) {
	args := s.Called(ctx, link)
	saved, _ := args.Get(0).(*models.Link)
	return saved, args.Error(1)
}

func (s *MockLinkStore) IncrementClicks(ctx context.Context, id int64) (*models.Link, error) {
	args := s.Called(ctx, id)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (s *MockLinkStore) Deactivate(ctx context.Context, id int64) (bool, error) {
	args := s.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (s *MockLinkStore) FindExpiredBefore(ctx context.Context, t time.Time) ([]*models.Link, error) {
	args := s.Called(ctx, t)
	links, _ := args.Get(0).([]*models.Link)
	return links, args.Error(1)
}

func (s *MockLinkStore) DeleteBatch(ctx context.Context, links []*models.Link) error {
	args := s.Called(ctx, links)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (n *MockNotifier) Send(ctx context.Context, userID uuid.UUID, message string) error {
	args := n.Called(ctx, userID, message)
	return args.Error(0)
}
