package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type CleanupSweeperTestSuite struct {
	suite.Suite
	errUnknown   error
	storeMock    *MockLinkStore
	notifierMock *MockNotifier
	sweeper      *CleanupSweeper
}

func (suite *CleanupSweeperTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
}

func (suite *CleanupSweeperTestSuite) SetupSubTest() {
	suite.storeMock = new(MockLinkStore)
	suite.notifierMock = new(MockNotifier)
	suite.sweeper = NewCleanupSweeper(suite.storeMock, suite.notifierMock, newTestLogger(), time.Minute)
}

func (suite *CleanupSweeperTestSuite) TearDownSubTest() {
	suite.storeMock.AssertExpectations(suite.T())
	suite.notifierMock.AssertExpectations(suite.T())
}

func (suite *CleanupSweeperTestSuite) TestTick() {
	suite.Run("no expired links", func() {
		suite.storeMock.
			On("FindExpiredBefore", context.Background(), mock.AnythingOfType("time.Time")).
			Once().
			Return([]*models.Link{}, nil)

		err := suite.sweeper.Tick(context.Background())

		suite.NoError(err)
		suite.storeMock.AssertNotCalled(suite.T(), "Deactivate")
		suite.storeMock.AssertNotCalled(suite.T(), "DeleteBatch")
	})

	suite.Run("query error", func() {
		suite.storeMock.
			On("FindExpiredBefore", context.Background(), mock.AnythingOfType("time.Time")).
			Once().
			Return(nil, suite.errUnknown)

		err := suite.sweeper.Tick(context.Background())

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("deactivates notifies and purges the whole batch once", func() {
		owner := uuid.New()
		batch := []*models.Link{
			{ID: 1, UserID: owner, Code: "aaa111", Active: true},
			{ID: 2, UserID: owner, Code: "bbb222", Active: true},
			{ID: 3, UserID: owner, Code: "ccc333", Active: false},
		}

		suite.storeMock.
			On("FindExpiredBefore", context.Background(), mock.AnythingOfType("time.Time")).
			Once().
			Return(batch, nil)
		suite.storeMock.
			On("Deactivate", context.Background(), int64(1)).
			Once().
			Return(true, nil)
		suite.storeMock.
			On("Deactivate", context.Background(), int64(2)).
			Once().
			Return(true, nil)
		suite.notifierMock.
			On("Send", context.Background(), owner, "link expired and deactivated: aaa111").
			Once().
			Return(nil)
		suite.notifierMock.
			On("Send", context.Background(), owner, "link expired and deactivated: bbb222").
			Once().
			Return(nil)
		suite.storeMock.
			On("DeleteBatch", context.Background(), batch).
			Once().
			Return(nil)

		err := suite.sweeper.Tick(context.Background())

		suite.NoError(err)
		suite.storeMock.AssertNumberOfCalls(suite.T(), "Deactivate", 2)
		suite.notifierMock.AssertNumberOfCalls(suite.T(), "Send", 2)
		suite.storeMock.AssertNumberOfCalls(suite.T(), "DeleteBatch", 1)
	})

	suite.Run("skips notification when a racing caller already flipped", func() {
		owner := uuid.New()
		batch := []*models.Link{
			{ID: 1, UserID: owner, Code: "aaa111", Active: true},
		}

		suite.storeMock.
			On("FindExpiredBefore", context.Background(), mock.AnythingOfType("time.Time")).
			Once().
			Return(batch, nil)
		suite.storeMock.
			On("Deactivate", context.Background(), int64(1)).
			Once().
			Return(false, nil)
		suite.storeMock.
			On("DeleteBatch", context.Background(), batch).
			Once().
			Return(nil)

		err := suite.sweeper.Tick(context.Background())

		suite.NoError(err)
		suite.notifierMock.AssertNotCalled(suite.T(), "Send")
	})

	suite.Run("deactivation error aborts the tick before the purge", func() {
		owner := uuid.New()
		batch := []*models.Link{
			{ID: 1, UserID: owner, Code: "aaa111", Active: true},
		}

		suite.storeMock.
			On("FindExpiredBefore", context.Background(), mock.AnythingOfType("time.Time")).
			Once().
			Return(batch, nil)
		suite.storeMock.
			On("Deactivate", context.Background(), int64(1)).
			Once().
			Return(false, suite.errUnknown)

		err := suite.sweeper.Tick(context.Background())

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.storeMock.AssertNotCalled(suite.T(), "DeleteBatch")
	})

	suite.Run("notification failure does not abort the tick", func() {
		owner := uuid.New()
		batch := []*models.Link{
			{ID: 1, UserID: owner, Code: "aaa111", Active: true},
		}

		suite.storeMock.
			On("FindExpiredBefore", context.Background(), mock.AnythingOfType("time.Time")).
			Once().
			Return(batch, nil)
		suite.storeMock.
			On("Deactivate", context.Background(), int64(1)).
			Once().
			Return(true, nil)
		suite.notifierMock.
			On("Send", context.Background(), owner, "link expired and deactivated: aaa111").
			Once().
			Return(suite.errUnknown)
		suite.storeMock.
			On("DeleteBatch", context.Background(), batch).
			Once().
			Return(nil)

		err := suite.sweeper.Tick(context.Background())

		suite.NoError(err)
	})
}

func TestCleanupSweeper(t *testing.T) {
	suite.Run(t, new(CleanupSweeperTestSuite))
}

func TestCleanupSweeper_Run(t *testing.T) {
	storeMock := new(MockLinkStore)
	notifierMock := new(MockNotifier)
	storeMock.
		On("FindExpiredBefore", mock.Anything, mock.AnythingOfType("time.Time")).
		Maybe().
		Return([]*models.Link{}, nil)

	sweeper := NewCleanupSweeper(storeMock, notifierMock, newTestLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- sweeper.Run(ctx)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
