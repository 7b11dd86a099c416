package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

var (
	// ErrCodeGenerationExhausted is returned when the bounded number of
	// attempts to generate a unique short code is used up.
	ErrCodeGenerationExhausted = errors.New("exhausted attempts to generate a unique short code")
	// ErrLinkNotAvailable is returned for every rejected redirect, whether
	// the code is unknown or the link is inactive, expired or out of quota.
	// The cause is only visible through the owner's notifications.
	ErrLinkNotAvailable = errors.New("link not available")
)

// LinkStore defines the durable storage the lifecycle engine runs against.
type LinkStore interface {
	// FindByCode resolves a code across all users.
	FindByCode(ctx context.Context, code string) (*models.Link, error)

	// ExistsByCodeAndUserID reports whether the user already holds the code.
	ExistsByCodeAndUserID(ctx context.Context, code string, userID uuid.UUID) (bool, error)

	// Save upserts a link by identity and returns the stored record.
	Save(ctx context.Context, link *models.Link) (*models.Link, error)

	// IncrementClicks atomically bumps the click counter of an active link
	// that still has quota and returns the updated record. It returns
	// database.ErrClicksExhausted when the condition no longer holds.
	IncrementClicks(ctx context.Context, id int64) (*models.Link, error)

	// Deactivate flips a link to inactive and reports whether this call
	// performed the flip. Repeated calls are no-ops.
	Deactivate(ctx context.Context, id int64) (bool, error)

	// FindExpiredBefore returns every link whose deadline is strictly
	// before the given time, regardless of its active flag.
	FindExpiredBefore(ctx context.Context, t time.Time) ([]*models.Link, error)

	// DeleteBatch removes the given links. Deleting records that are
	// already gone is a no-op.
	DeleteBatch(ctx context.Context, links []*models.Link) error
}

// Notifier durably records a message for a user.
type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, message string) error
}

// ShortLinkService orchestrates code allocation and the redirect decision
// state machine on top of a LinkStore.
type ShortLinkService struct {
	store      LinkStore
	notifier   Notifier
	logger     *slog.Logger
	codeLength int
	ttl        time.Duration
	generate   CodeGenerator
}

type Option func(*ShortLinkService)

// WithCodeGenerator replaces the default code generator.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *ShortLinkService) {
		s.generate = g
	}
}

func NewShortLinkService(store LinkStore, notifier Notifier, logger *slog.Logger, codeLength int, ttl time.Duration, opts ...Option) *ShortLinkService {
	s := &ShortLinkService{
		store:      store,
		notifier:   notifier,
		logger:     logger,
		codeLength: codeLength,
		ttl:        ttl,
		generate:   GenerateCode,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// maxCodeChecks bounds how many uniqueness checks CreateLink performs
// before giving up. The attempt after the last failed check short-circuits
// straight to ErrCodeGenerationExhausted without touching the store again.
const maxCodeChecks = 5

// CreateLink allocates a code unique within the user's scope, builds a link
// expiring after the configured TTL and persists it.
func (s *ShortLinkService) CreateLink(ctx context.Context, userID uuid.UUID, originalURL string, maxClicks int64) (*models.Link, error) {
	const op = "service.ShortLinkService.CreateLink"

	if userID == uuid.Nil {
		return nil, fmt.Errorf("%s: user id is required", op)
	}

	var code string
	attempts := 0

	for {
		c, err := s.generate(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		attempts++
		if attempts > maxCodeChecks {
			return nil, fmt.Errorf("%s: %w", op, ErrCodeGenerationExhausted)
		}

		exists, err := s.store.ExistsByCodeAndUserID(ctx, c, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check code uniqueness: %w", op, err)
		}

		if !exists {
			code = c
			break
		}
	}

	now := time.Now()
	link := &models.Link{
		UserID:      userID,
		Code:        code,
		OriginalURL: originalURL,
		MaxClicks:   maxClicks,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		Active:      true,
	}

	saved, err := s.store.Save(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
	}

	return saved, nil
}

// HandleRedirect resolves a code to its original URL, accounting for the
// click and deactivating the link when it is expired or out of quota. The
// click that brings the counter exactly to the quota still succeeds; every
// later call is rejected.
func (s *ShortLinkService) HandleRedirect(ctx context.Context, code string) (string, error) {
	const op = "service.ShortLinkService.HandleRedirect"

	link, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrLinkNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrLinkNotAvailable)
		}

		return "", fmt.Errorf("%s: failed to look up code: %w", op, err)
	}

	if !link.Active {
		s.notify(ctx, link.UserID, "attempt on inactive link: "+code)
		return "", fmt.Errorf("%s: %w", op, ErrLinkNotAvailable)
	}

	if link.Expired(time.Now()) {
		if err := s.retire(ctx, link, "link expired: "+code); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return "", fmt.Errorf("%s: %w", op, ErrLinkNotAvailable)
	}

	if link.QuotaReached() {
		if err := s.retire(ctx, link, "click limit reached: "+code); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return "", fmt.Errorf("%s: %w", op, ErrLinkNotAvailable)
	}

	updated, err := s.store.IncrementClicks(ctx, link.ID)
	if err != nil {
		if errors.Is(err, database.ErrClicksExhausted) {
			// Lost the race for the last click slot.
			if err := s.retire(ctx, link, "click limit reached: "+code); err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}

			return "", fmt.Errorf("%s: %w", op, ErrLinkNotAvailable)
		}

		return "", fmt.Errorf("%s: failed to increment clicks: %w", op, err)
	}

	if updated.QuotaReached() {
		// This click consumed the last slot. The link is retired, but
		// the triggering caller still gets the URL.
		if err := s.retire(ctx, updated, "click limit reached: "+code); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	return updated.OriginalURL, nil
}

// retire deactivates the link and notifies the owner when this call
// performed the flip. Racing callers converge on a single notification.
func (s *ShortLinkService) retire(ctx context.Context, link *models.Link, message string) error {
	flipped, err := s.store.Deactivate(ctx, link.ID)
	if err != nil {
		return fmt.Errorf("failed to deactivate link: %w", err)
	}

	if flipped {
		s.notify(ctx, link.UserID, message)
	}

	return nil
}

// notify delivers a message best-effort. A failed notification never fails
// the operation that produced it.
func (s *ShortLinkService) notify(ctx context.Context, userID uuid.UUID, message string) {
	if err := s.notifier.Send(ctx, userID, message); err != nil {
		s.logger.Warn("failed to send notification",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
		)
	}
}
