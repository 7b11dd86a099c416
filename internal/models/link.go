package models

import (
	"time"

	"github.com/google/uuid"
)

// Link represents a shortened link and the lifecycle state attached to it.
type Link struct {
	// ID is the store-assigned identifier, stable for the record's lifetime.
	ID int64
	// UserID identifies the user owning the link.
	UserID uuid.UUID
	// Code is the short alphanumeric token used for lookup.
	Code string
	// OriginalURL is the redirect target, immutable after creation.
	OriginalURL string
	// MaxClicks is the number of successful redirects allowed before the
	// link is deactivated. Zero means unlimited.
	MaxClicks int64
	// Clicks counts successful redirects, starting at zero.
	Clicks int64
	// CreatedAt is the timestamp indicating when the link was created.
	CreatedAt time.Time
	// ExpiresAt is the absolute deadline after which the link is expired.
	ExpiresAt time.Time
	// Active reports whether the link still serves redirects. It flips to
	// false exactly once and never back.
	Active bool
}

// Expired reports whether the link's deadline has passed at the given time.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}

// QuotaReached reports whether the click quota is used up. Links with an
// unlimited quota never reach it.
func (l *Link) QuotaReached() bool {
	return l.MaxClicks > 0 && l.Clicks >= l.MaxClicks
}

// Notification is an immutable audit record of a message delivered to a user.
type Notification struct {
	ID        int64
	UserID    uuid.UUID
	Message   string
	CreatedAt time.Time
}
