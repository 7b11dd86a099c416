package database

import "errors"

var (
	// ErrCodeExists is returned when an attempt is made to save a link
	// with a code the owning user already holds.
	ErrCodeExists = errors.New("code exists")
	// ErrLinkNotFound is returned when a lookup doesn't resolve to a link.
	ErrLinkNotFound = errors.New("link not found")
	// ErrClicksExhausted is returned by the click increment when the link
	// is no longer active or its quota is already used up.
	ErrClicksExhausted = errors.New("clicks exhausted")
)
