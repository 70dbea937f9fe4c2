package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrInvalidAnnouncement = errors.New("invalid announcement")
)
