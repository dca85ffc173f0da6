package services

import (
	"errors"

	"github.com/mediajenny/the-oracle/src/parsers"
)

var (
	ErrParsingFailed      = errors.New("file parsing failed")
	ErrValidationFailed   = errors.New("validation failed")
	ErrMissingColumns     = parsers.ErrMissingColumns
	ErrUnsupportedFormat  = parsers.ErrUnsupportedFormat
	ErrEmptyInput         = errors.New("input is empty")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidSession     = errors.New("session is invalid or expired")
)
