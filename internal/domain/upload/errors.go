package upload

import "errors"

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrBadRequest    = errors.New("bad request")
	ErrTooLarge      = errors.New("file too large")
	ErrNotConfigured = errors.New("uploads not configured")
)

func IsErrUnauthorized(err error) bool  { return errors.Is(err, ErrUnauthorized) }
func IsErrBadRequest(err error) bool    { return errors.Is(err, ErrBadRequest) }
func IsErrTooLarge(err error) bool      { return errors.Is(err, ErrTooLarge) }
func IsErrNotConfigured(err error) bool { return errors.Is(err, ErrNotConfigured) }
