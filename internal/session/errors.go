package session

import "errors"

var (
	ErrSessionClosed   = errors.New("session_closed")
	ErrSessionNotFound = errors.New("session_not_found")
	ErrInvalidUsername = errors.New("invalid_username")
)
