package session

import (
	"errors"
	"fmt"
)

var (
	ErrLoginInProgress    = errors.New("login already in progress")
	ErrClosed             = errors.New("session service closed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// LoginError is a rejected login. Reason is safe to show to the user.
type LoginError struct {
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed: %s: %v", e.Reason, e.Err)
	}
	return "login failed: " + e.Reason
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
