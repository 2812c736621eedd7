package session

import (
	"context"
	"strings"
	"time"

	"github.com/clipnest/clipnest/internal/models"
)

// Status is the authentication state of the service
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is what subscribers observe after every change
type State struct {
	Status Status
	User   *models.User
}

// Credentials is what a login or signup form submits. Only Email is required.
type Credentials struct {
	ID       int64  `json:"id,omitempty"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// Identity is what an Authenticator hands back. Empty user fields are filled
// from the credentials.
type Identity struct {
	Token string
	User  models.User
}

// Authenticator verifies credentials and issues a session token
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}

// AuthenticatorFunc adapts a function to Authenticator
type AuthenticatorFunc func(ctx context.Context, creds Credentials) (Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	return f(ctx, creds)
}

// buildUser completes the issued user with the credentials and defaults
func buildUser(creds Credentials, issued models.User, now time.Time) models.User {
	user := issued

	if user.ID == 0 {
		user.ID = creds.ID
	}
	if user.ID == 0 {
		user.ID = now.UnixMilli()
	}
	if user.Email == "" {
		user.Email = creds.Email
	}
	if strings.TrimSpace(user.Name) == "" {
		user.Name = strings.TrimSpace(creds.Name)
	}
	if user.Name == "" {
		user.Name = user.Email
	}
	if user.Avatar == "" {
		user.Avatar = creds.Avatar
	}
	if user.Avatar == "" {
		user.Avatar = models.DefaultAvatar
	}

	return user
}
