package auth

import (
	"context"
	"time"

	"github.com/clipnest/clipnest/internal/session"
)

// DefaultLoginDelay mimics the round trip of a real sign-in service
const DefaultLoginDelay = time.Second

// MockAuthenticator accepts any well-formed credentials after a fixed delay
// and issues a signed token. It stands in for a real identity backend.
type MockAuthenticator struct {
	issuer *TokenIssuer
	delay  time.Duration
	now    func() time.Time
}

// NewMockAuthenticator creates an authenticator issuing tokens from issuer
func NewMockAuthenticator(issuer *TokenIssuer, delay time.Duration) *MockAuthenticator {
	return &MockAuthenticator{
		issuer: issuer,
		delay:  delay,
		now:    time.Now,
	}
}

// Authenticate waits for the configured delay, then issues a token.
// Cancelling ctx during the delay aborts with the context error.
func (m *MockAuthenticator) Authenticate(ctx context.Context, creds session.Credentials) (session.Identity, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return session.Identity{}, ctx.Err()
		case <-timer.C:
		}
	}

	token, err := m.issuer.Issue(creds.Email, m.now())
	if err != nil {
		return session.Identity{}, err
	}
	return session.Identity{Token: token}, nil
}
