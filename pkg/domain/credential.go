package domain

import (
	"context"
	"time"
)

// RefreshMargin is how close to expiry a token may get before a send
// refreshes it first.
const RefreshMargin = 5 * time.Minute

type OAuthCredential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NeedsRefresh reports whether the access token is expired or will expire
// within the refresh margin.
func (c OAuthCredential) NeedsRefresh(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return c.AccessToken == ""
	}

	return now.After(c.ExpiresAt.Add(-RefreshMargin))
}

// TokenSource yields a usable access token for an OAuth-backed destination,
// refreshing and persisting the credential as a side effect when needed.
// Two concurrent refreshes of the same destination are tolerated as a benign
// last-write-wins race on the stored credential.
type TokenSource interface {
	AccessToken(ctx context.Context, destination *Destination) (string, error)
}
