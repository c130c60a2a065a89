// Package phone talks to the out-of-band phone verification provider.
package phone

import (
	"context"
	"time"
)

// Credential is what a confirmed verification or a refresh yields.
type Credential struct {
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	Phone        string
}

// Expired reports whether the identity token is past its lifetime at now.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Provider sends codes and exchanges them for identity tokens. Failures are
// *apperr.Error values of the provider kinds.
type Provider interface {
	RequestCode(ctx context.Context, e164 string) (verificationID string, err error)
	Confirm(ctx context.Context, verificationID, code string) (Credential, error)
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
}
