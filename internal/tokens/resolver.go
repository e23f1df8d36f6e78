// Package tokens resolves athlete access tokens, refreshing expired grants.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"example.com/activityrelay/internal/strava"
)

// ErrUnknownAthlete is returned when no credential exists for an athlete id.
var ErrUnknownAthlete = errors.New("no stored credential for athlete")

// Credential is the stored OAuth grant for one athlete.
type Credential struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // Unix seconds
}

// CredentialStore captures persistence operations for credentials. Get returns
// (nil, nil) when no credential exists for the athlete.
type CredentialStore interface {
	GetCredential(ctx context.Context, athleteID int64) (*Credential, error)
	PutCredential(ctx context.Context, cred Credential) error
}

// Refresher exchanges a refresh token for a new grant.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*strava.TokenGrant, error)
}

// Option configures optional behaviour for the Resolver.
type Option func(*Resolver)

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithClock overrides the time source. Tests use this to pin expiry checks.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// Resolver returns a usable access token for an athlete, refreshing and
// rewriting the stored grant when it has expired. Concurrent refreshes for the
// same athlete are not coordinated; last write wins.
type Resolver struct {
	store     CredentialStore
	refresher Refresher
	now       func() time.Time
	logger    *log.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(store CredentialStore, refresher Refresher, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		refresher: refresher,
		now:       time.Now,
		logger:    log.New(log.Writer(), "[tokens] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AccessToken resolves the access token for the athlete. A missing credential
// is an error, not a default. Refresh failures propagate unwrapped so the
// caller sees the upstream status.
func (r *Resolver) AccessToken(ctx context.Context, athleteID int64) (string, error) {
	cred, err := r.store.GetCredential(ctx, athleteID)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", fmt.Errorf("%w: %d", ErrUnknownAthlete, athleteID)
	}

	if r.now().Unix() < cred.ExpiresAt {
		return cred.AccessToken, nil
	}

	r.logger.Printf("token expired for athlete %d, refreshing", athleteID)
	grant, err := r.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}

	cred.AccessToken = grant.AccessToken
	cred.RefreshToken = grant.RefreshToken
	cred.ExpiresAt = grant.ExpiresAt
	if err := r.store.PutCredential(ctx, *cred); err != nil {
		return "", err
	}

	return grant.AccessToken, nil
}
