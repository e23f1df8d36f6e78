package tokens

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/activityrelay/internal/strava"
)

type stubStore struct {
	cred *Credential
	puts []Credential
}

func (s *stubStore) GetCredential(_ context.Context, _ int64) (*Credential, error) {
	return s.cred, nil
}

func (s *stubStore) PutCredential(_ context.Context, cred Credential) error {
	s.puts = append(s.puts, cred)
	return nil
}

type stubRefresher struct {
	grant *strava.TokenGrant
	err   error
	calls []string
}

func (s *stubRefresher) Refresh(_ context.Context, refreshToken string) (*strava.TokenGrant, error) {
	s.calls = append(s.calls, refreshToken)
	if s.err != nil {
		return nil, s.err
	}
	return s.grant, nil
}

var testNow = time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)

func newTestResolver(t *testing.T, store *stubStore, refresher *stubRefresher) *Resolver {
	t.Helper()
	return NewResolver(store, refresher,
		WithClock(func() time.Time { return testNow }),
		WithLogger(log.New(resolverTestWriter{t}, "", 0)),
	)
}

func TestAccessTokenReturnsStoredWhenFresh(t *testing.T) {
	store := &stubStore{cred: &Credential{
		AthleteID:    134815,
		AccessToken:  "fresh-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    testNow.Add(time.Hour).Unix(),
	}}
	refresher := &stubRefresher{}
	resolver := newTestResolver(t, store, refresher)

	token, err := resolver.AccessToken(context.Background(), 134815)
	require.NoError(t, err)
	require.Equal(t, "fresh-token", token)
	require.Empty(t, refresher.calls, "no refresh expected for an unexpired token")
	require.Empty(t, store.puts)
}

func TestAccessTokenRefreshesExpiredCredential(t *testing.T) {
	store := &stubStore{cred: &Credential{
		AthleteID:    134815,
		AccessToken:  "stale-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    testNow.Add(-time.Minute).Unix(),
	}}
	refresher := &stubRefresher{grant: &strava.TokenGrant{
		AccessToken:  "new-token",
		RefreshToken: "refresh-2",
		ExpiresAt:    testNow.Add(6 * time.Hour).Unix(),
	}}
	resolver := newTestResolver(t, store, refresher)

	token, err := resolver.AccessToken(context.Background(), 134815)
	require.NoError(t, err)
	require.Equal(t, "new-token", token)
	require.Equal(t, []string{"refresh-1"}, refresher.calls)

	require.Len(t, store.puts, 1)
	written := store.puts[0]
	require.Equal(t, int64(134815), written.AthleteID)
	require.Equal(t, "new-token", written.AccessToken)
	require.Equal(t, "refresh-2", written.RefreshToken)
	require.Equal(t, testNow.Add(6*time.Hour).Unix(), written.ExpiresAt)
}

func TestAccessTokenExpiryBoundaryTriggersRefresh(t *testing.T) {
	store := &stubStore{cred: &Credential{
		AthleteID:    134815,
		AccessToken:  "stale-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    testNow.Unix(),
	}}
	refresher := &stubRefresher{grant: &strava.TokenGrant{
		AccessToken:  "new-token",
		RefreshToken: "refresh-2",
		ExpiresAt:    testNow.Add(6 * time.Hour).Unix(),
	}}
	resolver := newTestResolver(t, store, refresher)

	token, err := resolver.AccessToken(context.Background(), 134815)
	require.NoError(t, err)
	require.Equal(t, "new-token", token)
	require.Len(t, refresher.calls, 1)
}

func TestAccessTokenUnknownAthlete(t *testing.T) {
	resolver := newTestResolver(t, &stubStore{}, &stubRefresher{})

	_, err := resolver.AccessToken(context.Background(), 999)
	require.ErrorIs(t, err, ErrUnknownAthlete)
}

func TestAccessTokenRefreshFailurePropagates(t *testing.T) {
	store := &stubStore{cred: &Credential{
		AthleteID:    134815,
		AccessToken:  "stale-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    testNow.Add(-time.Minute).Unix(),
	}}
	refresher := &stubRefresher{err: &strava.RefreshError{Status: 401, Body: "invalid grant"}}
	resolver := newTestResolver(t, store, refresher)

	_, err := resolver.AccessToken(context.Background(), 134815)

	var refreshErr *strava.RefreshError
	require.ErrorAs(t, err, &refreshErr)
	require.Equal(t, 401, refreshErr.Status)
	require.Empty(t, store.puts, "a failed refresh must not overwrite the stored credential")
}

type resolverTestWriter struct {
	t *testing.T
}

func (tw resolverTestWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
