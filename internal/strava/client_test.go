package strava

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActivityFetchesWithBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 4401337,
			"name": "Morning Run",
			"type": "Run",
			"distance": 10000.0,
			"moving_time": 3725,
			"total_elevation_gain": 127.4,
			"average_speed": 2.68,
			"start_date": "2024-03-09T07:30:00Z"
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	activity, err := client.Activity(context.Background(), "access-1", 4401337)
	require.NoError(t, err)

	require.Equal(t, "Bearer access-1", gotAuth)
	require.Equal(t, "/activities/4401337", gotPath)
	require.Equal(t, "Morning Run", activity.Name)
	require.Equal(t, 3725, activity.MovingTime)
	require.InDelta(t, 10000.0, activity.Distance, 1e-9)
}

func TestAthleteErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authorization Error"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	_, err := client.Athlete(context.Background(), "bad-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestRefreshSendsClientCredentials(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-token","refresh_token":"refresh-2","expires_at":1710072000}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		TokenURL:     server.URL,
		ClientID:     "client-1",
		ClientSecret: "secret-1",
	})

	grant, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)

	require.Equal(t, "client-1", gotBody["client_id"])
	require.Equal(t, "secret-1", gotBody["client_secret"])
	require.Equal(t, "refresh-1", gotBody["refresh_token"])
	require.Equal(t, "refresh_token", gotBody["grant_type"])

	require.Equal(t, "new-token", grant.AccessToken)
	require.Equal(t, "refresh-2", grant.RefreshToken)
	require.Equal(t, int64(1710072000), grant.ExpiresAt)
}

func TestRefreshNon200BecomesRefreshError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Bad Request"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{TokenURL: server.URL})

	_, err := client.Refresh(context.Background(), "refresh-1")

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	require.Equal(t, http.StatusBadRequest, refreshErr.Status)
	require.Contains(t, refreshErr.Body, "Bad Request")
}
