package strava

import "time"

// Activity is the subset of the Strava activity record the relay renders.
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	Distance           float64   `json:"distance"`             // metres
	MovingTime         int       `json:"moving_time"`          // seconds
	TotalElevationGain float64   `json:"total_elevation_gain"` // metres
	AverageSpeed       float64   `json:"average_speed"`        // metres/second
	StartDate          time.Time `json:"start_date"`
}

// Athlete is the owning account's public profile.
type Athlete struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"firstname"`
	LastName      string `json:"lastname"`
	ProfileMedium string `json:"profile_medium"`
}

// TokenGrant is the triple returned by the OAuth token refresh endpoint.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}
