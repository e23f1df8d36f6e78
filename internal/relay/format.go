package relay

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"example.com/activityrelay/internal/strava"
)

// Accent colours per activity type, see
// https://developers.strava.com/docs/reference/#api-models-ActivityType
var activityColors = map[string]int{
	"Run":            0xFC4C02, // orange
	"Ride":           0x66C2FF, // pale blue
	"Hike":           0x008000, // forest green
	"RockClimbing":   0xFF8000, // rock colour?
	"AlpineSki":      0xFEFEFE, // snow
	"BackcountrySki": 0xFEFEFE, // snow
	"NordicSki":      0xFEFEFE, // snow
	"Snowboard":      0xFEFEFE, // snow
}

const defaultColor = 0xFC4C02 // also orange

// Activity types that display average speed instead of pace.
var speedBased = map[string]bool{
	"Ride": true,
}

const (
	footerText = "Powered by Strava"
	footerIcon = "https://d3nn82uaxijpm6.cloudfront.net/apple-touch-icon-144x144.png?v=dLlWydWlG8"
)

// BuildMessage derives the display message from the fetched activity and
// athlete records.
func BuildMessage(activity *strava.Activity, athlete *strava.Athlete) Message {
	distanceKm := math.Round(activity.Distance/1000*100) / 100

	fields := []Field{
		{Name: "Distance", Value: floatText(distanceKm) + " km", Inline: true},
		{Name: "Moving Time", Value: FormatMovingTime(activity.MovingTime), Inline: true},
	}
	if speedBased[activity.Type] {
		fields = append(fields, Field{Name: "Average Speed", Value: FormatSpeed(activity.AverageSpeed), Inline: true})
	} else {
		fields = append(fields, Field{Name: "Pace", Value: FormatPace(activity.MovingTime, distanceKm) + " /km", Inline: true})
	}
	// Elevation is shown raw, no rounding.
	fields = append(fields, Field{Name: "Elevation", Value: floatText(activity.TotalElevationGain) + " m", Inline: true})

	return Message{
		Title:     activity.Name,
		URL:       fmt.Sprintf("https://strava.com/activities/%d", activity.ID),
		Color:     colorFor(activity.Type),
		Timestamp: activity.StartDate,
		Author: Author{
			Name:    athlete.FirstName + " " + athlete.LastName,
			URL:     fmt.Sprintf("https://strava.com/athletes/%d", athlete.ID),
			IconURL: athlete.ProfileMedium,
		},
		Footer: Footer{
			Text:    footerText,
			IconURL: footerIcon,
		},
		Fields: fields,
	}
}

func colorFor(activityType string) int {
	if color, ok := activityColors[activityType]; ok {
		return color
	}
	return defaultColor
}

// FormatDistance renders metres as kilometres rounded to 2 decimals.
func FormatDistance(meters float64) string {
	return floatText(math.Round(meters/1000*100)/100) + " km"
}

// FormatMovingTime renders seconds as H:MM:SS when at least an hour, M:SS otherwise.
func FormatMovingTime(seconds int) string {
	hours := seconds / 3600
	rem := seconds % 3600
	minutes := rem / 60
	secs := rem % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatPace renders minutes-per-kilometre as M:SS. The fractional minutes are
// scaled by 0.6, rounded to 2 decimals, then reinterpreted as hundredths. That
// two-step conversion is long-established output behaviour and must not be
// replaced with a plain minutes/seconds split.
func FormatPace(movingSeconds int, distanceKm float64) string {
	if distanceKm <= 0 {
		return "0:00"
	}
	raw := (float64(movingSeconds) / 60) / distanceKm
	minutes := int(raw)
	frac := raw - float64(minutes)
	secs := math.Round(frac*0.6*100) / 100
	return fmt.Sprintf("%d:%02d", minutes, int(secs*100))
}

// FormatSpeed renders metres/second as km/h rounded to 1 decimal.
func FormatSpeed(metersPerSecond float64) string {
	return floatText(math.Round(metersPerSecond*3.6*10)/10) + " km/h"
}

// floatText renders a float the way the message format has always shown them:
// shortest round-trip form, with a trailing ".0" kept on whole numbers.
func floatText(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
