package dashboard

import (
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/2beens/stravalens/internal/strava"
)

const metricNotAvailable = "--"

// FormatPaceOrSpeed returns the tempo label and value for an activity:
// runs get pace as min:sec per km, everything else speed in km/h.
func FormatPaceOrSpeed(activity *strava.Activity) (label, value string) {
	if activity.Type == strava.TypeRun {
		return "Avg Pace", FormatPace(activity.AverageSpeed)
	}
	return "Avg Speed", FormatSpeed(activity.AverageSpeed)
}

// FormatPace converts m/s into a "M:SS /km" pace string.
func FormatPace(metersPerSecond float64) string {
	if metersPerSecond <= 0 {
		return metricNotAvailable
	}
	secondsPerKm := 1000 / metersPerSecond
	minutes := int(math.Floor(secondsPerKm / 60))
	seconds := int(math.Floor(math.Mod(secondsPerKm, 60)))
	return fmt.Sprintf("%d:%02d /km", minutes, seconds)
}

// FormatSpeed converts m/s into a "X.X km/h" string.
func FormatSpeed(metersPerSecond float64) string {
	return fmt.Sprintf("%.1f km/h", metersPerSecond*3.6)
}

// FormatDuration renders seconds as "1h 5m", or "45m" below one hour.
func FormatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func FormatDistanceKm(meters float64) string {
	return fmt.Sprintf("%.2f", meters/1000)
}

func FormatElevation(meters float64) string {
	return fmt.Sprintf("%.0f", meters)
}

func FormatHeartrate(bpm *float64) string {
	if bpm == nil {
		return metricNotAvailable
	}
	return fmt.Sprintf("%.0f", math.Round(*bpm))
}

func FormatSufferScore(score *float64) string {
	if score == nil {
		return metricNotAvailable
	}
	return fmt.Sprintf("%.0f", *score)
}

func FormatStartDate(startDate time.Time) string {
	return startDate.Format("Mon, Jan 2, 15:04")
}

// ActivityIcon maps the activity type tag to an emoji, with a medal fallback.
func ActivityIcon(activityType string) string {
	switch activityType {
	case strava.TypeRun:
		return "🏃"
	case strava.TypeRide:
		return "🚴"
	case strava.TypeSwim:
		return "🏊"
	case strava.TypeWalk:
		return "🚶"
	case strava.TypeHike:
		return "🥾"
	case strava.TypeWeightTraining:
		return "🏋️"
	case strava.TypeYoga:
		return "🧘"
	default:
		return "🏅"
	}
}

// strava serves these placeholder values when the athlete has no avatar
var avatarPlaceholders = map[string]bool{
	"avatar/athlete/large.png":  true,
	"avatar/athlete/medium.png": true,
	"":                          true,
}

// AvatarURL falls back to a generated initials avatar when strava
// only has its default placeholder for the athlete.
func AvatarURL(athlete *strava.Athlete) string {
	if !avatarPlaceholders[athlete.Profile] {
		return athlete.Profile
	}
	return "https://ui-avatars.com/api/?background=random&size=128&name=" +
		url.QueryEscape(athlete.Firstname+" "+athlete.Lastname)
}
