package strava

import "time"

type Athlete struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Firstname     string `json:"firstname"`
	Lastname      string `json:"lastname"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Profile       string `json:"profile"`
	ProfileMedium string `json:"profile_medium"`
}

// activity types with dedicated handling in the views,
// everything else falls back to a generic medal
const (
	TypeRun            = "Run"
	TypeRide           = "Ride"
	TypeSwim           = "Swim"
	TypeWalk           = "Walk"
	TypeHike           = "Hike"
	TypeWeightTraining = "WeightTraining"
	TypeYoga           = "Yoga"
)

type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Distance           float64   `json:"distance"`             // meters
	MovingTime         int       `json:"moving_time"`          // seconds
	ElapsedTime        int       `json:"elapsed_time"`         // seconds
	TotalElevationGain float64   `json:"total_elevation_gain"` // meters
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	AverageSpeed       float64   `json:"average_speed"` // m/s
	MaxSpeed           float64   `json:"max_speed"`     // m/s

	// optional metrics, absent is not the same as zero
	AverageHeartrate *float64 `json:"average_heartrate,omitempty"`
	MaxHeartrate     *float64 `json:"max_heartrate,omitempty"`
	SufferScore      *float64 `json:"suffer_score,omitempty"`

	Map *ActivityMap `json:"map,omitempty"`

	KudosCount       int `json:"kudos_count"`
	AchievementCount int `json:"achievement_count"`
}

type ActivityMap struct {
	SummaryPolyline string `json:"summary_polyline"`
}
