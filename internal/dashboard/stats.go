package dashboard

import (
	"fmt"

	"github.com/2beens/stravalens/internal/strava"
)

// Totals are the aggregate stats shown in the profile card. They are
// recomputed from the fetched activity list on every render, there is
// no incremental bookkeeping.
type Totals struct {
	DistanceMeters float64
	ElevationGain  float64
	Activities     int
}

func ComputeTotals(activities []strava.Activity) Totals {
	totals := Totals{
		Activities: len(activities),
	}
	for i := range activities {
		totals.DistanceMeters += activities[i].Distance
		totals.ElevationGain += activities[i].TotalElevationGain
	}
	return totals
}

func (t Totals) DistanceKm() string {
	return fmt.Sprintf("%.0f", t.DistanceMeters/1000)
}

func (t Totals) Elevation() string {
	return fmt.Sprintf("%.0f", t.ElevationGain)
}
