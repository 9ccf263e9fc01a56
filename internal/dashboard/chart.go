package dashboard

import (
	"math"

	"github.com/2beens/stravalens/internal/strava"
)

// chartWindow - the chart shows the distances of the most recent
// activities only; the slicing happens here in the view, it is not a
// separate fetch
const chartWindow = 7

type ChartBar struct {
	Label      string  // short weekday of the activity start
	DistanceKm float64 // rounded to 2 decimals
	Elevation  float64 // meters, shown in the tooltip
	HeightPct  int     // bar height relative to the tallest bar, 0-100
}

// BuildChartBars takes the most recent activities (the api returns newest
// first) and lays them out oldest to newest, left to right.
func BuildChartBars(activities []strava.Activity) []ChartBar {
	window := activities
	if len(window) > chartWindow {
		window = window[:chartWindow]
	}

	bars := make([]ChartBar, 0, len(window))
	maxDistanceKm := 0.0
	for i := len(window) - 1; i >= 0; i-- {
		act := window[i]
		distanceKm := math.Round(act.Distance/10) / 100
		if distanceKm > maxDistanceKm {
			maxDistanceKm = distanceKm
		}
		bars = append(bars, ChartBar{
			Label:      act.StartDate.Format("Mon"),
			DistanceKm: distanceKm,
			Elevation:  act.TotalElevationGain,
		})
	}

	for i := range bars {
		if maxDistanceKm > 0 {
			bars[i].HeightPct = int(math.Round(bars[i].DistanceKm / maxDistanceKm * 100))
		}
	}

	return bars
}
