package dashboard

import (
	"strings"

	"github.com/2beens/stravalens/internal/strava"
)

type loginView struct {
	Error string
}

type errorView struct {
	Title   string
	Message string
}

type dashboardView struct {
	AthleteName     string
	AvatarURL       string
	Location        string
	Totals          Totals
	ChartBars       []ChartBar
	Activities      []activityView
	AnalyzerEnabled bool
}

type activityView struct {
	ID           int64
	Name         string
	Icon         string
	DateLabel    string
	DistanceKm   string
	Duration     string
	Elevation    string
	TempoLabel   string
	TempoValue   string
	AvgHeartrate string
	MaxHeartrate string
	SufferScore  string
	MaxSpeed     string
	Achievements int
	Kudos        int
}

func newDashboardView(
	athlete *strava.Athlete,
	activities []strava.Activity,
	analyzerEnabled bool,
) dashboardView {
	view := dashboardView{
		AthleteName:     strings.TrimSpace(athlete.Firstname + " " + athlete.Lastname),
		AvatarURL:       AvatarURL(athlete),
		Location:        athleteLocation(athlete),
		Totals:          ComputeTotals(activities),
		ChartBars:       BuildChartBars(activities),
		AnalyzerEnabled: analyzerEnabled,
	}
	for i := range activities {
		view.Activities = append(view.Activities, newActivityView(&activities[i]))
	}
	return view
}

func newActivityView(act *strava.Activity) activityView {
	tempoLabel, tempoValue := FormatPaceOrSpeed(act)
	return activityView{
		ID:           act.ID,
		Name:         act.Name,
		Icon:         ActivityIcon(act.Type),
		DateLabel:    FormatStartDate(act.StartDate),
		DistanceKm:   FormatDistanceKm(act.Distance),
		Duration:     FormatDuration(act.MovingTime),
		Elevation:    FormatElevation(act.TotalElevationGain),
		TempoLabel:   tempoLabel,
		TempoValue:   tempoValue,
		AvgHeartrate: FormatHeartrate(act.AverageHeartrate),
		MaxHeartrate: FormatHeartrate(act.MaxHeartrate),
		SufferScore:  FormatSufferScore(act.SufferScore),
		MaxSpeed:     FormatSpeed(act.MaxSpeed),
		Achievements: act.AchievementCount,
		Kudos:        act.KudosCount,
	}
}

func athleteLocation(athlete *strava.Athlete) string {
	var parts []string
	for _, p := range []string{athlete.City, athlete.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
