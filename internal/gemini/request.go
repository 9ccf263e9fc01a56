package gemini

import (
	"fmt"
	"strconv"

	"github.com/2beens/stravalens/internal/strava"
)

const notAvailable = "N/A"

const promptTemplate = `
Analyze the following Strava activity data for an athlete.
Activity Name: %s
Type: %s
Distance: %.2f km
Moving Time: %.1f minutes
Elevation Gain: %.0f meters
Avg Speed: %.1f km/h
Avg HR: %s bpm
Max HR: %s bpm
Suffer Score: %s
Achievements: %d

Provide a coaching summary, identify key strengths in this session, point out potential weaknesses or areas of caution, and give one actionable piece of advice for the next training session.
Return the response as a valid JSON object.
`

func buildPrompt(activity *strava.Activity) string {
	return fmt.Sprintf(
		promptTemplate,
		activity.Name,
		activity.Type,
		activity.Distance/1000,
		float64(activity.MovingTime)/60,
		activity.TotalElevationGain,
		activity.AverageSpeed*3.6,
		optionalMetric(activity.AverageHeartrate),
		optionalMetric(activity.MaxHeartrate),
		optionalMetric(activity.SufferScore),
		activity.AchievementCount,
	)
}

func optionalMetric(value *float64) string {
	if value == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   *responseSchema `json:"responseSchema"`
}

type responseSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

type schemaProperty struct {
	Type  string          `json:"type"`
	Items *schemaProperty `json:"items,omitempty"`
}

func newGenerateContentRequest(prompt string) *generateContentRequest {
	stringArray := schemaProperty{
		Type:  "ARRAY",
		Items: &schemaProperty{Type: "STRING"},
	}
	return &generateContentRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: &responseSchema{
				Type: "OBJECT",
				Properties: map[string]schemaProperty{
					"summary":    {Type: "STRING"},
					"strengths":  stringArray,
					"weaknesses": stringArray,
					"advice":     {Type: "STRING"},
				},
				Required: []string{"summary", "strengths", "weaknesses", "advice"},
			},
		},
	}
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r *generateContentResponse) text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}
