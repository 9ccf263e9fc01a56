package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/stravalens/internal/strava"
	"github.com/2beens/stravalens/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"

	analysisCacheKeyPrefix = "analysis::"
)

var (
	// ErrMissingCredential - no gemini API key configured, checked before any network call
	ErrMissingCredential = errors.New("gemini API key is missing, set it via the GEMINI_API_KEY env var")
	// ErrAnalysisFailed - generic user-facing failure, the underlying cause is logged only
	ErrAnalysisFailed = errors.New("failed to generate AI analysis, please check the API key and quota")
	// ErrMalformedResponse - the model reply did not match the required result shape
	ErrMalformedResponse = errors.New("AI reply malformed: missing or invalid analysis fields")
)

// Result is the fixed shape the model is constrained to return.
type Result struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Advice     string   `json:"advice"`
}

// Analyzer requests a structured coaching analysis for one activity from the
// gemini generateContent endpoint. Results are cached per activity ID for the
// process lifetime, so a repeated analyze is a no-op without a network call.
type Analyzer struct {
	baseURL        string
	model          string
	apiKey         string
	httpClient     *http.Client
	cache          *freecache.Cache
	metricsManager *metrics.Manager
}

func NewAnalyzer(
	baseURL, model, apiKey string,
	httpClient *http.Client,
	metricsManager *metrics.Manager,
) *Analyzer {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	megabyte := 1024 * 1024
	return &Analyzer{
		baseURL:        baseURL,
		model:          model,
		apiKey:         apiKey,
		httpClient:     httpClient,
		cache:          freecache.NewCache(10 * megabyte),
		metricsManager: metricsManager,
	}
}

// Enabled reports whether the analyzer has a credential configured.
func (a *Analyzer) Enabled() bool {
	return a.apiKey != ""
}

// Cached returns the already generated analysis for the activity, if any.
func (a *Analyzer) Cached(activityID int64) (*Result, bool) {
	cacheKey := []byte(analysisCacheKeyPrefix + strconv.FormatInt(activityID, 10))
	cachedBytes, err := a.cache.Get(cacheKey)
	if err != nil {
		return nil, false
	}
	result := &Result{}
	if err := json.Unmarshal(cachedBytes, result); err != nil {
		log.Errorf("failed to unmarshal cached analysis for activity %d: %s", activityID, err)
		return nil, false
	}
	return result, true
}

func (a *Analyzer) Analyze(ctx context.Context, activity *strava.Activity) (*Result, error) {
	if a.apiKey == "" {
		return nil, ErrMissingCredential
	}

	if a.metricsManager != nil {
		a.metricsManager.CounterAnalysisRequests.Inc()
	}

	cacheKey := []byte(analysisCacheKeyPrefix + strconv.FormatInt(activity.ID, 10))
	if cachedBytes, err := a.cache.Get(cacheKey); err == nil {
		result := &Result{}
		if err := json.Unmarshal(cachedBytes, result); err == nil {
			log.Tracef("analysis for activity %d served from cache", activity.ID)
			if a.metricsManager != nil {
				a.metricsManager.CounterAnalysisCacheHits.Inc()
			}
			return result, nil
		}
		log.Errorf("failed to unmarshal cached analysis for activity %d: %s", activity.ID, err)
	}

	result, err := a.generate(ctx, activity)
	if err != nil {
		if a.metricsManager != nil {
			a.metricsManager.CounterAnalysisFailures.Inc()
		}
		return nil, err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		log.Errorf("failed to marshal analysis for activity %d for caching: %s", activity.ID, err)
		return result, nil
	}
	if err := a.cache.Set(cacheKey, resultBytes, 0); err != nil {
		log.Errorf("failed to cache analysis for activity %d: %s", activity.ID, err)
	}

	return result, nil
}

func (a *Analyzer) generate(ctx context.Context, activity *strava.Activity) (*Result, error) {
	reqBody, err := json.Marshal(newGenerateContentRequest(buildPrompt(activity)))
	if err != nil {
		log.Errorf("gemini analysis failed, marshal request for activity %d: %s", activity.ID, err)
		return nil, ErrAnalysisFailed
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, a.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(reqBody))
	if err != nil {
		log.Errorf("gemini analysis failed, create request for activity %d: %s", activity.ID, err)
		return nil, ErrAnalysisFailed
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Errorf("gemini analysis failed, call for activity %d: %s", activity.ID, err)
		return nil, ErrAnalysisFailed
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("gemini analysis failed, read response for activity %d: %s", activity.ID, err)
		return nil, ErrAnalysisFailed
	}

	if resp.StatusCode != http.StatusOK {
		log.Errorf("gemini analysis failed for activity %d: status %d: %s", activity.ID, resp.StatusCode, respBytes)
		return nil, ErrAnalysisFailed
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(respBytes, &genResp); err != nil {
		log.Errorf("gemini analysis failed, unmarshal response for activity %d: %s", activity.ID, err)
		return nil, ErrAnalysisFailed
	}

	text := genResp.text()
	if text == "" {
		log.Errorf("gemini analysis failed for activity %d: no response content", activity.ID)
		return nil, ErrAnalysisFailed
	}

	result := &Result{}
	if err := json.Unmarshal([]byte(text), result); err != nil {
		log.Errorf("gemini analysis for activity %d, unmarshal result text: %s", activity.ID, err)
		return nil, ErrMalformedResponse
	}
	if err := result.validate(); err != nil {
		log.Errorf("gemini analysis for activity %d: %s", activity.ID, err)
		return nil, ErrMalformedResponse
	}

	return result, nil
}

func (r *Result) validate() error {
	switch {
	case strings.TrimSpace(r.Summary) == "":
		return errors.New("summary missing")
	case len(r.Strengths) == 0:
		return errors.New("strengths missing")
	case len(r.Weaknesses) == 0:
		return errors.New("weaknesses missing")
	case strings.TrimSpace(r.Advice) == "":
		return errors.New("advice missing")
	}
	return nil
}
