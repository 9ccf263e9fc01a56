package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/2beens/stravalens/internal/config"
	"github.com/2beens/stravalens/internal/gemini"
	"github.com/2beens/stravalens/internal/session"
	"github.com/2beens/stravalens/internal/telemetry/metrics"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnalysisJSON = `{
	"summary": "Solid aerobic effort with a steady pace throughout.",
	"strengths": ["consistent pacing", "good endurance"],
	"weaknesses": ["low cadence"],
	"advice": "Add one short interval session per week."
}`

func newStravaTestServer(statusCode int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if statusCode != http.StatusOK {
			w.WriteHeader(statusCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/athlete":
			fmt.Fprint(w, `{
				"id": 1188, "firstname": "Mika", "lastname": "Runner",
				"city": "Berlin", "country": "Germany", "profile": ""
			}`)
		case r.URL.Path == "/athlete/activities":
			fmt.Fprint(w, `[
				{
					"id": 101, "name": "Morning Run", "type": "Run",
					"distance": 10000, "moving_time": 3000,
					"total_elevation_gain": 80, "average_speed": 3.33,
					"max_speed": 4.5, "start_date": "2025-06-09T08:00:00Z"
				},
				{
					"id": 102, "name": "Evening Ride", "type": "Ride",
					"distance": 25000, "moving_time": 3600,
					"total_elevation_gain": 210, "average_speed": 6.9,
					"max_speed": 14.1, "start_date": "2025-06-08T18:00:00Z"
				}
			]`)
		case strings.HasPrefix(r.URL.Path, "/activities/"):
			fmt.Fprint(w, `{
				"id": 101, "name": "Morning Run", "type": "Run",
				"distance": 10000, "moving_time": 3000,
				"total_elevation_gain": 80, "average_speed": 3.33,
				"max_speed": 4.5, "start_date": "2025-06-09T08:00:00Z"
			}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newGeminiTestServer(calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": testAnalysisJSON}},
				},
			}},
		}
		respBytes, _ := json.Marshal(resp)
		_, _ = w.Write(respBytes)
	}))
}

type handlerTestSetup struct {
	router *mux.Router
	store  *session.Store
	cfg    *config.Config
}

func newHandlerTestSetup(
	t *testing.T,
	stravaBaseURL string,
	analyzer *gemini.Analyzer,
) *handlerTestSetup {
	t.Helper()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	cfg := &config.Config{
		StravaBaseURL:     stravaBaseURL,
		ActivitiesPerPage: 30,
	}

	if analyzer == nil {
		analyzer = gemini.NewAnalyzer("", "", "", nil, nil)
	}

	handler, err := NewHandler(cfg, store, analyzer, http.DefaultClient, metrics.NewTestManager())
	require.NoError(t, err)

	router := mux.NewRouter()
	handler.SetupRoutes(router)

	return &handlerTestSetup{
		router: router,
		store:  store,
		cfg:    cfg,
	}
}

func TestHandleIndex_NoSession_ShowsLogin(t *testing.T) {
	setup := newHandlerTestSetup(t, "http://localhost", nil)

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Strava Access Token")
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}

func TestHandleLogin(t *testing.T) {
	setup := newHandlerTestSetup(t, "http://localhost", nil)

	// too short, rejected and login re-rendered with the error
	form := url.Values{"token": {"short"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a valid Strava Access Token")
	_, err := setup.store.Restore(req.Context())
	assert.ErrorIs(t, err, session.ErrNoSession)

	// valid token, saved and redirected to the dashboard
	token := gofakeit.LetterN(24)
	form = url.Values{"token": {token}}
	req = httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	restored, err := setup.store.Restore(req.Context())
	require.NoError(t, err)
	assert.Equal(t, token, restored)
}

func TestHandleLogout(t *testing.T) {
	setup := newHandlerTestSetup(t, "http://localhost", nil)

	req := httptest.NewRequest("POST", "/logout", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	_, err := setup.store.Restore(req.Context())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestHandleIndex_RendersDashboard(t *testing.T) {
	stravaServer := newStravaTestServer(http.StatusOK)
	defer stravaServer.Close()

	setup := newHandlerTestSetup(t, stravaServer.URL, nil)

	req := httptest.NewRequest("GET", "/", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Mika Runner")
	assert.Contains(t, body, "Morning Run")
	assert.Contains(t, body, "Evening Ride")
	assert.Contains(t, body, "Berlin, Germany")
	// no gemini key configured in this setup
	assert.Contains(t, body, "AI analysis is disabled")
}

func TestHandleIndex_Unauthorized(t *testing.T) {
	stravaServer := newStravaTestServer(http.StatusUnauthorized)
	defer stravaServer.Close()

	setup := newHandlerTestSetup(t, stravaServer.URL, nil)

	req := httptest.NewRequest("GET", "/", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication Failed")

	// without auto logout the session survives for a manual retry
	_, err := setup.store.Restore(req.Context())
	assert.NoError(t, err)
}

func TestHandleIndex_AutoLogoutOnUnauthorized(t *testing.T) {
	stravaServer := newStravaTestServer(http.StatusUnauthorized)
	defer stravaServer.Close()

	setup := newHandlerTestSetup(t, stravaServer.URL, nil)
	setup.cfg.AutoLogoutOnUnauthorized = true

	req := httptest.NewRequest("GET", "/", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, err := setup.store.Restore(req.Context())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestHandleIndex_RateLimited(t *testing.T) {
	stravaServer := newStravaTestServer(http.StatusTooManyRequests)
	defer stravaServer.Close()

	setup := newHandlerTestSetup(t, stravaServer.URL, nil)

	req := httptest.NewRequest("GET", "/", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate Limited")
}

func TestHandleIndex_StravaDown(t *testing.T) {
	stravaServer := newStravaTestServer(http.StatusInternalServerError)
	defer stravaServer.Close()

	setup := newHandlerTestSetup(t, stravaServer.URL, nil)

	req := httptest.NewRequest("GET", "/", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Strava Unreachable")
}

func TestHandleAnalyze(t *testing.T) {
	stravaServer := newStravaTestServer(http.StatusOK)
	defer stravaServer.Close()

	var geminiCalls atomic.Int32
	geminiServer := newGeminiTestServer(&geminiCalls)
	defer geminiServer.Close()

	analyzer := gemini.NewAnalyzer(geminiServer.URL, "", "test-api-key", nil, nil)
	setup := newHandlerTestSetup(t, stravaServer.URL, analyzer)

	req := httptest.NewRequest("POST", "/api/activities/101/analyze", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result gemini.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Solid aerobic effort with a steady pace throughout.", result.Summary)
	assert.Equal(t, []string{"consistent pacing", "good endurance"}, result.Strengths)
	assert.Equal(t, int32(1), geminiCalls.Load())

	// second analyze of the same activity is served from the cache
	rec = httptest.NewRecorder()
	setup.router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/activities/101/analyze", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), geminiCalls.Load())
}

func TestHandleAnalyze_InvalidID(t *testing.T) {
	setup := newHandlerTestSetup(t, "http://localhost", nil)

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/activities/not-a-number/analyze", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid activity id"}`, rec.Body.String())
}

func TestHandleAnalyze_NoSession(t *testing.T) {
	setup := newHandlerTestSetup(t, "http://localhost", nil)

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/activities/101/analyze", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"not logged in"}`, rec.Body.String())
}

func TestHandleAnalyze_AnalyzerDisabled(t *testing.T) {
	setup := newHandlerTestSetup(t, "http://localhost", nil)

	req := httptest.NewRequest("POST", "/api/activities/101/analyze", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "gemini API key is missing")
}

func TestHandleAnalyze_StravaUnauthorized(t *testing.T) {
	stravaServer := newStravaTestServer(http.StatusUnauthorized)
	defer stravaServer.Close()

	var geminiCalls atomic.Int32
	geminiServer := newGeminiTestServer(&geminiCalls)
	defer geminiServer.Close()

	analyzer := gemini.NewAnalyzer(geminiServer.URL, "", "test-api-key", nil, nil)
	setup := newHandlerTestSetup(t, stravaServer.URL, analyzer)

	req := httptest.NewRequest("POST", "/api/activities/101/analyze", nil)
	require.NoError(t, setup.store.Save(req.Context(), gofakeit.LetterN(24)))

	rec := httptest.NewRecorder()
	setup.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
	assert.Equal(t, int32(0), geminiCalls.Load())
}
