package dashboard

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/2beens/stravalens/internal/config"
	"github.com/2beens/stravalens/internal/gemini"
	"github.com/2beens/stravalens/internal/session"
	"github.com/2beens/stravalens/internal/strava"
	"github.com/2beens/stravalens/internal/telemetry/metrics"
	"github.com/2beens/stravalens/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Handler struct {
	cfg            *config.Config
	sessionStore   *session.Store
	analyzer       *gemini.Analyzer
	httpClient     *http.Client
	metricsManager *metrics.Manager
	templates      *template.Template
}

func NewHandler(
	cfg *config.Config,
	sessionStore *session.Store,
	analyzer *gemini.Analyzer,
	httpClient *http.Client,
	metricsManager *metrics.Manager,
) (*Handler, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Handler{
		cfg:            cfg,
		sessionStore:   sessionStore,
		analyzer:       analyzer,
		httpClient:     httpClient,
		metricsManager: metricsManager,
		templates:      templates,
	}, nil
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET").Name("index")
	r.HandleFunc("/login", h.handleLogin).Methods("POST").Name("login")
	r.HandleFunc("/logout", h.handleLogout).Methods("POST").Name("logout")
	r.HandleFunc("/api/activities/{id}/analyze", h.handleAnalyze).Methods("POST").Name("analyze")
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := h.sessionStore.Restore(ctx)
	if errors.Is(err, session.ErrNoSession) {
		h.render(w, http.StatusOK, "login.gohtml", loginView{})
		return
	}
	if err != nil {
		log.Errorf("handle index, restore session: %s", err)
		h.render(w, http.StatusInternalServerError, "error.gohtml", errorView{
			Title:   "Session Error",
			Message: "Failed to read the stored session. Check the server logs.",
		})
		return
	}

	stravaClient := strava.NewClient(h.cfg.StravaBaseURL, token, h.httpClient, h.metricsManager)

	var (
		athlete    *strava.Athlete
		activities []strava.Activity
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		athlete, err = stravaClient.GetAthlete(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = stravaClient.GetActivities(gCtx, strava.DefaultPage, h.cfg.ActivitiesPerPage)
		return err
	})

	if err := g.Wait(); err != nil {
		h.renderFetchError(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "dashboard.gohtml", newDashboardView(
		athlete, activities, h.analyzer.Enabled(),
	))
}

// renderFetchError turns a strava fetch failure into the matching error
// screen. An invalid token optionally clears the session and returns the
// user straight to the login screen.
func (h *Handler) renderFetchError(w http.ResponseWriter, r *http.Request, err error) {
	log.Errorf("failed to fetch strava data: %s", err)

	switch {
	case errors.Is(err, strava.ErrUnauthorized):
		if h.cfg.AutoLogoutOnUnauthorized {
			if clearErr := h.sessionStore.Clear(r.Context()); clearErr != nil {
				log.Errorf("auto logout, clear session: %s", clearErr)
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.render(w, http.StatusUnauthorized, "error.gohtml", errorView{
			Title:   "Authentication Failed",
			Message: "Your Strava access token is invalid or expired. Please log in again with a fresh token.",
		})
	case errors.Is(err, strava.ErrRateLimited):
		h.render(w, http.StatusTooManyRequests, "error.gohtml", errorView{
			Title:   "Rate Limited",
			Message: "Strava API quota exceeded. Please wait ~15 minutes and try again.",
		})
	default:
		h.render(w, http.StatusBadGateway, "error.gohtml", errorView{
			Title:   "Strava Unreachable",
			Message: "Failed to fetch your Strava data. Check your connection and try again.",
		})
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Errorf("handle login, parse form: %s", err)
		http.Error(w, "parse form", http.StatusBadRequest)
		return
	}

	token := r.Form.Get("token")
	if len(token) < session.TokenMinLength {
		h.render(w, http.StatusBadRequest, "login.gohtml", loginView{
			Error: "Please enter a valid Strava Access Token",
		})
		return
	}

	if err := h.sessionStore.Save(r.Context(), token); err != nil {
		log.Errorf("handle login, save session: %s", err)
		h.render(w, http.StatusInternalServerError, "error.gohtml", errorView{
			Title:   "Session Error",
			Message: "Failed to store the session. Check the server logs.",
		})
		return
	}

	log.Debugln("session token saved, showing dashboard")
	if h.metricsManager != nil {
		h.metricsManager.CounterLogins.Inc()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionStore.Clear(r.Context()); err != nil {
		log.Errorf("handle logout, clear session: %s", err)
		h.render(w, http.StatusInternalServerError, "error.gohtml", errorView{
			Title:   "Session Error",
			Message: "Failed to clear the session. Check the server logs.",
		})
		return
	}

	if h.metricsManager != nil {
		h.metricsManager.CounterLogouts.Inc()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	activityID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	token, err := h.sessionStore.Restore(ctx)
	if errors.Is(err, session.ErrNoSession) {
		sendJSONError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	if err != nil {
		log.Errorf("handle analyze, restore session: %s", err)
		sendJSONError(w, http.StatusInternalServerError, "failed to read the stored session")
		return
	}

	if cached, ok := h.analyzer.Cached(activityID); ok {
		if h.metricsManager != nil {
			h.metricsManager.CounterAnalysisRequests.Inc()
			h.metricsManager.CounterAnalysisCacheHits.Inc()
		}
		pkg.SendJSON(w, http.StatusOK, cached)
		return
	}

	if !h.analyzer.Enabled() {
		sendJSONError(w, http.StatusServiceUnavailable, gemini.ErrMissingCredential.Error())
		return
	}

	stravaClient := strava.NewClient(h.cfg.StravaBaseURL, token, h.httpClient, h.metricsManager)
	activity, err := stravaClient.GetActivity(ctx, activityID)
	if err != nil {
		log.Errorf("handle analyze, get activity %d: %s", activityID, err)
		switch {
		case errors.Is(err, strava.ErrUnauthorized):
			sendJSONError(w, http.StatusUnauthorized, strava.ErrUnauthorized.Error())
		case errors.Is(err, strava.ErrRateLimited):
			sendJSONError(w, http.StatusTooManyRequests, strava.ErrRateLimited.Error())
		default:
			sendJSONError(w, http.StatusBadGateway, "failed to fetch the activity from strava")
		}
		return
	}

	result, err := h.analyzer.Analyze(ctx, activity)
	if err != nil {
		switch {
		case errors.Is(err, gemini.ErrMissingCredential):
			sendJSONError(w, http.StatusServiceUnavailable, err.Error())
		default:
			sendJSONError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	pkg.SendJSON(w, http.StatusOK, result)
}

func sendJSONError(w http.ResponseWriter, statusCode int, message string) {
	pkg.WriteResponse(
		w, pkg.ContentType.JSON,
		fmt.Sprintf(`{"error":%q}`, message),
		statusCode,
	)
}
