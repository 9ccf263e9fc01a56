package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/stravalens/internal/config"
	"github.com/2beens/stravalens/internal/dashboard"
	"github.com/2beens/stravalens/internal/gemini"
	"github.com/2beens/stravalens/internal/middleware"
	"github.com/2beens/stravalens/internal/session"
	"github.com/2beens/stravalens/internal/telemetry/metrics"
	"github.com/2beens/stravalens/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config       *config.Config
	sessionStore *session.Store
	analyzer     *gemini.Analyzer

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
}

type NewServerParams struct {
	Config       *config.Config
	GeminiAPIKey string
}

func NewServer(params NewServerParams) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("stravalens", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	sessionStore, err := session.NewStore(params.Config.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("new session store: %w", err)
	}

	analyzer := gemini.NewAnalyzer(
		params.Config.GeminiBaseURL,
		params.Config.GeminiModel,
		params.GeminiAPIKey,
		http.DefaultClient,
		metricsManager,
	)
	if !analyzer.Enabled() {
		log.Warnln("gemini API key not set, AI analysis will be disabled")
	}

	return &Server{
		config:         params.Config,
		sessionStore:   sessionStore,
		analyzer:       analyzer,
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()

	dashboardHandler, err := dashboard.NewHandler(
		s.config,
		s.sessionStore,
		s.analyzer,
		http.DefaultClient,
		s.metricsManager,
	)
	if err != nil {
		return nil, fmt.Errorf("new dashboard handler: %w", err)
	}
	dashboardHandler.SetupRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, "ok")
	}).Methods("GET").Name("health")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	if s.sessionStore != nil {
		if err := s.sessionStore.Close(); err != nil {
			log.Errorf("failed to close session store: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
