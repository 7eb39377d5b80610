// Package service exposes the operator HTTP API: calldata encoding with
// operation identifiers, timelock status reads, polling verification, signer
// metadata and the audit trail.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	arcpay "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/internal/audit"
	"github.com/arcadia-pay/arcpay/internal/watcher"
	"github.com/arcadia-pay/arcpay/sdk"
)

const shutdownGrace = 5 * time.Second

// Config holds the server settings.
type Config struct {
	Addr string `validate:"required"`

	// APIKey guards the privileged routes (encode, audit). Leaving it empty
	// disables those routes entirely rather than opening them up.
	APIKey string
}

// Dependencies are the subsystems the handlers delegate to. Inspector,
// Verifier, Signer, Browser and Alerter are optional; routes depending on an
// absent one report that it is not configured.
type Dependencies struct {
	Inspector sdk.TimelockInspector
	Verifier  *arcpay.Verifier
	Signer    arcpay.Signer
	Audit     *audit.Log
	Browser   audit.Browser
	Alerter   *watcher.Alerter
}

// Server is the operator HTTP API.
type Server struct {
	cfg      Config
	lggr     *zap.Logger
	deps     Dependencies
	router   *mux.Router
	metrics  *Metrics
	validate *validator.Validate
}

// NewServer creates the API server and wires its routes.
func NewServer(lggr *zap.Logger, cfg Config, deps Dependencies, reg *prometheus.Registry) (*Server, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		lggr:     lggr,
		deps:     deps,
		router:   mux.NewRouter(),
		metrics:  NewMetrics(reg),
		validate: validator.New(),
	}
	s.setupRoutes(reg)

	return s, nil
}

func (s *Server) setupRoutes(reg *prometheus.Registry) {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware, s.metricsMiddleware)

	api.Handle("/timelock/encode", s.requireAPIKey(s.handleEncode)).Methods(http.MethodPost)
	api.HandleFunc("/timelock/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/timelock/verify", s.handleVerify).Methods(http.MethodGet)
	api.HandleFunc("/signer/info", s.handleSignerInfo).Methods(http.MethodGet)
	api.Handle("/audit/list", s.requireAPIKey(s.handleAuditList)).Methods(http.MethodGet)
	api.Handle("/audit/get", s.requireAPIKey(s.handleAuditGet)).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Router returns the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.lggr.Info("api server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}
