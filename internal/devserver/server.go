// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/chatbi-tui/internal/config"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is where the backend listens when no address is configured.
	DefaultAddr = "127.0.0.1:13000"

	// MaxRequestBodySize bounds JSON request bodies.
	MaxRequestBodySize = 1 << 20

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

// ============================================================================
// OPTIONS
// ============================================================================

// Options configures the server.
type Options struct {
	Addr            string
	RatePerMinute   int
	CacheTTL        time.Duration
	ShutdownTimeout time.Duration
}

// OptionsFromConfig maps the [devserver] config section.
func OptionsFromConfig(c config.DevServerConfig) Options {
	return Options{
		Addr:          c.Addr,
		RatePerMinute: c.RatePerMinute,
		CacheTTL:      time.Duration(c.CacheTTLSecs) * time.Second,
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the development Chat-BI backend.
type Server struct {
	opts     Options
	store    *Store
	cache    *cache.Cache
	limiter  *RateLimiter
	validate *validator.Validate
	router   chi.Router
}

// New creates a server over store. Zero option values get defaults; a zero
// CacheTTL disables answer caching.
func New(store *Store, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		opts:     opts,
		store:    store,
		cache:    cache.New(opts.CacheTTL, 10*time.Minute),
		limiter:  NewRateLimiter(opts.RatePerMinute),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/chat", s.handleChat)
		r.Post("/query", s.handleQuery)
		r.Post("/satisfaction", s.handleSatisfaction)
		r.Get("/history", s.handleHistory)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/{id}", s.handleGetTemplate)
			r.Put("/{id}", s.handleUpdateTemplate)
			r.Delete("/{id}", s.handleDeleteTemplate)
		})
	})

	s.router = r
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("devserver listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("devserver shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return s.limiter.RunSweeper(gctx)
	})

	return g.Wait()
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

// writeDetail writes the {"detail": msg} error body.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// decodeBody decodes a size-limited JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", MaxRequestBodySize)
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
