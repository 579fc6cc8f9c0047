// Package api serves the checklist session to a browser front-end over
// REST and a WebSocket snapshot feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/robertguss/steershaft-checklist/internal/config"
	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/logging"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// Server is the kiosk REST API server
type Server struct {
	config     *config.Config
	controller *wizard.Controller
	hub        *WebSocketHub
	checklist  func() string

	unsubscribe func()

	mu      sync.Mutex
	server  *http.Server
	running bool
}

// NewServer creates a server driving controller. Every session change is
// pushed to WebSocket clients.
func NewServer(cfg *config.Config, controller *wizard.Controller) *Server {
	hub := NewWebSocketHub(cfg.CORSAllowedOrigins)
	hub.SetInitial(controller.Snapshot)
	go hub.Run()

	s := &Server{
		config:     cfg,
		controller: controller,
		hub:        hub,
		checklist:  func() string { return cfg.ActiveChecklist },
	}
	s.unsubscribe = controller.Subscribe(func(snap wizard.Snapshot) {
		hub.Broadcast(newSessionMessage(snap))
	})
	return s
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.hub
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start serves on addr until Stop is called
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.server = &http.Server{
		Handler:      s.setupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // submissions have no deadline; WebSocket writes set their own
		IdleTimeout:  60 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	logging.Logger.Info("API server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down and disconnects WebSocket clients
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unsubscribe()
	s.hub.Stop()

	if !s.running {
		return nil
	}
	s.running = false
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.config.CORSAllowedOrigins))

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.getSessionHandler)
		r.Put("/session/operator", s.setOperatorHandler)

		r.Post("/workorders", s.addWorkOrderHandler)
		r.Delete("/workorders/{wo}", s.removeWorkOrderHandler)

		r.Post("/checklist/start", s.actionHandler(domain.StartChecklist{}))
		r.Post("/checklist/next", s.actionHandler(domain.Next{}))
		r.Post("/checklist/back", s.actionHandler(domain.Back{}))

		r.Post("/step/toggle", s.toggleHandler)
		r.Put("/step/select-all", s.selectAllHandler)
		r.Put("/step/comment", s.commentHandler)

		r.Get("/review", s.reviewHandler)
		r.Post("/submit", s.submitHandler)
		r.Post("/reset", s.actionHandler(domain.Reset{}))

		r.Get("/steps", s.stepsHandler)
		r.Get("/ws", s.hub.ServeWs)
	})

	return r
}

// corsMiddleware allows the configured origins. Entries may end in "*" to
// match any port or path.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	exact := make(map[string]bool)
	var prefixes []string
	for _, origin := range allowedOrigins {
		if p, ok := strings.CutSuffix(origin, "*"); ok {
			prefixes = append(prefixes, p)
		} else {
			exact[origin] = true
		}
	}

	allowed := func(origin string) bool {
		if origin == "" {
			return false
		}
		if exact[origin] {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(origin, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); allowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Response helpers

type errorResponse struct {
	Error   string           `json:"error"`
	Session *wizard.Snapshot `json:"session,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondResult writes the snapshot, or the error with the snapshot the
// session was left in.
func respondResult(w http.ResponseWriter, snap wizard.Snapshot, err error) {
	if err == nil {
		respondJSON(w, http.StatusOK, snap)
		return
	}
	respondJSON(w, statusFor(err), errorResponse{Error: err.Error(), Session: &snap})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWrongScreen),
		errors.Is(err, domain.ErrCannotStart),
		errors.Is(err, wizard.ErrSubmitInFlight):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrSubmitFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrUnknownAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
