package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	ws "github.com/krshsl/sensai/backend/websocket"
)

// ServerStore is everything the HTTP surface needs from storage
type ServerStore interface {
	CoachStore
	UserStore
}

// Pinger reports database reachability for the health check
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds all server dependencies
type Server struct {
	config           *Config
	store            ServerStore
	db               Pinger
	completer        Completer
	coach            *Coach
	authService      *AuthService
	coachEndpoints   *CoachEndpoints
	userEndpoints    *UserEndpoints
	websocketHandler *WebSocketHandler
	wsHub            *ws.Hub
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{config: config}
}

// SetDatabase sets the store and the connection pool used for health checks
func (s *Server) SetDatabase(store ServerStore, db Pinger) {
	s.store = store
	s.db = db
}

// SetCompleter overrides the completion client built from config
func (s *Server) SetCompleter(completer Completer) {
	s.completer = completer
}

// InitializeServices initializes all server services. The websocket hub
// runs until ctx is done.
func (s *Server) InitializeServices(ctx context.Context) error {
	if s.store == nil {
		return errors.New("database is not configured")
	}
	if s.config.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	if s.completer == nil {
		completer, err := NewCompleter(ctx, s.config.AI)
		if err != nil {
			return fmt.Errorf("failed to create completion client: %w", err)
		}
		s.completer = completer
		slog.Info("Completion client initialized", "provider", s.config.AI.Provider, "model", s.config.AI.Model)
	}

	prompts, err := NewPromptBuilder()
	if err != nil {
		return err
	}
	extractor, err := NewExtractor()
	if err != nil {
		return err
	}

	s.coach = NewCoach(s.completer, prompts, extractor, s.store, CoachOptions{
		Model:          s.config.AI.Model,
		Timeout:        s.config.AI.Timeout,
		RepairAttempts: s.config.AI.RepairAttempts,
	})
	s.authService = NewAuthService(s.config.Auth.JWTSecret, s.config.Auth.Issuer)
	slog.Info("Authentication service initialized")

	s.wsHub = ws.NewHub()
	go s.wsHub.Run(ctx)
	s.websocketHandler = NewWebSocketHandler(s.coach, s.wsHub, s.config.WebSocket.AllowedOrigins)

	s.coachEndpoints = NewCoachEndpoints(s.coach).WithChat(s.websocketHandler)
	s.userEndpoints = NewUserEndpoints(s.store)

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	if origins := splitOrigins(s.config.CORS.AllowedOrigins); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health endpoint
	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authService.Middleware)
		s.coachEndpoints.RegisterRoutes(r)
		s.userEndpoints.RegisterRoutes(r)
	})

	return r
}

// Start serves HTTP until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	slog.Info("Server exited")
	return nil
}

// loggingMiddleware logs HTTP requests using slog
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func splitOrigins(allowedOriginsStr string) []string {
	var origins []string
	for _, origin := range strings.Split(allowedOriginsStr, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	allowedOrigins := splitOrigins(allowedOriginsStr)

	// If no allowed origins are configured, deny all requests for security
	if len(allowedOrigins) == 0 {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			slog.Info("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

type healthResponse struct {
	Status           string `json:"status"`
	Database         string `json:"database"`
	WebSocketClients int    `json:"websocketClients"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "not configured"}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			resp.Database = "down"
			resp.Status = "degraded"
		} else {
			resp.Database = "up"
		}
	}
	if s.wsHub != nil {
		resp.WebSocketClients = s.wsHub.Count()
	}

	respondJSON(w, http.StatusOK, resp)

	slog.Debug("Health check", "status", resp.Status, "database", resp.Database)
}
