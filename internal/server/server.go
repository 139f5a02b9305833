// package server contains middleware & handlers for the meeting scheduling API
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
	"github.com/desertthunder/huddle/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, panic recovery, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// TokenAuthenticator resolves an API bearer token to its user.
type TokenAuthenticator interface {
	GetByAPIToken(ctx context.Context, token string) (*models.User, error)
}

// CalendarLinker is the OAuth surface of services.CalendarLink.
type CalendarLinker interface {
	AuthURL(ctx context.Context, userID string) (string, error)
	HandleCallback(ctx context.Context, code, state string) (*oauth2.Token, error)
	Disconnect(ctx context.Context, user *models.User) error
	Connected(user *models.User) bool
}

// MeetingService is the owner-scoped meeting store, satisfied by [tasks.Scheduler].
type MeetingService interface {
	List(ctx context.Context, owner *models.User, filter models.MeetingFilter) ([]*models.Meeting, error)
	Get(ctx context.Context, owner *models.User, id string) (*models.Meeting, error)
	Create(ctx context.Context, owner *models.User, in tasks.MeetingInput, sync bool) (*tasks.Result, error)
	Update(ctx context.Context, owner *models.User, id string, patch tasks.MeetingPatch) (*tasks.Result, error)
	Delete(ctx context.Context, owner *models.User, id string) error
	SyncToCalendar(ctx context.Context, owner *models.User, id string) (*models.Meeting, error)
}

// EventSource reads the user's provider calendar.
type EventSource interface {
	GetEvents(ctx context.Context, user *models.User, start, end time.Time) ([]models.CalendarEvent, error)
	CheckAvailability(ctx context.Context, user *models.User, start, end time.Time) (bool, error)
}

// Deps are the collaborators of the API handlers.
type Deps struct {
	Users       TokenAuthenticator
	Link        CalendarLinker
	Meetings    MeetingService
	Events      EventSource
	Location    *time.Location   // Location for timestamps without an offset (default: UTC)
	FrontendURL string           // Base URL the OAuth callback redirects to
	Logger      *log.Logger      // Request and error logging (default: stderr)
	Now         func() time.Time // Clock for default windows (default: time.Now)
}

func (d *Deps) defaults() {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Logger == nil {
		d.Logger = shared.NewLogger(nil)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// Server runs the API with bounded timeouts and graceful shutdown.
type Server struct {
	http   *http.Server
	logger *log.Logger
}

// NewServer creates a [Server] listening on addr.
func NewServer(addr string, handler http.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      45 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
