package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
)

var _ ClientSource = (*CalendarLink)(nil)

// CalendarLink manages the per-user Google Calendar OAuth2 credential.
type CalendarLink struct {
	config     *oauth2.Config
	users      UserStore
	httpClient *http.Client
	endpoint   string
	logger     *log.Logger

	// user id -> *sync.Mutex guarding that user's stored credential
	locks sync.Map
}

// NewCalendarLink creates a [CalendarLink] from the google config section.
//
// A nil client gets the configured request timeout and a rate limited transport.
func NewCalendarLink(cfg shared.GoogleConfig, users UserStore, client *http.Client, logger *log.Logger) *CalendarLink {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	if client == nil {
		client = &http.Client{
			Timeout:   cfg.RequestTimeout(),
			Transport: NewRateLimitedTransport(http.DefaultTransport, cfg.RateLimit),
		}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &CalendarLink{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{calendar.CalendarScope},
			Endpoint:     endpoint,
		},
		users:      users,
		httpClient: client,
		endpoint:   cfg.APIEndpoint,
		logger:     shared.WithLogger(logger, "component", "calendar-link"),
	}
}

// lockUser serialises credential reads and writes for one user.
func (l *CalendarLink) lockUser(id string) func() {
	mu, _ := l.locks.LoadOrStore(id, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// clientContext makes the oauth2 package use our outbound client for token requests.
func (l *CalendarLink) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, l.httpClient)
}

// AuthURL returns the consent screen URL for userID, carried back in the state parameter.
//
// Offline access with a forced consent prompt makes Google issue a refresh token.
func (l *CalendarLink) AuthURL(ctx context.Context, userID string) (string, error) {
	if _, err := l.users.Get(ctx, userID); err != nil {
		return "", err
	}
	return l.config.AuthCodeURL(userID, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// HandleCallback exchanges code for a token and stores it on the user named by state.
func (l *CalendarLink) HandleCallback(ctx context.Context, code, state string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	token, err := l.config.Exchange(l.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}

	user, err := l.users.Get(ctx, state)
	if err != nil {
		return nil, err
	}

	unlock := l.lockUser(user.ID())
	defer unlock()
	if err := l.persist(ctx, user, token); err != nil {
		return nil, err
	}

	l.logger.Info("calendar connected", "user", user.ID())
	return token, nil
}

// Token resolves the user's usable token, refreshing and persisting it when expired.
//
// Fails with [shared.ErrNotConnected] before any provider call when nothing is stored.
// Concurrent callers for the same user wait on one refresh and then share its result.
func (l *CalendarLink) Token(ctx context.Context, user *models.User) (*oauth2.Token, error) {
	unlock := l.lockUser(user.ID())
	defer unlock()

	if !user.CalendarConnected() {
		return nil, shared.ErrNotConnected
	}

	var stored oauth2.Token
	if err := json.Unmarshal([]byte(user.CalendarToken()), &stored); err != nil {
		return nil, fmt.Errorf("%w: stored credential is unreadable: %v", shared.ErrNotConnected, err)
	}

	if stored.Valid() {
		return &stored, nil
	}

	if stored.RefreshToken == "" {
		return nil, shared.ErrExpiredNoRefresh
	}

	refreshed, err := l.config.TokenSource(l.clientContext(ctx), &stored).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh failed: %v", shared.ErrTokenExchange, err)
	}

	// separately loaded copies of one user may still refresh twice; last write wins
	if err := l.persist(ctx, user, refreshed); err != nil {
		return nil, err
	}

	l.logger.Debug("refreshed calendar token", "user", user.ID(), "expiry", refreshed.Expiry)
	return refreshed, nil
}

// ActiveClient returns a Calendar client authenticated as user.
//
// The client wraps a static token source, so each call gets its own immutable credential.
func (l *CalendarLink) ActiveClient(ctx context.Context, user *models.User) (*calendar.Service, error) {
	token, err := l.Token(ctx, user)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(l.clientContext(ctx), oauth2.StaticTokenSource(token))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if l.endpoint != "" {
		opts = append(opts, option.WithEndpoint(l.endpoint))
	}

	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return srv, nil
}

// Disconnect forgets the stored credential. Nothing is revoked at Google.
func (l *CalendarLink) Disconnect(ctx context.Context, user *models.User) error {
	unlock := l.lockUser(user.ID())
	defer unlock()

	if err := l.users.UpdateCalendarToken(ctx, user, ""); err != nil {
		return fmt.Errorf("failed to disconnect calendar: %w", err)
	}
	l.logger.Info("calendar disconnected", "user", user.ID())
	return nil
}

// Connected reports whether user has a stored credential.
func (l *CalendarLink) Connected(user *models.User) bool {
	unlock := l.lockUser(user.ID())
	defer unlock()
	return user.CalendarConnected()
}

func (l *CalendarLink) persist(ctx context.Context, user *models.User, token *oauth2.Token) error {
	blob, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := l.users.UpdateCalendarToken(ctx, user, string(blob)); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}
