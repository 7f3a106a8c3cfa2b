package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"abricot/internal/model"
	"abricot/internal/token"
	"abricot/pkg/logger"

	"go.uber.org/zap"
)

// Routes the session navigates to.
const (
	RouteDashboard = "/dashboard"
	RouteLogin     = "/auth/login"
)

var (
	// ErrUnresolved is returned while the initial profile check is pending.
	ErrUnresolved = errors.New("session not resolved yet")
	// ErrNotAuthenticated is returned when nobody is signed in.
	ErrNotAuthenticated = errors.New("not authenticated")
)

type State string

const (
	StateUnresolved    State = "unresolved"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Backend is the slice of the API client the session needs.
type Backend interface {
	Login(ctx context.Context, payload model.LoginPayload) (*model.AuthResponse, error)
	Register(ctx context.Context, payload model.RegisterPayload) (*model.AuthResponse, error)
	GetProfile(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error)
}

// Navigator moves the front end to a route after login and logout.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Snapshot is a consistent view of the session. User is indeterminate while
// IsLoading is true.
type Snapshot struct {
	User      *model.User `json:"user"`
	IsLoading bool        `json:"isLoading"`
	State     State       `json:"state"`
}

// Session holds the signed-in user. It is the only writer of the token store.
type Session struct {
	backend Backend
	tokens  token.Store
	nav     Navigator
	logger  *zap.Logger
	now     func() time.Time

	resolveMu sync.Mutex

	mu        sync.RWMutex
	state     State
	user      *model.User
	listeners []func(ctx context.Context)
}

type Option func(*Session)

func WithNavigator(nav Navigator) Option {
	return func(s *Session) { s.nav = nav }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(backend Backend, tokens token.Store, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		tokens:  tokens,
		nav:     NavigatorFunc(func(string) {}),
		logger:  zap.NewNop(),
		now:     time.Now,
		state:   StateUnresolved,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnIdentityChange registers fn to run whenever the signed-in identity changes
// (login, register, logout). It is how the query cache gets reset.
func (s *Session) OnIdentityChange(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Resolve determines the initial state from the persisted token. Only the
// first call does any work.
func (s *Session) Resolve(ctx context.Context) Snapshot {
	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()

	if snap := s.Snapshot(); !snap.IsLoading {
		return snap
	}
	log := logger.WithTrace(ctx, s.logger)

	tok, err := s.tokens.Load()
	if err != nil {
		log.Warn("Failed to read auth token", zap.Error(err))
	}
	if tok == "" {
		s.set(StateAnonymous, nil)
		return s.Snapshot()
	}

	if token.Expired(tok, s.now()) {
		log.Info("Stored token expired, signing out")
		s.clearToken(log)
		s.set(StateAnonymous, nil)
		return s.Snapshot()
	}

	user, err := s.backend.GetProfile(ctx)
	if err != nil {
		log.Info("Stored token rejected, signing out", zap.Error(err))
		s.clearToken(log)
		s.set(StateAnonymous, nil)
		return s.Snapshot()
	}
	s.set(StateAuthenticated, user)
	return s.Snapshot()
}

// Login validates the credentials, exchanges them for a token and navigates
// to the dashboard. On failure nothing changes and the backend's error is
// returned as is.
func (s *Session) Login(ctx context.Context, payload model.LoginPayload) (*model.User, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	resp, err := s.backend.Login(ctx, payload)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, resp)
}

// Register is Login for a new account.
func (s *Session) Register(ctx context.Context, payload model.RegisterPayload) (*model.User, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	resp, err := s.backend.Register(ctx, payload)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, resp)
}

// Adopt signs in with a token obtained elsewhere. The token is kept only if
// the backend accepts it.
func (s *Session) Adopt(ctx context.Context, tok string) (*model.User, error) {
	if tok == "" {
		return nil, ErrNotAuthenticated
	}
	previous, _ := s.tokens.Load()
	if err := s.tokens.Save(tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	user, err := s.backend.GetProfile(ctx)
	if err != nil {
		if restoreErr := s.tokens.Save(previous); restoreErr != nil {
			logger.WithTrace(ctx, s.logger).Warn("Failed to restore previous token", zap.Error(restoreErr))
		}
		return nil, err
	}
	s.set(StateAuthenticated, user)
	s.notify(ctx)
	s.nav.Navigate(RouteDashboard)
	return user, nil
}

func (s *Session) signIn(ctx context.Context, resp *model.AuthResponse) (*model.User, error) {
	if err := s.tokens.Save(resp.Token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	user := resp.User
	s.set(StateAuthenticated, &user)
	s.notify(ctx)

	logger.WithTrace(ctx, s.logger).Info("Signed in", zap.String("user_id", user.ID.String()))
	s.nav.Navigate(RouteDashboard)
	return &user, nil
}

// Logout forgets the token and the user, resets listeners and navigates to
// the login page. A token store failure is returned after the in-memory
// sign-out completed.
func (s *Session) Logout(ctx context.Context) error {
	err := s.tokens.Clear()
	if err != nil {
		err = fmt.Errorf("clear token: %w", err)
	}
	s.set(StateAnonymous, nil)
	s.notify(ctx)
	s.nav.Navigate(RouteLogin)
	return err
}

// UpdateProfile sends the update and replaces the held user with the result.
func (s *Session) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.RequireUser(); err != nil {
		return nil, err
	}
	user, err := s.backend.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.state == StateAuthenticated {
		s.user = user
	}
	s.mu.Unlock()
	return user, nil
}

// HoldsToken reports whether tok is the token the session signed in with.
func (s *Session) HoldsToken(tok string) bool {
	held, err := s.tokens.Load()
	if err != nil || held == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(held), []byte(tok)) == 1
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{State: s.state, IsLoading: s.state == StateUnresolved}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// RequireUser is the guard of every signed-in page.
func (s *Session) RequireUser() (*model.User, error) {
	snap := s.Snapshot()
	switch snap.State {
	case StateUnresolved:
		return nil, ErrUnresolved
	case StateAnonymous:
		return nil, ErrNotAuthenticated
	}
	return snap.User, nil
}

func (s *Session) set(state State, user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.user = user
}

func (s *Session) notify(ctx context.Context) {
	s.mu.RLock()
	listeners := append([]func(context.Context){}, s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx)
	}
}

func (s *Session) clearToken(log *zap.Logger) {
	if err := s.tokens.Clear(); err != nil {
		log.Warn("Failed to clear auth token", zap.Error(err))
	}
}
