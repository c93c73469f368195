// Package session holds the process-wide authentication state: the current
// user and token, their lifecycle, and the subscribers gating protected
// views on it.
//
// A Store moves between three states:
//
//	Unknown ──Load──▶ Authenticated | Anonymous
//	Anonymous ──Login──▶ Authenticated
//	Authenticated ──Logout / Expire (any 401)──▶ Anonymous
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marshallshelly/gmbctl/pkg/models"
	"go.uber.org/zap"
)

// State is the authentication state of a Store.
type State int

const (
	// Unknown is the initial state while a persisted token is checked.
	Unknown State = iota
	// Authenticated means a user and a token are present.
	Authenticated
	// Anonymous means there is no usable token.
	Anonymous
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotAuthenticated is returned by operations that need a session.
var ErrNotAuthenticated = errors.New("not logged in")

// Authenticator is the subset of the auth API the store drives.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.Token, error)
	Me(ctx context.Context) (*models.User, error)
}

// Snapshot is a consistent view of the store.
type Snapshot struct {
	State State
	User  *models.User
	Token string
	// ExpiresAt is the token's exp claim when it carries one.
	ExpiresAt time.Time
}

// Store owns the session. Create one per process with New and inject it
// wherever the session is needed. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	state  State
	user   *models.User
	token  string
	tokens TokenStore

	subs    map[int]func(Snapshot)
	nextSub int

	onLoginRequired func()
	logger          *zap.SugaredLogger
	now             func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) { s.logger = l }
}

// WithLoginRequired sets the navigation hook run once when an authenticated
// session is expired by the server.
func WithLoginRequired(fn func()) Option {
	return func(s *Store) { s.onLoginRequired = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a store in the Unknown state.
func New(tokens TokenStore, opts ...Option) *Store {
	s := &Store{
		state:  Unknown,
		tokens: tokens,
		subs:   make(map[int]func(Snapshot)),
		logger: zap.NewNop().Sugar(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the current token, or "". It satisfies apiclient.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the current state, user and token.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Token: s.token}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if exp, ok := TokenExpiry(s.token); ok {
		snap.ExpiresAt = exp
	}
	return snap
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn runs on the goroutine that caused the change and must not
// block.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Load resolves the Unknown state at start-up. Without a persisted token the
// session is Anonymous. With one, the current user is fetched; any failure
// discards the token and leaves the session Anonymous.
func (s *Store) Load(ctx context.Context, auth Authenticator) error {
	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warnw("failed to read persisted token", "error", err)
	}
	if token == "" {
		s.transition(Anonymous, nil, "")
		return nil
	}

	if exp, ok := TokenExpiry(token); ok && !exp.After(s.now()) {
		s.logger.Infow("persisted token expired", "expired_at", exp)
		s.discard()
		s.transition(Anonymous, nil, "")
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	user, err := auth.Me(ctx)
	if err != nil {
		s.logger.Infow("persisted token rejected", "error", err)
		s.discard()
		s.transition(Anonymous, nil, "")
		return nil
	}

	s.transition(Authenticated, user, token)
	return nil
}

// Login exchanges credentials for a token, fetches the user and persists the
// token. On failure the session is Anonymous and nothing is persisted.
func (s *Store) Login(ctx context.Context, auth Authenticator, username, password string) error {
	token, err := auth.Login(ctx, username, password)
	if err != nil {
		s.transition(Anonymous, nil, "")
		return fmt.Errorf("login failed: %w", err)
	}

	s.mu.Lock()
	s.token = token.AccessToken
	s.mu.Unlock()

	user, err := auth.Me(ctx)
	if err != nil {
		s.transition(Anonymous, nil, "")
		return fmt.Errorf("failed to fetch current user: %w", err)
	}

	if err := s.tokens.Save(token.AccessToken); err != nil {
		s.logger.Warnw("failed to persist token", "error", err)
	}
	s.transition(Authenticated, user, token.AccessToken)
	return nil
}

// Logout ends the session at the user's request.
func (s *Store) Logout() error {
	err := s.tokens.Clear()
	s.transition(Anonymous, nil, "")
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Expire ends the session because the server rejected the token. It is safe
// to call from many in-flight requests at once: the login hook fires only for
// the call that actually ends an authenticated session.
func (s *Store) Expire() {
	s.discard()
	if changed, prev := s.transition(Anonymous, nil, ""); changed && prev == Authenticated {
		s.logger.Infow("session expired by server")
		if s.onLoginRequired != nil {
			s.onLoginRequired()
		}
	}
}

func (s *Store) discard() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warnw("failed to clear persisted token", "error", err)
	}
}

// transition applies a state change and notifies subscribers when anything
// changed. It reports whether it did and the state it left.
func (s *Store) transition(state State, user *models.User, token string) (changed bool, prev State) {
	s.mu.Lock()
	prev = s.state
	changed = prev != state || s.token != token || !sameUser(s.user, user)
	s.state = state
	s.user = user
	s.token = token
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(snap)
		}
	}
	return changed, prev
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
