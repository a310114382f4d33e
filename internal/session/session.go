// Package session holds the authenticated user and the bearer token that
// proves it.
package session

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/log"
	"github.com/felixgeelhaar/vedic/internal/storage"
)

// Backend is the part of the API the session needs.
type Backend interface {
	Login(ctx context.Context, username, password string) (*api.TokenResponse, error)
	Register(ctx context.Context, username, email, password string) (*api.TokenResponse, error)
	GetUser(ctx context.Context) (*api.User, error)
}

// binder is implemented by *api.Client: the store attaches itself as the
// token source and as the single listener for authentication rejections.
type binder interface {
	SetTokenSource(api.TokenSource)
	SetAuthExpiredHandler(api.AuthExpiredFunc)
}

// genericError is shown when the backend gives no reason for a failure.
const genericError = "An error occurred"

// Store is the session store. Its zero value is not usable; call New.
//
// The token is read by the API client on every request (Store satisfies
// api.TokenSource), so a token written by Login is used by the GetUser call
// that follows it.
type Store struct {
	backend Backend
	storage storage.Store
	logger  *log.Logger

	mu        sync.RWMutex
	token     string
	user      *api.User
	lastErr   string
	loading   bool
	authing   int
	listeners []func()
}

// New creates the session store and rehydrates it: when a token was persisted,
// the user is fetched with it. Any failure discards the token silently and
// leaves the store logged out. New never fails.
//
// When backend is an *api.Client, the store becomes its token source and its
// auth-expired listener.
func New(ctx context.Context, backend Backend, st storage.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	s := &Store{
		backend: backend,
		storage: st,
		logger:  logger.With("component", "session"),
		loading: true,
	}
	if b, ok := backend.(binder); ok {
		b.SetTokenSource(s)
		b.SetAuthExpiredHandler(s.HandleAuthExpired)
	}

	token, ok, err := st.Get(storage.KeyToken)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read stored token")
	}
	if ok && token != "" {
		s.setToken(token)
		user, err := backend.GetUser(ctx)
		if err != nil {
			s.logger.WithError(err).Debug("stored token rejected, starting logged out")
			s.reset()
		} else {
			s.mu.Lock()
			s.user = user
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	return s
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the authenticated user, or nil.
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a token is held.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Loading reports whether rehydration is still running. Always false once New returned.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the message of the last failed Login or Register, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Login authenticates and loads the user. It reports success; on failure the
// reason is available from Err.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	return s.authenticate(ctx, "login", func() (*api.TokenResponse, error) {
		return s.backend.Login(ctx, username, password)
	})
}

// Register creates an account, then behaves like Login.
func (s *Store) Register(ctx context.Context, username, email, password string) bool {
	return s.authenticate(ctx, "register", func() (*api.TokenResponse, error) {
		return s.backend.Register(ctx, username, email, password)
	})
}

func (s *Store) authenticate(ctx context.Context, op string, call func() (*api.TokenResponse, error)) bool {
	s.mu.Lock()
	s.lastErr = ""
	s.authing++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.authing--
		s.mu.Unlock()
	}()

	resp, err := call()
	if err != nil {
		s.fail(op, err)
		return false
	}
	if resp.AccessToken == "" {
		s.fail(op, nil)
		return false
	}

	s.setToken(resp.AccessToken)

	user, err := s.backend.GetUser(ctx)
	if err != nil {
		// token was accepted a moment ago; a failure here leaves no usable
		// session unless another login has replaced the token since
		s.resetIf(resp.AccessToken)
		s.fail(op, err)
		return false
	}

	s.mu.Lock()
	if s.token == resp.AccessToken {
		s.user = user
	}
	s.mu.Unlock()

	s.logger.Info("authenticated", "op", op, "username", user.Username)
	return true
}

func (s *Store) fail(op string, err error) {
	msg := genericError
	if err != nil {
		msg = api.Message(err, genericError)
	}
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	if err != nil {
		s.logger.WithError(err).Debug("authentication failed", "op", op)
	}
}

// Logout clears the token and the user. No network call is made.
func (s *Store) Logout() {
	s.reset()
	s.logger.Info("logged out")
}

// HandleAuthExpired is the listener registered with the API client for 401
// responses. It logs the session out and notifies subscribers, unless the
// rejection came while rehydrating or during a login or registration.
func (s *Store) HandleAuthExpired() {
	s.mu.RLock()
	announce := s.token != "" && !s.loading && s.authing == 0
	listeners := append([]func(){}, s.listeners...)
	s.mu.RUnlock()

	s.reset()
	// a stale token found while rehydrating, or rejected credentials, are
	// not an expiry
	if !announce {
		return
	}
	s.logger.Warn("session expired")
	for _, fn := range listeners {
		fn()
	}
}

// OnExpired subscribes fn to session expiry.
func (s *Store) OnExpired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) setToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if err := s.storage.Set(storage.KeyToken, token); err != nil {
		s.logger.WithError(err).Warn("failed to persist token")
	}
}

func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.token = ""
	s.user = nil
	if err := s.storage.Delete(storage.KeyToken); err != nil {
		s.logger.WithError(err).Warn("failed to delete stored token")
	}
}

// resetIf clears the session only while token is still the current one.
func (s *Store) resetIf(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token {
		s.clearLocked()
	}
}
