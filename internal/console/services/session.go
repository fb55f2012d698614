// Package services contains the application services of the console.
// This file defines the session manager: hydration of the persisted token,
// login/logout, and the membership refetch for regular users.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"github.com/dmitrijs2005/tradeconsole/internal/console/client"
	"github.com/dmitrijs2005/tradeconsole/internal/console/metrics"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/console/repositories/credentials"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned by Token while no bearer token is held.
var ErrNoToken = errors.New("no session token")

// SessionManager owns the process-wide authentication state.
//
// Lifecycle: NewSessionManager, then Hydrate once (usually in its own
// goroutine), then Close. It is safe for concurrent use. Gateway and store
// calls are made without holding the state lock.
//
// Every login and logout bumps a generation counter. Asynchronous results
// (hydration, membership refetch) captured under an older generation are
// dropped, so a user login that races hydration always wins.
type SessionManager struct {
	client  client.Client
	store   credentials.Store
	log     logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu          sync.Mutex
	state       models.Session
	generation  uint64
	closed      bool
	lastTrigger refetchTrigger
	closeHooks  []func()

	// persistMu orders store writes so a stale write never lands after a
	// newer one.
	persistMu sync.Mutex

	hydrateOnce sync.Once
	ready       chan struct{}

	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

type refetchTrigger struct {
	authenticated bool
	token         string
	role          models.Role
}

type Option func(*SessionManager)

func WithLogger(l logging.Logger) Option {
	return func(s *SessionManager) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SessionManager) { s.metrics = m }
}

// WithClock overrides the time source used by the token expiry precheck.
func WithClock(now func() time.Time) Option {
	return func(s *SessionManager) { s.now = now }
}

func NewSessionManager(c client.Client, store credentials.Store, opts ...Option) *SessionManager {
	bgCtx, cancel := context.WithCancel(context.Background())
	s := &SessionManager{
		client:   c,
		store:    store,
		log:      logging.Nop(),
		now:      time.Now,
		state:    models.Session{Hydrating: true, Memberships: models.Memberships{State: models.FetchIdle}},
		ready:    make(chan struct{}),
		bgCtx:    bgCtx,
		bgCancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate restores the session from the credential store and validates the
// token with the gateway. Only the first call does any work; later calls
// return immediately. Failures are logged and leave the session signed out.
func (s *SessionManager) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		defer close(s.ready)
		s.hydrate(ctx)
	})
}

func (s *SessionManager) hydrate(ctx context.Context) {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	creds, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn(ctx, "failed to load stored credentials", "error", err)
		s.hydrationFailed(ctx, gen, err)
		return
	}

	if creds.Empty() {
		s.mu.Lock()
		if !s.closed {
			s.state.Hydrating = false
		}
		s.mu.Unlock()
		s.metrics.ObserveHydration("empty")
		return
	}

	// The token must be visible to the gateway's token source before the
	// identity check.
	s.mu.Lock()
	if gen == s.generation && !s.closed {
		s.state.Token = creds.Token
	}
	s.mu.Unlock()

	var profile *models.UserProfile
	if tokenExpired(creds.Token, s.now()) {
		err = common.ErrTokenExpired
	} else {
		profile, err = s.client.Me(ctx)
	}
	if err != nil {
		s.log.Warn(ctx, "token validation failed", "error", err)
		s.hydrationFailed(ctx, gen, err)
		return
	}

	s.mu.Lock()
	if s.closed || gen != s.generation {
		if !s.closed {
			s.state.Hydrating = false
		}
		s.mu.Unlock()
		s.metrics.ObserveHydration("dropped")
		return
	}
	p := profile.Clone()
	p.Memberships = nil
	s.state.Profile = p
	s.state.Role = p.Role
	s.state.Authenticated = true
	s.state.Hydrating = false
	s.mu.Unlock()

	s.metrics.ObserveHydration("ok")
	s.log.Info(ctx, "session restored", "email", p.Email, "role", p.Role)

	s.persist(gen, func() {
		if err := s.store.Save(ctx, models.Credentials{Token: creds.Token, Role: p.Role}); err != nil {
			s.log.Warn(ctx, "failed to persist role", "error", err)
		}
	})
	s.evaluateTrigger()
}

func (s *SessionManager) hydrationFailed(ctx context.Context, gen uint64, cause error) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		if !s.closed {
			s.state.Hydrating = false
		}
		s.mu.Unlock()
		s.metrics.ObserveHydration("dropped")
		return
	}
	s.resetLocked()
	gen = s.generation
	s.mu.Unlock()

	s.metrics.ObserveHydration("cleared")
	s.persist(gen, func() {
		if err := s.store.Clear(ctx); err != nil {
			s.log.Warn(ctx, "failed to clear stored credentials", "error", err, "cause", cause)
		}
	})
	s.evaluateTrigger()
}

// Login records a successful authentication. An empty token keeps the
// current one; a nil profile keeps the current profile and role. Storage
// failures are logged and otherwise ignored. Without a token to keep, an
// empty token is ignored and the session stays signed out.
func (s *SessionManager) Login(ctx context.Context, token string, profile *models.UserProfile) {
	s.mu.Lock()
	if token == "" && s.state.Token == "" {
		s.mu.Unlock()
		s.log.Warn(ctx, "login without token ignored")
		return
	}
	s.generation++
	gen := s.generation
	if token != "" {
		s.state.Token = token
	}
	if profile != nil {
		s.state.Profile = profile.Clone()
		s.state.Role = profile.Role
	}
	s.state.Authenticated = true
	s.state.Hydrating = false
	s.state.DialogOpen = false
	s.state.Memberships = models.Memberships{State: models.FetchIdle}
	creds := models.Credentials{Token: s.state.Token, Role: s.state.Role}
	hooks := append([]func(){}, s.closeHooks...)
	s.mu.Unlock()

	if creds.Token != "" {
		s.persist(gen, func() {
			if err := s.store.Save(ctx, creds); err != nil {
				s.log.Warn(ctx, "failed to persist credentials", "error", err)
			}
		})
	}

	for _, fn := range hooks {
		fn()
	}

	s.log.Info(ctx, "logged in", "role", creds.Role)
	s.evaluateTrigger()
}

// Logout clears the session and both persisted entries. Calling it on a
// signed-out session is harmless.
func (s *SessionManager) Logout(ctx context.Context) {
	s.mu.Lock()
	s.resetLocked()
	gen := s.generation
	s.mu.Unlock()

	s.persist(gen, func() {
		if err := s.store.Clear(ctx); err != nil {
			s.log.Warn(ctx, "failed to clear stored credentials", "error", err)
		}
	})
	s.evaluateTrigger()
}

func (s *SessionManager) resetLocked() {
	s.generation++
	s.state.Token = ""
	s.state.Authenticated = false
	s.state.Hydrating = false
	s.state.Profile = nil
	s.state.Role = models.RoleNone
	s.state.Memberships = models.Memberships{State: models.FetchIdle}
}

// RefetchMemberships reloads the active plan names of a signed-in regular
// user. It is a no-op for admins and signed-out sessions. A 401 from the
// gateway signs the session out.
func (s *SessionManager) RefetchMemberships(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.Authenticated || s.state.Token == "" || s.state.Role != models.RoleUser {
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	s.state.Memberships.State = models.FetchPending
	s.state.Memberships.Err = ""
	s.mu.Unlock()

	ms, err := s.client.Memberships(ctx)

	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.state.Memberships = models.Memberships{State: models.FetchFailed, Err: client.Message(err, err.Error())}
		s.mu.Unlock()

		s.log.Warn(ctx, "failed to fetch memberships", "error", err)
		if errors.Is(err, client.ErrUnauthorized) {
			s.logoutIfCurrent(ctx, gen)
		}
		return err
	}

	plans := models.ActivePlanNames(ms)
	if s.state.Profile == nil {
		s.state.Profile = &models.UserProfile{Role: models.RoleUser}
	}
	s.state.Profile.Memberships = plans
	s.state.Memberships = models.Memberships{State: models.FetchResolved, Plans: append([]string(nil), plans...)}
	s.mu.Unlock()

	s.log.Debug(ctx, "memberships refreshed", "active", len(plans))
	return nil
}

func (s *SessionManager) logoutIfCurrent(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.Logout(ctx)
}

// evaluateTrigger starts a background refetch when (authenticated, token,
// role) has just become a signed-in regular user.
func (s *SessionManager) evaluateTrigger() {
	s.mu.Lock()
	cur := refetchTrigger{authenticated: s.state.Authenticated, token: s.state.Token, role: s.state.Role}
	changed := cur != s.lastTrigger
	s.lastTrigger = cur
	start := changed && !s.closed && cur.authenticated && cur.token != "" && cur.role == models.RoleUser
	if start {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if !start {
		return
	}
	go func() {
		defer s.wg.Done()
		_ = s.RefetchMemberships(s.bgCtx)
	}()
}

// persist runs write unless a newer login or logout superseded gen.
func (s *SessionManager) persist(gen uint64, write func()) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		return
	}
	write()
}

// Snapshot returns a copy of the current session.
func (s *SessionManager) Snapshot() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state
	snap.Profile = s.state.Profile.Clone()
	if s.state.Memberships.Plans != nil {
		snap.Memberships.Plans = append([]string(nil), s.state.Memberships.Plans...)
	}
	return snap
}

// Ready is closed once hydration has finished.
func (s *SessionManager) Ready() <-chan struct{} {
	return s.ready
}

// Token implements oauth2.TokenSource for the gateway client.
func (s *SessionManager) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	tok := s.state.Token
	s.mu.Unlock()

	if tok == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

func (s *SessionManager) SetDialogOpen(open bool) {
	s.mu.Lock()
	s.state.DialogOpen = open
	s.mu.Unlock()
}

func (s *SessionManager) DialogOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DialogOpen
}

// OnDialogClose registers fn to run after every Login, which dismisses the
// credential dialog.
func (s *SessionManager) OnDialogClose(fn func()) {
	s.mu.Lock()
	s.closeHooks = append(s.closeHooks, fn)
	s.mu.Unlock()
}

// Close stops background work and waits for it. Results that arrive later
// are discarded.
func (s *SessionManager) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.bgCancel()
	s.wg.Wait()
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are left to the gateway.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
