package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Session is the authoritative in-memory authentication snapshot.
//
// Invariant: IsAuthenticated implies Tokens != nil. User is optional
// enrichment; a nil User does not mean unauthenticated, since the profile
// fetch may fail independently of token validity.
type Session struct {
	Tokens          *TokenPair
	User            *UserProfile
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Controller owns the session state and orchestrates the four
// authentication transitions: startup restore, login, logout, and refresh.
// Operations are serialized by a mutex so at most one transition is in
// flight at a time; overlapping calls queue rather than race on the store.
type Controller struct {
	service *Service
	store   TokenStore
	log     zerolog.Logger

	opMu sync.Mutex // serializes Restore/Login/Logout/RefreshAccessToken

	stateMu sync.RWMutex
	state   Session

	subMu   sync.Mutex
	subs    map[int]func(Session)
	nextSub int
}

// NewController creates a session controller. The initial state is loading:
// callers are expected to run Restore once at startup, which resolves it.
func NewController(service *Service, store TokenStore, log zerolog.Logger) *Controller {
	return &Controller{
		service: service,
		store:   store,
		log:     log,
		state:   Session{IsLoading: true},
		subs:    make(map[int]func(Session)),
	}
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Session {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	s := c.state
	if s.Tokens != nil {
		t := *s.Tokens
		s.Tokens = &t
	}
	return s
}

// Subscribe registers fn to observe session changes. It is invoked
// immediately with the current state and again after every transition.
// Subscribers are display-side consumers and must not invoke controller
// operations from within the callback.
func (c *Controller) Subscribe(fn func(Session)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	fn(c.Snapshot())

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) setState(s Session) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()

	c.subMu.Lock()
	fns := make([]func(Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Restore reconstructs the session from persisted tokens. It runs once at
// startup: stored tokens are verified against the server, refreshed if the
// access token has expired, and discarded if the refresh token is dead too.
// Every branch resolves IsLoading to false; an expired session is an
// expected signed-out outcome, not a surfaced error.
func (c *Controller) Restore(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	tokens, err := c.store.Get(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to read stored tokens")
		c.setState(Session{Error: "Failed to load authentication state"})
		return
	}
	if tokens == nil {
		c.setState(Session{})
		return
	}

	if err := c.service.Verify(ctx, tokens.Access); err == nil {
		c.setState(Session{
			Tokens:          tokens,
			User:            c.fetchProfile(ctx),
			IsAuthenticated: true,
		})
		return
	}

	// Access token presumed expired; try the refresh token.
	result, err := c.service.RefreshToken(ctx, tokens.Refresh)
	if err != nil {
		c.log.Debug().Err(err).Msg("stored session could not be refreshed, signing out")
		c.clearStore(ctx)
		c.setState(Session{})
		return
	}

	updated := result.Apply(*tokens)
	if err := c.store.Set(ctx, updated); err != nil {
		c.log.Error().Err(err).Msg("failed to persist refreshed tokens")
		c.clearStore(ctx)
		c.setState(Session{})
		return
	}

	c.setState(Session{
		Tokens:          &updated,
		User:            c.fetchProfile(ctx),
		IsAuthenticated: true,
	})
}

// Login authenticates with the given credentials. Failures are both
// recorded in Session.Error and returned, so the caller can display them.
func (c *Controller) Login(ctx context.Context, creds Credentials) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	s := c.Snapshot()
	s.IsLoading = true
	s.Error = ""
	c.setState(s)

	tokens, err := c.service.Login(ctx, creds)
	if err != nil {
		s = c.Snapshot()
		s.IsLoading = false
		s.Error = err.Error()
		c.setState(s)
		return err
	}

	if err := c.store.Set(ctx, *tokens); err != nil {
		c.log.Error().Err(err).Msg("failed to persist tokens after login")
		s = c.Snapshot()
		s.IsLoading = false
		s.Error = err.Error()
		c.setState(s)
		return err
	}

	c.setState(Session{
		Tokens:          tokens,
		User:            c.fetchProfile(ctx),
		IsAuthenticated: true,
	})
	return nil
}

// Logout clears the stored tokens and resets the session. The in-memory
// sign-out always takes effect: a storage failure is recorded in
// Session.Error but never leaves the session authenticated.
func (c *Controller) Logout(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.logoutLocked(ctx)
}

func (c *Controller) logoutLocked(ctx context.Context) {
	s := c.Snapshot()
	s.IsLoading = true
	c.setState(s)

	next := Session{}
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error().Err(err).Msg("failed to clear stored tokens on logout")
		next.Error = "Logout failed"
	}
	c.setState(next)
}

// RefreshAccessToken exchanges the held refresh token for a new access
// token. It returns false without any network call when no refresh token is
// held. A failed refresh terminates the session via logout.
func (c *Controller) RefreshAccessToken(ctx context.Context) bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	s := c.Snapshot()
	if s.Tokens == nil || s.Tokens.Refresh == "" {
		return false
	}

	result, err := c.service.RefreshToken(ctx, s.Tokens.Refresh)
	if err != nil {
		c.log.Debug().Err(err).Msg("refresh failed, signing out")
		c.logoutLocked(ctx)
		return false
	}

	updated := result.Apply(*s.Tokens)
	if err := c.store.Set(ctx, updated); err != nil {
		c.log.Error().Err(err).Msg("failed to persist refreshed tokens")
		c.logoutLocked(ctx)
		return false
	}

	c.setState(Session{
		Tokens:          &updated,
		User:            c.fetchProfile(ctx),
		IsAuthenticated: true,
	})
	return true
}

// fetchProfile is best-effort: token validity alone gates authentication,
// so a flaky profile endpoint never locks a verified user out.
func (c *Controller) fetchProfile(ctx context.Context) *UserProfile {
	user, err := c.service.CurrentUser(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("profile fetch failed, continuing without user")
		return nil
	}
	return user
}

func (c *Controller) clearStore(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error().Err(err).Msg("failed to clear stored tokens")
	}
}

// TokenExpiry reports the expiry recorded in the access token's exp claim.
// The token is not validated; this is a local hint for display and refresh
// scheduling, not an authorization decision.
func TokenExpiry(accessToken string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("access token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}

// TokenSource exposes the session as an oauth2.TokenSource so it can plug
// into oauth2-aware HTTP stacks.
func (c *Controller) TokenSource() oauth2.TokenSource {
	return &sessionTokenSource{c: c}
}

type sessionTokenSource struct {
	c *Controller
}

func (ts *sessionTokenSource) Token() (*oauth2.Token, error) {
	s := ts.c.Snapshot()
	if s.Tokens == nil {
		return nil, ErrAuthRequired
	}

	tok := &oauth2.Token{
		AccessToken:  s.Tokens.Access,
		RefreshToken: s.Tokens.Refresh,
		TokenType:    "Bearer",
	}
	if exp, err := TokenExpiry(s.Tokens.Access); err == nil {
		tok.Expiry = exp
	}
	return tok, nil
}
