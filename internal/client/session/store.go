// Package session owns the authenticated identity of the client: it logs
// in, registers, renews and logs out, persists the session in the local
// metadata store and tells subscribers whenever the identity changes.
//
// The credential is opaque here. Restore only checks that the persisted
// record is well formed; whether the token is still good is decided by the
// server on the next request.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/quickcollab/internal/client/client"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
	"github.com/dmitrijs2005/quickcollab/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Metadata keys of the persisted session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

const MinPasswordLength = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var ErrNotLoggedIn = errors.New("not logged in")

// API is the part of the REST client the store needs.
type API interface {
	Register(ctx context.Context, name, email, password string) (models.Session, error)
	Login(ctx context.Context, email, password string) (models.Session, error)
	Refresh(ctx context.Context) (models.Session, error)
	Logout(ctx context.Context) error
}

// Listener receives the new session, or nil after logout.
type Listener func(s *models.Session)

type Store struct {
	api  API
	repo metadata.Repository
	log  logging.Logger

	mu  sync.RWMutex
	cur *models.Session

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int

	refresh singleflight.Group
}

func New(api API, repo metadata.Repository, log logging.Logger) *Store {
	return &Store{
		api:       api,
		repo:      repo,
		log:       log.With("component", "session"),
		listeners: make(map[int]Listener),
	}
}

// Current returns a copy of the active session.
func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return models.Session{}, false
	}
	return *s.cur, true
}

// Token returns the active credential or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.Token
}

// Subscribe registers fn for identity changes and returns its cancel func.
func (s *Store) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Store) notify(sess *models.Session) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		if sess == nil {
			fn(nil)
			continue
		}
		c := *sess
		fn(&c)
	}
}

func validateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", client.ErrValidation)
	}
	return nil
}

func validateRegister(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", client.ErrValidation)
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: please enter a valid email", client.ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", client.ErrValidation, MinPasswordLength)
	}
	return nil
}

// authFailure reports an unreachable server as an authentication failure
// too; errors.Is still tells it apart through client.ErrTransport.
func authFailure(op string, err error) error {
	if errors.Is(err, client.ErrTransport) && !errors.Is(err, client.ErrAuth) {
		return fmt.Errorf("%s: %w: %w", op, client.ErrAuth, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) Login(ctx context.Context, email, password string) (models.Session, error) {
	if err := validateLogin(email, password); err != nil {
		return models.Session{}, err
	}
	sess, err := s.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return models.Session{}, authFailure("login", err)
	}
	if err := s.establish(ctx, sess); err != nil {
		return models.Session{}, err
	}
	s.log.Info(ctx, "logged in", "user_id", sess.User.ID)
	return sess, nil
}

func (s *Store) Register(ctx context.Context, name, email, password string) (models.Session, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := validateRegister(name, email, password); err != nil {
		return models.Session{}, err
	}
	sess, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		return models.Session{}, authFailure("register", err)
	}
	if err := s.establish(ctx, sess); err != nil {
		return models.Session{}, err
	}
	s.log.Info(ctx, "registered", "user_id", sess.User.ID)
	return sess, nil
}

// Refresh exchanges the active credential for a new one. When the server
// refuses, the session is dropped and a *client.SessionExpiredError is
// returned. Concurrent callers share one request.
func (s *Store) Refresh(ctx context.Context) error {
	if s.Token() == "" {
		return ErrNotLoggedIn
	}
	_, err, _ := s.refresh.Do("refresh", func() (any, error) {
		sess, err := s.api.Refresh(ctx)
		if err != nil {
			if errors.Is(err, client.ErrSessionExpired) {
				s.log.Warn(ctx, "refresh rejected, logging out", "error", err)
				s.Invalidate(ctx)
				err = client.ForcedLogout(err)
			}
			return nil, fmt.Errorf("refresh: %w", err)
		}
		return nil, s.establish(ctx, sess)
	})
	return err
}

// Renew implements client.TokenSource.
func (s *Store) Renew(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Invalidate drops the session locally without telling the server.
func (s *Store) Invalidate(ctx context.Context) {
	if err := s.clear(ctx); err != nil {
		s.log.Error(ctx, "clear persisted session", "error", err)
	}
}

// Logout revokes the credential on the server when possible and always
// clears local state. Calling it again is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	if s.Token() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.log.Warn(ctx, "server logout failed", "error", err)
		}
	}
	return s.clear(ctx)
}

// Restore loads a persisted session. Missing or malformed records leave
// the store logged out; only storage failures are returned.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.repo.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	userRaw, err := s.repo.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if token == nil && userRaw == nil {
		return nil
	}

	sess, err := decodeSession(token, userRaw)
	if err != nil {
		s.log.Warn(ctx, "discarding persisted session", "error", err)
		if err := s.repo.Delete(ctx, KeyToken, KeyUser); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.cur = &sess
	s.mu.Unlock()
	s.notify(&sess)
	s.log.Info(ctx, "session restored", "user_id", sess.User.ID)
	return nil
}

var errMalformed = errors.New("malformed session")

func decodeSession(token, userRaw []byte) (models.Session, error) {
	tok := string(token)
	if !validToken(tok) {
		return models.Session{}, fmt.Errorf("%w: bad token", errMalformed)
	}
	var u models.User
	if err := sonic.ConfigStd.Unmarshal(userRaw, &u); err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if u.ID == "" || u.Email == "" {
		return models.Session{}, fmt.Errorf("%w: incomplete user", errMalformed)
	}
	return models.Session{User: u, Token: tok}, nil
}

func validToken(tok string) bool {
	if tok == "" {
		return false
	}
	return strings.IndexFunc(tok, unicode.IsSpace) < 0
}

func (s *Store) establish(ctx context.Context, sess models.Session) error {
	if !validToken(sess.Token) || sess.User.ID == "" {
		return fmt.Errorf("%w: server returned an incomplete session", client.ErrServer)
	}
	userRaw, err := sonic.ConfigStd.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.repo.SetMany(ctx, map[string][]byte{
		KeyToken: []byte(sess.Token),
		KeyUser:  userRaw,
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.cur = &sess
	s.mu.Unlock()
	s.notify(&sess)
	return nil
}

func (s *Store) clear(ctx context.Context) error {
	s.mu.Lock()
	had := s.cur != nil
	s.cur = nil
	s.mu.Unlock()

	err := s.repo.Delete(ctx, KeyToken, KeyUser)
	if had {
		s.notify(nil)
		s.log.Info(ctx, "logged out")
	}
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
