package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/user"
)

// State is the lifecycle stage of a Session
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Loader reads the identity behind a session
type Loader interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Identity is the loaded view of the signed-in user
type Identity struct {
	UserID int64
	Email  string
	Role   string
	Plan   string
}

const reloadTimeout = 5 * time.Second

// Session holds the identity and permissions of one authenticated caller
type Session struct {
	userID int64
	loader Loader
	hub    *Hub

	mu          sync.RWMutex
	state       State
	identity    Identity
	perms       map[Permission]bool
	err         error
	unsubscribe func()
	done        chan struct{}
}

// NewSession creates an uninitialized session for a user
func NewSession(userID int64, loader Loader, hub *Hub) *Session {
	return &Session{
		userID: userID,
		loader: loader,
		hub:    hub,
		done:   make(chan struct{}),
	}
}

// Load reads the identity and starts listening for changes.
// It may be called once; later calls return the first result.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		err := s.err
		if s.state == StateClosed {
			err = fmt.Errorf("session closed")
		}
		s.mu.Unlock()
		return err
	}
	s.state = StateLoading
	s.mu.Unlock()

	err := s.refresh(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return fmt.Errorf("session closed")
	}
	if err != nil {
		s.state = StateFailed
		s.err = err
		return err
	}
	s.state = StateReady

	if s.hub != nil {
		changes, unsubscribe := s.hub.Subscribe(s.userID)
		s.unsubscribe = unsubscribe
		go s.watch(changes)
	}
	return nil
}

func (s *Session) watch(changes <-chan Change) {
	for {
		select {
		case <-s.done:
			return
		case <-changes:
			ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
			_ = s.Reload(ctx)
			cancel()
		}
	}
}

// Reload re-reads the identity of a ready session
func (s *Session) Reload(ctx context.Context) error {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state != StateReady {
		return fmt.Errorf("cannot reload session in state %s", state)
	}
	return s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) error {
	u, err := s.loader.GetByID(ctx, s.userID)
	if err != nil {
		return err
	}

	perms := make(map[Permission]bool)
	for _, p := range PermissionsFor(u.Role) {
		perms[p] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.identity = Identity{UserID: u.ID, Email: u.Email, Role: u.Role, Plan: u.PlanType}
	s.perms = perms
	return nil
}

// Close releases the hub subscription. The session cannot be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	close(s.done)
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.perms = nil
}

// State returns the lifecycle stage
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the loaded identity. ok is false unless the session is ready.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.state == StateReady
}

// Can reports whether a ready session holds a permission
func (s *Session) Can(p Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateReady && s.perms[p]
}

type sessionKey struct{}

// WithSession stores a session in ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
