package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks which users have an active session.
// Acquire is insert-if-absent: it fails with ErrSessionAlreadyActive when the
// user already holds a lease.
type Registry interface {
	Acquire(ctx context.Context, user string) (*Guard, error)
	Active(ctx context.Context, user string) (bool, error)
}

// Guard is a held registry lease. Release is idempotent and safe to defer
// right after a successful Acquire.
type Guard struct {
	user    string
	token   string
	once    sync.Once
	release func() error
}

func newGuard(user, token string, release func() error) *Guard {
	return &Guard{user: user, token: token, release: release}
}

// User returns the identity this lease belongs to.
func (g *Guard) User() string { return g.user }

// Token identifies this lease. It doubles as the session ID in logs.
func (g *Guard) Token() string { return g.token }

// Release gives the lease back. Only the first call has an effect.
func (g *Guard) Release() {
	g.once.Do(func() {
		if err := g.release(); err != nil {
			slog.Warn("releasing session lease", "user", g.user, "sessionID", g.token, "error", err)
			return
		}
		slog.Debug("session lease released", "user", g.user, "sessionID", g.token)
	})
}

// MemoryRegistry is a process-local Registry.
// Thread-safe: all methods are protected by sync.Mutex.
type MemoryRegistry struct {
	mu     sync.Mutex
	active map[string]string // user -> lease token
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{active: make(map[string]string)}
}

// Acquire takes the lease for user.
func (r *MemoryRegistry) Acquire(_ context.Context, user string) (*Guard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[user]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionAlreadyActive, user)
	}
	token := uuid.NewString()
	r.active[user] = token

	return newGuard(user, token, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.active[user] == token {
			delete(r.active, user)
		}
		return nil
	}), nil
}

// Active reports whether user holds a lease.
func (r *MemoryRegistry) Active(_ context.Context, user string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[user]
	return ok, nil
}

// Len returns the number of active leases.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
