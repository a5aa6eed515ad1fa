// Package session establishes, persists and recovers the current user.
//
// The current identity is mirrored into several storage slots: a primary
// device-durable slot, a tab-durable slot, a per-identity device-durable
// backup, and a last-used-identity marker. Recovery at startup walks an
// ordered cascade of those sources and stops at the first success; every
// read is forgiving, so corrupt or missing entries degrade to "not found"
// instead of failing initialization.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Goncalofonseca86/leirisonda/internal/client/guard"
	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/common"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

// State is the snapshot consumed by route protection: IsInitialized, not
// the presence of a user, is what ends the surrounding loading state.
type State struct {
	User          *identity.User
	IsLoading     bool
	IsInitialized bool
}

type Manager struct {
	creds        *identity.Store
	tab          store.KV
	device       store.KV
	guard        *guard.Guard
	log          logging.Logger
	startupDelay time.Duration
	limiter      *rate.Limiter

	mu            sync.Mutex
	user          *identity.User
	isLoading     bool
	isInitialized bool

	initOnce     sync.Once
	cleanupTimer *time.Timer
	now          func() time.Time
}

// NewManager wires the session manager. loginRate bounds login attempts
// (brute-force damping); zero or negative disables throttling.
func NewManager(creds *identity.Store, tab, device store.KV, g *guard.Guard, startupDelay time.Duration, loginRate rate.Limit, log logging.Logger) *Manager {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if loginRate > 0 {
		limiter = rate.NewLimiter(loginRate, 3)
	}
	return &Manager{
		creds:        creds,
		tab:          tab,
		device:       device,
		guard:        g,
		log:          log,
		startupDelay: startupDelay,
		limiter:      limiter,
		now:          time.Now,
	}
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{User: m.user, IsLoading: m.isLoading, IsInitialized: m.isInitialized}
}

// CurrentUser returns the authenticated identity, or nil.
func (m *Manager) CurrentUser() *identity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Initialize runs once per process lifetime. It waits a short startup
// delay, ensures the built-in identities, then walks the recovery cascade.
// Total recovery failure leaves the session anonymous; it is not an error.
// IsInitialized is always set on the way out.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		defer func() {
			m.mu.Lock()
			m.isInitialized = true
			m.mu.Unlock()
		}()

		if m.startupDelay > 0 {
			select {
			case <-time.After(m.startupDelay):
			case <-ctx.Done():
				return
			}
		}

		m.creds.EnsureBuiltins(ctx)

		underGuard := m.guard.Active(ctx)
		for _, s := range m.recoveryStrategies(underGuard) {
			u := s.recover(ctx)
			if !u.Valid() {
				continue
			}
			m.log.Info(ctx, "session recovered", "source", s.name, "email", u.Email)
			m.establish(ctx, u)
			if underGuard {
				m.scheduleGuardCleanup()
			}
			return
		}
		m.log.Info(ctx, "no session recovered", "under_guard", underGuard)
	})
}

// Login authenticates and establishes a session. The result does not
// distinguish an unknown email from a wrong password; that asymmetry would
// leak which emails are registered. No slot is written on failure.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	if err := m.limiter.Wait(ctx); err != nil {
		return false
	}

	m.mu.Lock()
	m.isLoading = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.isLoading = false
		m.mu.Unlock()
	}()

	u, err := m.creds.ResolveIdentity(ctx, email)
	if err != nil || u == nil {
		m.log.Info(ctx, "login failed", "email", common.NormalizeEmail(email))
		return false
	}
	if !m.creds.VerifyCredential(ctx, u, password) {
		m.log.Info(ctx, "login failed", "email", common.NormalizeEmail(email))
		return false
	}

	m.establish(ctx, u)
	m.log.Info(ctx, "login ok", "email", u.Email, "role", u.Role)
	return true
}

// Logout clears only the primary device slot. The tab mirror, per-identity
// backups and last-used marker survive deliberately so recovery still works
// after an accidental or crash-driven logout.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.device.Delete(ctx, store.KeyPrimarySession); err != nil {
		m.log.Warn(ctx, "primary session delete failed", "error", err)
	}
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	m.log.Info(ctx, "logout")
}

// ListAllIdentities returns built-ins first (credential-free), then dynamic
// identities, de-duplicated by normalized email.
func (m *Manager) ListAllIdentities(ctx context.Context) []identity.User {
	return m.creds.ListAll(ctx)
}

// establish sets the in-memory session and writes through every mirror
// slot. The write-through doubles as self-healing after recovery: whichever
// source produced the user, all slots agree afterwards.
func (m *Manager) establish(ctx context.Context, u *identity.User) {
	raw, err := json.Marshal(u)
	if err != nil {
		m.log.Error(ctx, "session marshal failed", "error", err)
		return
	}

	pairs := map[string][]byte{
		store.KeyPrimarySession:   raw,
		store.BackupKey(u.ID):     raw,
		store.KeyLastUser:         []byte(u.Email),
		store.KeySessionTimestamp: []byte(m.now().UTC().Format(time.RFC3339Nano)),
	}
	if err := m.device.SetMany(ctx, pairs); err != nil {
		m.log.Warn(ctx, "session device write failed", "error", err)
	}
	if err := m.tab.Set(ctx, store.KeyTabSession, raw); err != nil {
		m.log.Warn(ctx, "session tab write failed", "error", err)
	}

	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}

// scheduleGuardCleanup clears the guard markers once its grace window has
// passed. Recovery already succeeded at this point; the window only has to
// outlive route protection's next look at the guard.
func (m *Manager) scheduleGuardCleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cleanupTimer != nil {
		m.cleanupTimer.Stop()
	}
	m.cleanupTimer = time.AfterFunc(m.guard.Window(), func() {
		m.guard.Clear(context.Background())
	})
}

// Close cancels pending timers. Must be called on teardown so no stale
// callback mutates storage after the owner is gone.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cleanupTimer != nil {
		m.cleanupTimer.Stop()
		m.cleanupTimer = nil
	}
}
