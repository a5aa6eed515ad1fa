// Package guard implements the work-creation guard: a short-lived
// protective mode entered right after a work record is written. While the
// guard is active, route protection must not treat a missing session as a
// logout; the session manager gets a grace window to run its recovery
// cascade first. A successful write must never be followed by an apparent
// logout.
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

const tabFlagValue = "true"

type Guard struct {
	tab    store.KV
	device store.KV
	window time.Duration
	log    logging.Logger

	mu    sync.Mutex
	timer *time.Timer
	now   func() time.Time
}

func New(tab, device store.KV, window time.Duration, log logging.Logger) *Guard {
	return &Guard{tab: tab, device: device, window: window, log: log, now: time.Now}
}

// Activate marks the guard in both scopes and arms the auto-expiry timer.
// Re-activating while already active just refreshes the timestamp and the
// timer. Storage failures are logged, not returned: the work write already
// succeeded and must not be un-succeeded by a bookkeeping failure.
func (g *Guard) Activate(ctx context.Context) {
	if err := g.tab.Set(ctx, store.KeyGuardFlag, []byte(tabFlagValue)); err != nil {
		g.log.Warn(ctx, "guard tab flag write failed", "error", err)
	}
	ts := g.now().UTC().Format(time.RFC3339Nano)
	if err := g.device.Set(ctx, store.KeyGuardTimestamp, []byte(ts)); err != nil {
		g.log.Warn(ctx, "guard timestamp write failed", "error", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.window, func() {
		g.Clear(context.Background())
	})
	g.log.Debug(ctx, "guard activated", "window", g.window)
}

// Active reports whether the guard currently holds. Either marker counts.
// A device timestamp older than the grace window is expired; it is cleared
// lazily here so a crashed process cannot pin the guard forever. Malformed
// timestamps are treated the same way.
func (g *Guard) Active(ctx context.Context) bool {
	flag, err := g.tab.Get(ctx, store.KeyGuardFlag)
	if err != nil {
		g.log.Warn(ctx, "guard tab flag read failed", "error", err)
	}
	if string(flag) == tabFlagValue {
		return true
	}

	raw, err := g.device.Get(ctx, store.KeyGuardTimestamp)
	if err != nil {
		g.log.Warn(ctx, "guard timestamp read failed", "error", err)
		return false
	}
	if raw == nil {
		return false
	}

	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil || g.now().Sub(ts) > g.window {
		g.Clear(ctx)
		return false
	}
	return true
}

// Clear removes both markers and stops the expiry timer.
func (g *Guard) Clear(ctx context.Context) {
	if err := g.tab.Delete(ctx, store.KeyGuardFlag); err != nil {
		g.log.Warn(ctx, "guard tab flag delete failed", "error", err)
	}
	if err := g.device.Delete(ctx, store.KeyGuardTimestamp); err != nil {
		g.log.Warn(ctx, "guard timestamp delete failed", "error", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// ClearTabFlag drops only the tab marker. The dashboard calls this when it
// loads with a confirmed session, which ends the guard early in this tab
// while leaving the device timestamp for peers still recovering.
func (g *Guard) ClearTabFlag(ctx context.Context) {
	if err := g.tab.Delete(ctx, store.KeyGuardFlag); err != nil {
		g.log.Warn(ctx, "guard tab flag delete failed", "error", err)
	}
}

// Window returns the configured grace window.
func (g *Guard) Window() time.Duration {
	return g.window
}

// Close stops the expiry timer without touching the markers. Called on
// teardown so a stale callback cannot fire after the owner is gone.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
