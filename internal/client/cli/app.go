package cli

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/Goncalofonseca86/leirisonda/internal/client/config"
	"github.com/Goncalofonseca86/leirisonda/internal/client/events"
	"github.com/Goncalofonseca86/leirisonda/internal/client/guard"
	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/notify"
	"github.com/Goncalofonseca86/leirisonda/internal/client/session"
	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/client/sync"
	"github.com/Goncalofonseca86/leirisonda/internal/client/works"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config     *config.Config
	db         *sql.DB
	device     store.KV
	tab        store.KV
	guard      *guard.Guard
	bus        *events.Bus
	remote     sync.Client
	identities *identity.Store
	session    *session.Manager
	works      *works.Service
	notifier   *notify.Notifier
	log        logging.Logger
	reader     *bufio.Reader

	// mode holds a Mode; written by the online-status watcher goroutine
	// and read from the REPL loop.
	mode atomic.Value

	lastEvent []byte
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	device, db, err := store.OpenDeviceStore(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	tab := store.NewMemoryKV()
	g := guard.New(tab, device, c.GuardWindow, log)
	bus := events.NewBus()

	var remote sync.Client
	mode := ModeDisabled
	if c.SyncEndpointURL != "" {
		remote = sync.NewHTTPClient(c.SyncEndpointURL, 3*time.Second, log)
		mode = ModeOffline
	}

	identities := identity.NewStore(device, log)
	mgr := session.NewManager(identities, tab, device, g, c.StartupDelay, rate.Limit(c.LoginRatePerSec), log)
	workSvc := works.NewService(device, remote, g, bus, log)
	notifier := notify.New(&terminalTransport{}, c.RecencyWindow, log)

	app := &App{
		config:     c,
		db:         db,
		device:     device,
		tab:        tab,
		guard:      g,
		bus:        bus,
		remote:     remote,
		identities: identities,
		session:    mgr,
		works:      workSvc,
		notifier:   notifier,
		log:        log,
		reader:     bufio.NewReader(os.Stdin),
	}
	app.mode.Store(mode)
	return app, nil
}

// CurrentMode returns the connectivity mode.
func (a *App) CurrentMode() Mode {
	return a.mode.Load().(Mode)
}

func (a *App) setMode(mode Mode) {
	if a.CurrentMode() != mode {
		a.mode.Store(mode)
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// Run restores the session, starts the background watchers, and enters the
// REPL. It blocks until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.session.Initialize(ctx)
	// seed the notifier so restored records are not announced as news
	a.notifier.Observe(ctx, a.works.List(ctx), a.session.CurrentUser())
	// likewise swallow an event payload left over from a previous run
	if raw, err := a.device.Get(ctx, store.KeyLastSyncEvent); err == nil {
		a.lastEvent = raw
	}

	if a.remote != nil {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}
	go a.StartEventWatcher(ctx, a.config.OnlineCheckInterval)

	a.Root(ctx)
}

func (a *App) Close() {
	a.session.Close()
	a.guard.Close()
	if a.remote != nil {
		_ = a.remote.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.CurrentUser() != nil
}

// StartOnlineStatusWatcher probes the sync backend on a fixed interval and
// flips the connectivity mode accordingly.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.remote.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.CurrentMode() == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.CurrentMode() != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// StartEventWatcher feeds the notifier from both event sources: the bus for
// same-process producers and the shared event key for writes made by other
// processes over the same device store.
func (a *App) StartEventWatcher(ctx context.Context, interval time.Duration) {
	sub := a.bus.Subscribe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-sub:
			a.notifier.HandleLocalEvent(ctx, ev, a.session.CurrentUser())

		case <-ticker.C:
			raw, err := a.device.Get(ctx, store.KeyLastSyncEvent)
			if err != nil || raw == nil {
				continue
			}
			if bytes.Equal(raw, a.lastEvent) {
				continue
			}
			a.lastEvent = raw
			a.notifier.HandleStorageEvent(ctx, raw, a.session.CurrentUser())

		case <-ctx.Done():
			return
		}
	}
}
