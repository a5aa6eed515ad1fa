// Package notify decides whether a newly observed work record should be
// surfaced to the current context. It never decides how: delivery is the
// Transport's problem.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Goncalofonseca86/leirisonda/internal/client/events"
	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/models"
	"github.com/Goncalofonseca86/leirisonda/internal/common"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

// DefaultRecencyWindow bounds how old a record may be and still count as
// news worth announcing.
const DefaultRecencyWindow = 5 * time.Minute

// Notification is the payload handed to the Transport.
type Notification struct {
	Title      string
	Body       string
	WorkID     string
	ClientName string
}

// Transport delivers a notification to the user. Implementations must not
// block indefinitely.
type Transport interface {
	Notify(ctx context.Context, n Notification) error
}

// creatorNames maps well-known author ids and emails to short display
// names for the notification body.
var creatorNames = map[string]string{
	"admin_goncalo":          "Gonçalo",
	"gongonsilva@gmail.com":  "Gonçalo",
	"user_alexandre":         "Alexandre",
	"alexkamaryta@gmail.com": "Alexandre",
}

func creatorName(createdBy string) string {
	if name, ok := creatorNames[common.NormalizeEmail(createdBy)]; ok {
		return name
	}
	if name, ok := creatorNames[createdBy]; ok {
		return name
	}
	return "another user"
}

// Notifier tracks which record ids the current context has already been
// told about and announces each at most once, across every event source.
// The seen set lives in memory only: a new process starts blind and seeds
// itself from the first Observe call instead of replaying history.
type Notifier struct {
	transport Transport
	log       logging.Logger
	recency   time.Duration
	now       func() time.Time

	mu     sync.Mutex
	seen   map[string]struct{}
	seeded bool
}

// New builds a Notifier. A recency of 0 selects DefaultRecencyWindow.
func New(transport Transport, recency time.Duration, log logging.Logger) *Notifier {
	if recency <= 0 {
		recency = DefaultRecencyWindow
	}
	return &Notifier{
		transport: transport,
		log:       log,
		recency:   recency,
		now:       time.Now,
		seen:      make(map[string]struct{}),
	}
}

// Observe inspects the full record list. The first call seeds the seen set
// silently so pre-existing records are never announced as new. Later calls
// announce each unseen, recent record not authored by current.
func (n *Notifier) Observe(ctx context.Context, works []models.Work, current *identity.User) {
	n.mu.Lock()
	if !n.seeded {
		for _, w := range works {
			n.seen[w.ID] = struct{}{}
		}
		n.seeded = true
		n.mu.Unlock()
		return
	}

	cutoff := n.now().Add(-n.recency)
	var fresh []models.Work
	for _, w := range works {
		if _, ok := n.seen[w.ID]; ok {
			continue
		}
		n.seen[w.ID] = struct{}{}
		if selfAuthored(w.CreatedBy, current) || w.CreatedAt.Before(cutoff) {
			continue
		}
		fresh = append(fresh, w)
	}
	n.mu.Unlock()

	for _, w := range fresh {
		n.deliver(ctx, Notification{
			Title:      "Nova obra criada",
			Body:       fmt.Sprintf("%s criou a obra %s (%s)", creatorName(w.CreatedBy), w.WorkSheetNumber, w.ClientName),
			WorkID:     w.ID,
			ClientName: w.ClientName,
		})
	}
}

// HandleStorageEvent consumes the cross-context event key payload written
// by another process over the shared device store.
func (n *Notifier) HandleStorageEvent(ctx context.Context, raw []byte, current *identity.User) {
	if len(raw) == 0 {
		return
	}
	var ev events.WorkCreated
	if err := json.Unmarshal(raw, &ev); err != nil {
		n.log.Debug(ctx, "ignoring malformed event payload", "error", err)
		return
	}
	n.handleEvent(ctx, ev, current)
}

// HandleLocalEvent consumes a same-process creation event from the bus.
func (n *Notifier) HandleLocalEvent(ctx context.Context, ev events.WorkCreated, current *identity.User) {
	n.handleEvent(ctx, ev, current)
}

func (n *Notifier) handleEvent(ctx context.Context, ev events.WorkCreated, current *identity.User) {
	if ev.Type != events.TypeWorkCreated || ev.WorkID == "" {
		return
	}
	if selfAuthored(ev.CreatedBy, current) {
		return
	}

	n.mu.Lock()
	if _, ok := n.seen[ev.WorkID]; ok {
		n.mu.Unlock()
		return
	}
	n.seen[ev.WorkID] = struct{}{}
	n.mu.Unlock()

	n.deliver(ctx, Notification{
		Title:      "Nova obra criada",
		Body:       fmt.Sprintf("Nova obra para %s", ev.ClientName),
		WorkID:     ev.WorkID,
		ClientName: ev.ClientName,
	})
}

func (n *Notifier) deliver(ctx context.Context, note Notification) {
	if n.transport == nil {
		return
	}
	if err := n.transport.Notify(ctx, note); err != nil {
		n.log.Warn(ctx, "notification delivery failed", "work", note.WorkID, "error", err)
	}
}

// selfAuthored reports whether createdBy names the current user, matching
// either the id or the normalized email.
func selfAuthored(createdBy string, current *identity.User) bool {
	if current == nil {
		return false
	}
	if createdBy == current.ID {
		return true
	}
	return common.NormalizeEmail(createdBy) == common.NormalizeEmail(current.Email)
}
