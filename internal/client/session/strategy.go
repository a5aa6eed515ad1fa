package session

import (
	"context"
	"encoding/json"

	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/common"
)

// recoveryStrategy is one source the startup cascade may pull a session
// from. Strategies are evaluated in order with early exit, so the slice
// below is the trust ranking.
type recoveryStrategy struct {
	name    string
	recover func(ctx context.Context) *identity.User
}

// recoveryStrategies returns the cascade in priority order:
//
//  1. primary device-durable slot
//  2. last-used-identity marker, resolved against built-ins only
//  3. guard-gated sources, consulted only right after a work creation:
//     tab mirror, then any per-identity backup (first hit wins, no recency
//     ordering), then the last-used marker once more as a final net.
func (m *Manager) recoveryStrategies(underGuard bool) []recoveryStrategy {
	strategies := []recoveryStrategy{
		{name: "primary_slot", recover: m.recoverFromPrimarySlot},
		{name: "last_user", recover: m.recoverFromLastUser},
	}
	if underGuard {
		strategies = append(strategies,
			recoveryStrategy{name: "guard_tab_mirror", recover: m.recoverFromTabMirror},
			recoveryStrategy{name: "guard_backup_slot", recover: m.recoverFromBackupSlots},
			recoveryStrategy{name: "guard_last_user", recover: m.recoverFromLastUser},
		)
	}
	return strategies
}

func (m *Manager) recoverFromPrimarySlot(ctx context.Context) *identity.User {
	return m.parseSlot(ctx, m.device, store.KeyPrimarySession)
}

func (m *Manager) recoverFromTabMirror(ctx context.Context) *identity.User {
	return m.parseSlot(ctx, m.tab, store.KeyTabSession)
}

// recoverFromLastUser resolves the last-used marker against the built-in
// table only. Dynamic identities are deliberately excluded: the marker
// carries no proof beyond an email, and built-ins are the only identities
// guaranteed to exist on every device.
func (m *Manager) recoverFromLastUser(ctx context.Context) *identity.User {
	raw, err := m.device.Get(ctx, store.KeyLastUser)
	if err != nil {
		m.log.Warn(ctx, "last-user marker read failed", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	b, ok := identity.BuiltinByEmail(common.NormalizeEmail(string(raw)))
	if !ok {
		return nil
	}
	u := b.User
	u.CreatedAt = m.now()
	return &u
}

// recoverFromBackupSlots scans the per-identity backups and takes the first
// parseable one. Enumeration order is whatever the store yields; when
// several backups exist there is no freshest-wins ranking. That matches the
// behavior peers have relied on since the redundant slots were introduced.
func (m *Manager) recoverFromBackupSlots(ctx context.Context) *identity.User {
	keys, err := m.device.Keys(ctx, store.BackupKeyPrefix)
	if err != nil {
		m.log.Warn(ctx, "backup slot scan failed", "error", err)
		return nil
	}
	for _, key := range keys {
		if u := m.parseSlot(ctx, m.device, key); u.Valid() {
			return u
		}
	}
	return nil
}

// parseSlot reads and decodes one session slot. Any failure, including a
// snapshot without email or name, degrades to nil.
func (m *Manager) parseSlot(ctx context.Context, kv store.KV, key string) *identity.User {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		m.log.Warn(ctx, "session slot read failed", "key", key, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var u identity.User
	if err := json.Unmarshal(raw, &u); err != nil {
		m.log.Warn(ctx, "session slot malformed", "key", key, "error", err)
		return nil
	}
	if !u.Valid() {
		return nil
	}
	return &u
}
