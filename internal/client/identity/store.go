package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/common"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

// Store is the credential store: it resolves identities against the
// built-in table and the dynamic table kept in the device store, and it
// owns the redundant credential keys.
//
// Credentials are written under several keys derived from the identity
// (id, raw email, normalized email). The device store has proven lossy
// across contexts, so a read succeeds if any one key survives, and every
// successful read repairs the others. There is no server-side source of
// truth to fall back on; redundancy is the compensation, not an
// optimization.
type Store struct {
	device store.KV
	log    logging.Logger
	now    func() time.Time
}

func NewStore(device store.KV, log logging.Logger) *Store {
	return &Store{device: device, log: log, now: time.Now}
}

// credentialFacets returns the distinct facets an identity's password is
// keyed under. Raw and normalized email often coincide; duplicates are
// dropped so each key is written once.
func credentialFacets(u *User) []string {
	candidates := []string{
		u.ID,
		u.Email,
		strings.ToLower(u.Email),
		common.NormalizeEmail(u.Email),
	}
	seen := make(map[string]struct{}, len(candidates))
	facets := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		facets = append(facets, c)
	}
	return facets
}

// ResolveIdentity finds an identity by email, built-ins first, then the
// dynamic table. Returns (nil, nil) when the email is unknown; storage
// failures also degrade to (nil, nil) after a log line.
func (s *Store) ResolveIdentity(ctx context.Context, email string) (*User, error) {
	normalized := common.NormalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}

	if b, ok := BuiltinByEmail(normalized); ok {
		u := b.User
		u.CreatedAt = s.now()
		return &u, nil
	}

	for _, u := range s.loadDynamic(ctx) {
		if common.NormalizeEmail(u.Email) == normalized {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

// VerifyCredential checks a candidate password. Built-in identities compare
// against their fixed credential. Dynamic identities succeed if any of the
// redundant keys holds the candidate; on success all keys are rewritten
// from the matched value so earlier partial writes heal themselves.
func (s *Store) VerifyCredential(ctx context.Context, u *User, candidate string) bool {
	if u == nil || candidate == "" {
		return false
	}

	if b, ok := BuiltinByEmail(u.Email); ok {
		return b.Password == candidate
	}

	for _, facet := range credentialFacets(u) {
		stored, err := s.device.Get(ctx, store.CredentialKey(facet))
		if err != nil {
			s.log.Warn(ctx, "credential read failed", "facet", facet, "error", err)
			continue
		}
		if stored != nil && string(stored) == candidate {
			s.writeCredential(ctx, u, string(stored))
			return true
		}
	}
	return false
}

// writeCredential stores the password under every facet in one batch.
func (s *Store) writeCredential(ctx context.Context, u *User, password string) {
	pairs := make(map[string][]byte)
	for _, facet := range credentialFacets(u) {
		pairs[store.CredentialKey(facet)] = []byte(password)
	}
	if err := s.device.SetMany(ctx, pairs); err != nil {
		s.log.Warn(ctx, "credential write failed", "user", u.ID, "error", err)
	}
}

// EnsureBuiltins makes sure every built-in identity exists in the dynamic
// table (credential-free) and that at least one of its credential keys is
// present, restoring all of them from the canonical credential otherwise.
//
// It is idempotent and deliberately returns nothing: it runs inside session
// initialization and must never abort it. Failures are logged and swallowed.
func (s *Store) EnsureBuiltins(ctx context.Context) {
	users := s.loadDynamic(ctx)
	modified := false

	for _, b := range builtins {
		normalized := common.NormalizeEmail(b.User.Email)

		var existing *User
		for i := range users {
			if common.NormalizeEmail(users[i].Email) == normalized {
				existing = &users[i]
				break
			}
		}

		if existing == nil {
			u := b.User
			u.CreatedAt = s.now()
			u.UpdatedAt = s.now()
			users = append(users, u)
			modified = true
			s.writeCredential(ctx, &u, b.Password)
			s.log.Info(ctx, "built-in identity created", "email", u.Email)
			continue
		}

		// Present. Repair the credential keys only if all of them vanished.
		if !s.anyCredentialPresent(ctx, existing) {
			s.log.Info(ctx, "restoring built-in credential", "email", existing.Email)
			s.writeCredential(ctx, existing, b.Password)
		}
	}

	if modified {
		s.saveDynamic(ctx, users)
	}
}

func (s *Store) anyCredentialPresent(ctx context.Context, u *User) bool {
	for _, facet := range credentialFacets(u) {
		v, err := s.device.Get(ctx, store.CredentialKey(facet))
		if err != nil {
			s.log.Warn(ctx, "credential probe failed", "facet", facet, "error", err)
			continue
		}
		if v != nil {
			return true
		}
	}
	return false
}

// loadDynamic reads the dynamic identity table. A missing, unreadable or
// malformed table degrades to empty.
func (s *Store) loadDynamic(ctx context.Context) []User {
	raw, err := s.device.Get(ctx, store.KeyDynamicUsers)
	if err != nil {
		s.log.Warn(ctx, "dynamic identity table unavailable", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		s.log.Warn(ctx, "dynamic identity table malformed, resetting", "error", err)
		return nil
	}
	return users
}

func (s *Store) saveDynamic(ctx context.Context, users []User) {
	raw, err := json.Marshal(users)
	if err != nil {
		s.log.Error(ctx, "dynamic identity table marshal failed", "error", err)
		return
	}
	if err := s.device.Set(ctx, store.KeyDynamicUsers, raw); err != nil {
		s.log.Warn(ctx, "dynamic identity table write failed", "error", err)
	}
}

// ListDynamic returns the dynamic identity table.
func (s *Store) ListDynamic(ctx context.Context) []User {
	return s.loadDynamic(ctx)
}

// ListAll returns built-ins first (synthesized fresh, credential-free),
// then dynamic identities, de-duplicated by normalized email with
// built-ins taking precedence.
func (s *Store) ListAll(ctx context.Context) []User {
	all := Builtins(s.now())
	seen := make(map[string]struct{}, len(all))
	for _, u := range all {
		seen[common.NormalizeEmail(u.Email)] = struct{}{}
	}
	for _, u := range s.loadDynamic(ctx) {
		key := common.NormalizeEmail(u.Email)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		all = append(all, u)
	}
	return all
}

// CreateIdentity adds a dynamic identity with its credential keys. The
// administrative flow is the only producer of dynamic identities.
func (s *Store) CreateIdentity(ctx context.Context, name, email string, role Role, perms Permissions, password string) (*User, error) {
	normalized := common.NormalizeEmail(email)
	if normalized == "" || name == "" {
		return nil, fmt.Errorf("identity requires name and email")
	}
	if password == "" {
		return nil, fmt.Errorf("identity requires a password")
	}

	if _, ok := BuiltinByEmail(normalized); ok {
		return nil, fmt.Errorf("create identity %s: %w", normalized, common.ErrAlreadyExists)
	}
	users := s.loadDynamic(ctx)
	for _, u := range users {
		if common.NormalizeEmail(u.Email) == normalized {
			return nil, fmt.Errorf("create identity %s: %w", normalized, common.ErrAlreadyExists)
		}
	}

	u := User{
		ID:          "user_" + uuid.NewString(),
		Email:       normalized,
		Name:        name,
		Role:        role,
		Permissions: perms,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}
	users = append(users, u)
	s.saveDynamic(ctx, users)
	s.writeCredential(ctx, &u, password)
	s.log.Info(ctx, "identity created", "email", u.Email, "role", u.Role)
	return &u, nil
}

// DeleteIdentity removes a dynamic identity and its credential keys.
// Built-ins refuse deletion.
func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	for _, b := range builtins {
		if b.User.ID == id {
			return fmt.Errorf("delete identity %s: built-in identities cannot be deleted", id)
		}
	}

	users := s.loadDynamic(ctx)
	kept := make([]User, 0, len(users))
	var removed *User
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			removed = &u
			continue
		}
		kept = append(kept, users[i])
	}
	if removed == nil {
		return fmt.Errorf("delete identity %s: %w", id, common.ErrNotFound)
	}

	s.saveDynamic(ctx, kept)
	for _, facet := range credentialFacets(removed) {
		if err := s.device.Delete(ctx, store.CredentialKey(facet)); err != nil {
			s.log.Warn(ctx, "credential delete failed", "facet", facet, "error", err)
		}
	}
	s.log.Info(ctx, "identity deleted", "email", removed.Email)
	return nil
}

// RepairReport summarizes what an administrative credential repair did.
type RepairReport struct {
	Repaired  []string // emails whose keys were rewritten from a surviving value
	Defaulted []string // emails that had no surviving key and got a generated password
}

// RepairCredentials rewrites every dynamic identity's credential keys from
// the first surviving value. Identities with no surviving key get a
// generated fallback password so the account stays loginable; those are
// reported so an admin can tell the user.
func (s *Store) RepairCredentials(ctx context.Context) RepairReport {
	var report RepairReport

	for _, u := range s.loadDynamic(ctx) {
		user := u
		var surviving string
		for _, facet := range credentialFacets(&user) {
			v, err := s.device.Get(ctx, store.CredentialKey(facet))
			if err != nil {
				s.log.Warn(ctx, "credential probe failed", "facet", facet, "error", err)
				continue
			}
			if v != nil {
				surviving = string(v)
				break
			}
		}

		if surviving != "" {
			s.writeCredential(ctx, &user, surviving)
			report.Repaired = append(report.Repaired, user.Email)
			continue
		}

		fallback := fallbackPassword(user.Name)
		s.writeCredential(ctx, &user, fallback)
		report.Defaulted = append(report.Defaulted, user.Email)
		s.log.Warn(ctx, "credential lost, fallback generated", "email", user.Email)
	}
	return report
}

// fallbackPassword derives a simple password from the first name, used only
// when every redundant key for an identity has been lost.
func fallbackPassword(name string) string {
	first := strings.ToLower(strings.Fields(strings.TrimSpace(name) + " user")[0])
	return first + "123"
}
