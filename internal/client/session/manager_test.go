package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goncalofonseca86/leirisonda/internal/client/guard"
	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

type fixture struct {
	m      *Manager
	tab    *store.MemoryKV
	device *store.MemoryKV
	guard  *guard.Guard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWindow(t, 10*time.Second)
}

func newFixtureWindow(t *testing.T, window time.Duration) *fixture {
	t.Helper()
	log := logging.NewNopLogger()
	tab := store.NewMemoryKV()
	device := store.NewMemoryKV()
	creds := identity.NewStore(device, log)
	g := guard.New(tab, device, window, log)
	m := NewManager(creds, tab, device, g, 0, 0, log)
	t.Cleanup(func() {
		m.Close()
		g.Close()
	})
	return &fixture{m: m, tab: tab, device: device, guard: g}
}

// reopen simulates a fresh process over the same device store: new tab
// scope, new manager, same device data.
func (f *fixture) reopen(t *testing.T) *fixture {
	t.Helper()
	log := logging.NewNopLogger()
	tab := store.NewMemoryKV()
	creds := identity.NewStore(f.device, log)
	g := guard.New(tab, f.device, f.guard.Window(), log)
	m := NewManager(creds, tab, f.device, g, 0, 0, log)
	t.Cleanup(func() {
		m.Close()
		g.Close()
	})
	return &fixture{m: m, tab: tab, device: f.device, guard: g}
}

func mustJSON(t *testing.T, u identity.User) []byte {
	t.Helper()
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	return raw
}

func builtinAdmin(t *testing.T) identity.User {
	t.Helper()
	users := identity.Builtins(time.Now())
	for _, u := range users {
		if u.ID == "admin_goncalo" {
			return u
		}
	}
	t.Fatal("missing built-in admin")
	return identity.User{}
}

func TestLogin_BuiltinAdminScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok := f.m.Login(ctx, "gongonsilva@gmail.com", "19867gsf")
	require.True(t, ok)

	u := f.m.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, identity.RoleAdmin, u.Role)

	// All mirror slots written.
	for _, key := range []string{
		store.KeyPrimarySession,
		store.BackupKey("admin_goncalo"),
		store.KeyLastUser,
		store.KeySessionTimestamp,
	} {
		v, err := f.device.Get(ctx, key)
		require.NoError(t, err)
		assert.NotNil(t, v, "expected %s to be written", key)
	}
	v, err := f.tab.Get(ctx, store.KeyTabSession)
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestLogin_WrongPasswordWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok := f.m.Login(ctx, "gongonsilva@gmail.com", "wrong")
	require.False(t, ok)
	assert.Nil(t, f.m.CurrentUser())

	for _, key := range []string{store.KeyPrimarySession, store.KeyLastUser, store.KeySessionTimestamp} {
		v, err := f.device.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, v, "expected %s to stay empty", key)
	}
	backups, err := f.device.Keys(ctx, store.BackupKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestLogin_UnknownEmailIndistinguishableFromWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unknown := f.m.Login(ctx, "nobody@example.com", "whatever")
	wrongPw := f.m.Login(ctx, "gongonsilva@gmail.com", "wrong")
	assert.Equal(t, unknown, wrongPw)
	assert.False(t, unknown)
}

func TestLogin_EmailNormalization(t *testing.T) {
	f := newFixture(t)

	ok := f.m.Login(context.Background(), " GonGonsilva@Gmail.com ", "19867gsf")
	require.True(t, ok)
	assert.Equal(t, "gongonsilva@gmail.com", f.m.CurrentUser().Email)
}

func TestInitialize_AlwaysSetsInitialized(t *testing.T) {
	f := newFixture(t)

	require.False(t, f.m.State().IsInitialized)
	f.m.Initialize(context.Background())

	st := f.m.State()
	assert.True(t, st.IsInitialized)
	assert.Nil(t, st.User, "empty store recovers nothing, and that is not an error")
}

func TestInitialize_RunsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.m.Initialize(ctx)
	require.True(t, f.m.Login(ctx, "gongonsilva@gmail.com", "19867gsf"))

	// A second call must not re-run the cascade and disturb the session.
	f.m.Initialize(ctx)
	assert.NotNil(t, f.m.CurrentUser())
}

func TestInitialize_EnsuresBuiltins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.m.Initialize(ctx)

	v, err := f.device.Get(ctx, store.KeyDynamicUsers)
	require.NoError(t, err)
	require.NotNil(t, v)
	var users []identity.User
	require.NoError(t, json.Unmarshal(v, &users))
	assert.Len(t, users, 2)
}

func TestInitialize_PrimarySlotWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := builtinAdmin(t)
	require.NoError(t, f.device.Set(ctx, store.KeyPrimarySession, mustJSON(t, admin)))

	f.m.Initialize(ctx)

	u := f.m.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "admin_goncalo", u.ID)
}

func TestInitialize_MalformedPrimaryFallsThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.device.Set(ctx, store.KeyPrimarySession, []byte("{broken")))
	require.NoError(t, f.device.Set(ctx, store.KeyLastUser, []byte("gongonsilva@gmail.com")))

	f.m.Initialize(ctx)

	u := f.m.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "admin_goncalo", u.ID)
}

func TestInitialize_IncompleteSnapshotDoesNotCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Snapshot without a name: not a recoverable identity.
	require.NoError(t, f.device.Set(ctx, store.KeyPrimarySession,
		[]byte(`{"id":"x","email":"x@example.com"}`)))

	f.m.Initialize(ctx)
	assert.Nil(t, f.m.CurrentUser())
}

func TestInitialize_LastUserResolvesBuiltinsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A dynamic identity in the marker must not recover without the guard.
	creds := identity.NewStore(f.device, logging.NewNopLogger())
	_, err := creds.CreateIdentity(ctx, "Maria", "maria@example.com", identity.RoleUser, identity.FieldPermissions(), "pw")
	require.NoError(t, err)
	require.NoError(t, f.device.Set(ctx, store.KeyLastUser, []byte("maria@example.com")))

	f.m.Initialize(ctx)
	assert.Nil(t, f.m.CurrentUser())
}

func TestInitialize_GuardSourcesIgnoredWithoutGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := builtinAdmin(t)
	require.NoError(t, f.tab.Set(ctx, store.KeyTabSession, mustJSON(t, admin)))
	require.NoError(t, f.device.Set(ctx, store.BackupKey(admin.ID), mustJSON(t, admin)))

	f.m.Initialize(ctx)
	assert.Nil(t, f.m.CurrentUser())
}

func TestInitialize_GuardCascadePrefersTabMirror(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.guard.Activate(ctx)

	admin := builtinAdmin(t)
	other := admin
	other.ID = "user_alexandre"
	other.Email = "alexkamaryta@gmail.com"
	other.Name = "Alexandre Fernandes"

	// Tab mirror holds the admin; a differing per-identity backup exists too.
	require.NoError(t, f.tab.Set(ctx, store.KeyTabSession, mustJSON(t, admin)))
	require.NoError(t, f.device.Set(ctx, store.BackupKey(other.ID), mustJSON(t, other)))

	f.m.Initialize(ctx)

	u := f.m.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "admin_goncalo", u.ID, "tab mirror outranks backup slots")
}

func TestInitialize_LastUserOutranksGuardSources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.guard.Activate(ctx)

	// Both the plain last-user marker and a guard-gated backup could
	// recover; the marker sits higher in the cascade and must win.
	admin := builtinAdmin(t)
	require.NoError(t, f.device.Set(ctx, store.BackupKey(admin.ID), mustJSON(t, admin)))
	require.NoError(t, f.device.Set(ctx, store.KeyLastUser, []byte("alexkamaryta@gmail.com")))
	require.NoError(t, f.device.Set(ctx, store.KeyPrimarySession, []byte("{broken")))

	f.m.Initialize(ctx)

	u := f.m.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "user_alexandre", u.ID)
}

func TestInitialize_GuardBackupBeatsLastUserWithinGuardBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.guard.Activate(ctx)

	// No primary, no plain last-user, no tab mirror; only a dynamic backup
	// and a last-user marker that resolves to nothing.
	dynamic := identity.User{
		ID:    "user_123",
		Email: "maria@example.com",
		Name:  "Maria Silva",
		Role:  identity.RoleUser,
	}
	require.NoError(t, f.device.Set(ctx, store.BackupKey(dynamic.ID), mustJSON(t, dynamic)))
	require.NoError(t, f.device.Set(ctx, store.KeyLastUser, []byte("maria@example.com")))

	f.m.Initialize(ctx)

	u := f.m.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "user_123", u.ID, "backup slot recovers identities last-user cannot")
}

func TestInitialize_RecoveryWritesThroughAllSlots(t *testing.T) {
	f := newFixtureWindow(t, 40*time.Millisecond)
	ctx := context.Background()

	f.guard.Activate(ctx)
	admin := builtinAdmin(t)
	require.NoError(t, f.tab.Set(ctx, store.KeyTabSession, mustJSON(t, admin)))

	f.m.Initialize(ctx)
	require.NotNil(t, f.m.CurrentUser())

	// Self-healing write-through: the primary slot is rebuilt.
	v, err := f.device.Get(ctx, store.KeyPrimarySession)
	require.NoError(t, err)
	assert.NotNil(t, v)
	v, err = f.device.Get(ctx, store.BackupKey(admin.ID))
	require.NoError(t, err)
	assert.NotNil(t, v)

	// Recovery under the guard schedules the guard's own cleanup.
	assert.Eventually(t, func() bool {
		return !f.guard.Active(ctx)
	}, time.Second, 10*time.Millisecond)
}

func TestLogout_PreservesBackupsForRecovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.m.Login(ctx, "gongonsilva@gmail.com", "19867gsf"))
	f.m.Logout(ctx)
	assert.Nil(t, f.m.CurrentUser())

	// Primary slot gone, backups and marker intact.
	v, err := f.device.Get(ctx, store.KeyPrimarySession)
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = f.device.Get(ctx, store.BackupKey("admin_goncalo"))
	require.NoError(t, err)
	assert.NotNil(t, v)
	v, err = f.device.Get(ctx, store.KeyLastUser)
	require.NoError(t, err)
	assert.NotNil(t, v)

	// A fresh process over the same device store recovers the identity.
	f2 := f.reopen(t)
	f2.m.Initialize(ctx)
	u := f2.m.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "admin_goncalo", u.ID)
}

func TestListAllIdentities_BuiltinsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.m.Initialize(ctx)
	all := f.m.ListAllIdentities(ctx)
	require.GreaterOrEqual(t, len(all), 2)
	assert.Equal(t, "admin_goncalo", all[0].ID)
	assert.Equal(t, "user_alexandre", all[1].ID)
}

func TestState_LoadingFlagDuringLogin(t *testing.T) {
	f := newFixture(t)

	st := f.m.State()
	assert.False(t, st.IsLoading)

	// Login resets the flag on both outcomes.
	f.m.Login(context.Background(), "gongonsilva@gmail.com", "wrong")
	assert.False(t, f.m.State().IsLoading)
	f.m.Login(context.Background(), "gongonsilva@gmail.com", "19867gsf")
	assert.False(t, f.m.State().IsLoading)
}
