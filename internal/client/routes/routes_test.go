package routes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goncalofonseca86/leirisonda/internal/client/guard"
	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/session"
	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

func TestDecide(t *testing.T) {
	user := &identity.User{ID: "admin_goncalo", Email: "gongonsilva@gmail.com", Name: "Gonçalo Fonseca"}

	tests := []struct {
		name        string
		state       session.State
		guardActive bool
		want        Decision
	}{
		{
			name:  "uninitialized shows loading",
			state: session.State{},
			want:  ShowLoading,
		},
		{
			name:        "uninitialized shows loading even under guard",
			state:       session.State{},
			guardActive: true,
			want:        ShowLoading,
		},
		{
			name:  "login in flight shows loading",
			state: session.State{IsInitialized: true, IsLoading: true},
			want:  ShowLoading,
		},
		{
			name:  "authenticated shows content",
			state: session.State{User: user, IsInitialized: true},
			want:  ShowContent,
		},
		{
			name:        "authenticated under guard still shows content",
			state:       session.State{User: user, IsInitialized: true},
			guardActive: true,
			want:        ShowContent,
		},
		{
			name:        "anonymous under guard waits instead of redirecting",
			state:       session.State{IsInitialized: true},
			guardActive: true,
			want:        ShowRecovering,
		},
		{
			name:  "anonymous without guard redirects to login",
			state: session.State{IsInitialized: true},
			want:  RedirectLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.guardActive))
		})
	}
}

// A just-written work record holds the surface on "recovering" until the
// guard window lapses, and only then does the login redirect open up.
func TestDecide_RedirectReachableAfterGuardExpiry(t *testing.T) {
	ctx := context.Background()
	tab := store.NewMemoryKV()
	device := store.NewMemoryKV()
	g := guard.New(tab, device, 30*time.Millisecond, &logging.NopLogger{})
	defer g.Close()

	anonymous := session.State{IsInitialized: true}

	g.Activate(ctx)
	require.Equal(t, ShowRecovering, Decide(anonymous, g.Active(ctx)))

	assert.Eventually(t, func() bool {
		return Decide(anonymous, g.Active(ctx)) == RedirectLogin
	}, time.Second, 10*time.Millisecond)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "loading", ShowLoading.String())
	assert.Equal(t, "recovering", ShowRecovering.String())
	assert.Equal(t, "content", ShowContent.String())
	assert.Equal(t, "login", RedirectLogin.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
