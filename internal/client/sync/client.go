// Package sync talks to the optional remote backend that replicates work
// and user records between devices. The backend is a collaborator, never a
// dependency: every caller must keep working from local data when it is
// offline, which is why transport failures map to ErrUnavailable instead of
// being surfaced raw.
package sync

import (
	"context"
	"errors"

	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/models"
)

var (
	ErrUnavailable  = errors.New("sync backend unavailable")
	ErrUnauthorized = errors.New("sync backend rejected credentials")
)

// Client is the remote backend surface the core relies on.
//
// Contract:
//   - Ping: liveness probe.
//   - Login: exchange credentials for a bearer token.
//   - PushWork / ListWorks: replicate work records.
//   - ListUsers / DeleteUser: replicate the identity table.
//   - Close: release transport resources.
type Client interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	PushWork(ctx context.Context, w *models.Work) error
	ListWorks(ctx context.Context) ([]models.Work, error)
	ListUsers(ctx context.Context) ([]identity.User, error)
	DeleteUser(ctx context.Context, id string) error
	Close() error
}
