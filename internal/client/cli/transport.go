package cli

import (
	"context"
	"fmt"

	"github.com/Goncalofonseca86/leirisonda/internal/client/notify"
)

// terminalTransport renders notifications as toast-style lines on stdout.
type terminalTransport struct{}

func (t *terminalTransport) Notify(ctx context.Context, n notify.Notification) error {
	_, err := fmt.Printf("\n*** %s: %s ***\n", n.Title, n.Body)
	return err
}
