// Package cli provides the interactive Leirisonda command-line client.
//
// It wires the device store, session manager, work service, and notifier
// into an interactive REPL that keeps working while the sync backend is
// offline. Typical flow: restore the previous session (or prompt for
// credentials), start the background connectivity and event watchers, and
// execute user commands.
//
// Key features:
//   - Login / Logout with automatic session recovery on start
//   - Work records: create, list, update status, dashboard summary
//   - Identity administration: list, add, delete, credential repair
//   - Cross-context "new work" notifications
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and StartEventWatcher for details.
package cli
