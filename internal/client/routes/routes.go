// Package routes decides what a protected surface shows for a given
// session state. It holds no state of its own; callers re-evaluate on
// every state change.
package routes

import (
	"github.com/Goncalofonseca86/leirisonda/internal/client/session"
)

// Decision is what the surface should render.
type Decision int

const (
	// ShowLoading: initialization has not finished, keep the spinner up.
	ShowLoading Decision = iota
	// ShowRecovering: no session, but a work record was just written and
	// recovery may still land. Never bounce the author to login here.
	ShowRecovering
	// ShowContent: an authenticated session exists.
	ShowContent
	// RedirectLogin: initialization finished, guard inactive, no session.
	RedirectLogin
)

func (d Decision) String() string {
	switch d {
	case ShowLoading:
		return "loading"
	case ShowRecovering:
		return "recovering"
	case ShowContent:
		return "content"
	case RedirectLogin:
		return "login"
	default:
		return "unknown"
	}
}

// Decide maps session state plus the post-write guard to a Decision.
// Redirecting to login is the last resort: it requires completed
// initialization, no pending login attempt, an inactive guard, and no
// recovered user.
func Decide(st session.State, guardActive bool) Decision {
	if !st.IsInitialized || st.IsLoading {
		return ShowLoading
	}
	if st.User != nil {
		return ShowContent
	}
	if guardActive {
		return ShowRecovering
	}
	return RedirectLogin
}
