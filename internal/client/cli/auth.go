package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/Goncalofonseca86/leirisonda/internal/common"
)

// Login prompts for credentials and attempts to authenticate. Wrong
// credentials produce a single generic message, never a hint whether the
// email is known.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if !a.session.Login(ctx, email, string(password)) {
		printlnFn("Invalid credentials")
		return nil
	}

	u := a.session.CurrentUser()
	printlnFn(fmt.Sprintf("Welcome, %s!", u.Name))

	// refresh the notifier baseline under the new identity
	a.notifier.Observe(ctx, a.works.List(ctx), u)

	if a.remote != nil {
		if err := a.remote.Login(ctx, common.NormalizeEmail(email), string(password)); err != nil {
			a.log.Debug(ctx, "backend login skipped", "error", err)
		}
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	printlnFn("Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u := a.session.CurrentUser()
	if u == nil {
		printlnFn("Not logged in")
		return nil
	}
	printlnFn(fmt.Sprintf("%s <%s> role=%s id=%s", u.Name, u.Email, u.Role, u.ID))
	return nil
}

// Status reports connectivity, initialization, and guard state.
func (a *App) Status(ctx context.Context) error {
	st := a.session.State()
	printlnFn(fmt.Sprintf("mode=%s initialized=%t loading=%t guard=%t",
		a.CurrentMode(), st.IsInitialized, st.IsLoading, a.guard.Active(ctx)))
	if st.User != nil {
		printlnFn("session: " + st.User.Email)
	} else {
		printlnFn("session: none")
	}
	return nil
}
