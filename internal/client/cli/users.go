package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/common"
)

func (a *App) requireAdmin() (*identity.User, error) {
	u := a.session.CurrentUser()
	if u == nil || u.Role != identity.RoleAdmin {
		printlnFn("This command requires an admin session")
		return nil, common.ErrUnauthorized
	}
	return u, nil
}

// Users lists every identity, built-ins first.
func (a *App) Users(ctx context.Context) error {
	for _, u := range a.session.ListAllIdentities(ctx) {
		printlnFn(fmt.Sprintf("%-16s %-28s %-6s %s", u.ID, u.Email, u.Role, u.Name))
	}
	return nil
}

// AddUser creates a dynamic identity after an interactive prompt.
func (a *App) AddUser(ctx context.Context) error {
	if _, err := a.requireAdmin(); err != nil {
		return err
	}

	name, err := GetSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	roleInput, err := GetSimpleText(a.reader, "Enter role (admin/user)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	role := identity.RoleUser
	perms := identity.FieldPermissions()
	if strings.EqualFold(roleInput, string(identity.RoleAdmin)) {
		role = identity.RoleAdmin
		perms = identity.AllPermissions()
	}

	u, err := a.identities.CreateIdentity(ctx, name, email, role, perms, string(password))
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			printlnFn("An identity with that email already exists")
			return nil
		}
		printlnFn("Could not create identity:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Created %s (%s)", u.Email, u.ID))
	return nil
}

func (a *App) DeleteUser(ctx context.Context, id string) error {
	admin, err := a.requireAdmin()
	if err != nil {
		return err
	}
	if id == admin.ID {
		printlnFn("Refusing to delete the current identity")
		return nil
	}

	if err := a.identities.DeleteIdentity(ctx, id); err != nil {
		printlnFn("Could not delete identity:", err)
		return err
	}
	if a.remote != nil {
		if err := a.remote.DeleteUser(ctx, id); err != nil {
			a.log.Debug(ctx, "backend delete skipped", "id", id, "error", err)
		}
	}
	printlnFn("Deleted", id)
	return nil
}

// Repair rewrites redundant credential keys from the first surviving value.
func (a *App) Repair(ctx context.Context) error {
	if _, err := a.requireAdmin(); err != nil {
		return err
	}

	report := a.identities.RepairCredentials(ctx)
	printlnFn(fmt.Sprintf("Repaired %d, defaulted %d", len(report.Repaired), len(report.Defaulted)))
	for _, email := range report.Defaulted {
		printlnFn("  new default password set for", email)
	}
	return nil
}
