package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Goncalofonseca86/leirisonda/internal/client/models"
	"github.com/Goncalofonseca86/leirisonda/internal/common"
)

// Works lists local records, merging in remote ones when the backend is up.
func (a *App) Works(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Log in first")
		return common.ErrUnauthorized
	}

	list := a.works.Refresh(ctx)
	if len(list) == 0 {
		printlnFn("No work records yet")
		return nil
	}
	for _, w := range list {
		printlnFn(fmt.Sprintf("%-26s %-12s %-12s %s", w.ID, w.Type, w.Status, w.ClientName))
	}
	return nil
}

// AddWork prompts for the record fields and creates it. The session guard
// activates as part of the create, so a recovery hiccup right after saving
// never looks like a logout.
func (a *App) AddWork(ctx context.Context) error {
	author := a.session.CurrentUser()
	if author == nil {
		printlnFn("Log in first")
		return common.ErrUnauthorized
	}

	sheet, err := GetSimpleText(a.reader, "Enter work sheet number", os.Stdout)
	if err != nil {
		return err
	}
	client, err := GetSimpleText(a.reader, "Enter client name", os.Stdout)
	if err != nil {
		return err
	}
	kind, err := GetSimpleText(a.reader, "Enter type (piscina/manutencao/avaria/montagem)", os.Stdout)
	if err != nil {
		return err
	}
	address, err := GetSimpleText(a.reader, "Enter address", os.Stdout)
	if err != nil {
		return err
	}

	w, err := a.works.Create(ctx, models.CreateWorkInput{
		WorkSheetNumber: sheet,
		ClientName:      client,
		Type:            models.WorkType(strings.ToLower(strings.TrimSpace(kind))),
		Address:         address,
	}, author)
	if err != nil {
		printlnFn("Could not create work:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Created work %s for %s", w.ID, w.ClientName))
	return nil
}

func (a *App) MarkDone(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		printlnFn("Log in first")
		return common.ErrUnauthorized
	}

	if err := a.works.UpdateStatus(ctx, id, models.WorkStatusDone); err != nil {
		printlnFn("Could not update work:", err)
		return err
	}
	printlnFn("Marked", id, "as", string(models.WorkStatusDone))
	return nil
}

// Stats prints the dashboard summary and, now that the dashboard loaded
// with a confirmed session, releases the post-write guard early.
func (a *App) Stats(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Log in first")
		return common.ErrUnauthorized
	}

	st := a.works.Stats(ctx)
	printlnFn(fmt.Sprintf("total=%d pending=%d in_progress=%d completed=%d sheets_pending=%d",
		st.TotalWorks, st.PendingWorks, st.InProgressWorks, st.CompletedWorks, st.WorkSheetsPending))

	a.guard.ClearTabFlag(ctx)
	return nil
}
