// Package works manages the local work-record list: creation (with the
// guard/notification side effects that protect the author's session),
// status updates, and the dashboard summary.
package works

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Goncalofonseca86/leirisonda/internal/client/events"
	"github.com/Goncalofonseca86/leirisonda/internal/client/guard"
	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/models"
	"github.com/Goncalofonseca86/leirisonda/internal/client/store"
	"github.com/Goncalofonseca86/leirisonda/internal/client/sync"
	"github.com/Goncalofonseca86/leirisonda/internal/common"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

type Service struct {
	device store.KV
	remote sync.Client
	guard  *guard.Guard
	bus    *events.Bus
	log    logging.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires the work service. remote may be nil for a purely local
// installation.
func NewService(device store.KV, remote sync.Client, g *guard.Guard, bus *events.Bus, log logging.Logger) *Service {
	return &Service{
		device: device,
		remote: remote,
		guard:  g,
		bus:    bus,
		log:    log,
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
	}
}

// Create persists a work record and fires the post-write side effects:
// best-effort remote push, guard activation, and the creation event for
// peers. Once the local write succeeded the create has succeeded; nothing
// downstream may turn it back into a failure.
func (s *Service) Create(ctx context.Context, in models.CreateWorkInput, author *identity.User) (*models.Work, error) {
	if in.WorkSheetNumber == "" || in.ClientName == "" {
		return nil, fmt.Errorf("work requires a sheet number and a client name")
	}
	if author == nil {
		return nil, fmt.Errorf("work requires an author: %w", common.ErrUnauthorized)
	}
	status := in.Status
	if status == "" {
		status = models.WorkStatusPending
	}

	now := s.now()
	w := models.Work{
		ID:                 s.newID(),
		WorkSheetNumber:    in.WorkSheetNumber,
		Type:               in.Type,
		ClientName:         in.ClientName,
		Address:            in.Address,
		Contact:            in.Contact,
		EntryTime:          in.EntryTime,
		ExitTime:           in.ExitTime,
		Status:             status,
		Vehicles:           in.Vehicles,
		Technicians:        in.Technicians,
		AssignedUsers:      in.AssignedUsers,
		Observations:       in.Observations,
		WorkPerformed:      in.WorkPerformed,
		WorkSheetCompleted: in.WorkSheetCompleted,
		CreatedBy:          author.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	list := s.load(ctx)
	list = append(list, w)
	if err := s.save(ctx, list); err != nil {
		return nil, err
	}

	// The session-loss grace window opens the moment the record is durable.
	s.guard.Activate(ctx)

	if s.remote != nil {
		if err := s.remote.PushWork(ctx, &w); err != nil {
			s.log.Warn(ctx, "remote push failed, record kept locally", "work", w.ID, "error", err)
		}
	}

	s.announce(ctx, &w)
	s.log.Info(ctx, "work created", "work", w.ID, "client", w.ClientName, "by", author.ID)
	return &w, nil
}

// announce writes the cross-context event key and publishes the same-process
// event so every open context can surface the new record.
func (s *Service) announce(ctx context.Context, w *models.Work) {
	ev := events.WorkCreated{
		Type:       events.TypeWorkCreated,
		WorkID:     w.ID,
		CreatedBy:  w.CreatedBy,
		ClientName: w.ClientName,
		CreatedAt:  w.CreatedAt,
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		s.log.Error(ctx, "event marshal failed", "work", w.ID, "error", err)
	} else if err := s.device.Set(ctx, store.KeyLastSyncEvent, raw); err != nil {
		s.log.Warn(ctx, "event key write failed", "work", w.ID, "error", err)
	}
	s.bus.Publish(ev)
}

// List returns the local work list, oldest first.
func (s *Service) List(ctx context.Context) []models.Work {
	return s.load(ctx)
}

// Get finds one work record by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Work, error) {
	for _, w := range s.load(ctx) {
		if w.ID == id {
			found := w
			return &found, nil
		}
	}
	return nil, fmt.Errorf("work %s: %w", id, common.ErrNotFound)
}

// UpdateStatus moves a work record through its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.WorkStatus) error {
	list := s.load(ctx)
	for i := range list {
		if list[i].ID == id {
			list[i].Status = status
			list[i].UpdatedAt = s.now()
			return s.save(ctx, list)
		}
	}
	return fmt.Errorf("work %s: %w", id, common.ErrNotFound)
}

// Refresh merges remote records into the local list, local records winning
// on id conflicts. A missing or offline backend is not an error.
func (s *Service) Refresh(ctx context.Context) []models.Work {
	list := s.load(ctx)
	if s.remote == nil {
		return list
	}
	remote, err := s.remote.ListWorks(ctx)
	if err != nil {
		s.log.Debug(ctx, "remote list unavailable", "error", err)
		return list
	}

	known := make(map[string]struct{}, len(list))
	for _, w := range list {
		known[w.ID] = struct{}{}
	}
	merged := false
	for _, w := range remote {
		if _, ok := known[w.ID]; ok {
			continue
		}
		list = append(list, w)
		merged = true
	}
	if merged {
		if err := s.save(ctx, list); err != nil {
			s.log.Warn(ctx, "merged list write failed", "error", err)
		}
	}
	return list
}

// Stats summarizes the local list for the dashboard.
func (s *Service) Stats(ctx context.Context) models.DashboardStats {
	var st models.DashboardStats
	for _, w := range s.load(ctx) {
		st.TotalWorks++
		switch w.Status {
		case models.WorkStatusPending:
			st.PendingWorks++
		case models.WorkStatusInProgress:
			st.InProgressWorks++
		case models.WorkStatusDone:
			st.CompletedWorks++
		}
		if !w.WorkSheetCompleted {
			st.WorkSheetsPending++
		}
	}
	return st
}

// load reads the local list; missing or malformed data degrades to empty.
func (s *Service) load(ctx context.Context) []models.Work {
	raw, err := s.device.Get(ctx, store.KeyWorks)
	if err != nil {
		s.log.Warn(ctx, "work list unavailable", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var list []models.Work
	if err := json.Unmarshal(raw, &list); err != nil {
		s.log.Warn(ctx, "work list malformed, resetting", "error", err)
		return nil
	}
	return list
}

func (s *Service) save(ctx context.Context, list []models.Work) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode work list: %w", err)
	}
	if err := s.device.Set(ctx, store.KeyWorks, raw); err != nil {
		return fmt.Errorf("persist work list: %w", err)
	}
	return nil
}
