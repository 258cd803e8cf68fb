// Package reconcile drains the cross-process outbox into the trainee's
// durable settings. It runs in the main app process on foreground/launch,
// the first moment the app is guaranteed to be scheduled after whatever the
// monitor did while it was closed.
package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/focuspact/focuspact/internal/models"
)

// Outbox is the consuming side of the cross-process mailbox.
type Outbox interface {
	ConsumePendingStatus() (models.TraineeStatus, *time.Time, bool, error)
	ConsumePendingAppList() ([]string, bool, error)
}

// LocalSettings is the durable device-side settings cache.
type LocalSettings interface {
	Get(uid string) (*models.UserSettings, error)
	Put(settings *models.UserSettings) error
}

// RemoteStore mirrors the settings document on the backend. Writes are
// field-level patches: the backend owns fields the device never produces,
// coach and trainee lists above all, and a stale full-document write would
// roll those back.
type RemoteStore interface {
	GetSettings(ctx context.Context, uid string) (*models.UserSettings, error)
	PatchSettings(ctx context.Context, patch models.SettingsPatch) error
}

// ShieldControl lets reconciliation observe and clear the local restriction
// when a remote unlock happened while the app was backgrounded.
type ShieldControl interface {
	Active() (bool, error)
	Clear() error
}

type Service struct {
	uid    string
	outbox Outbox
	local  LocalSettings
	remote RemoteStore
	shield ShieldControl
	now    func() time.Time
}

func New(uid string, outbox Outbox, local LocalSettings, remote RemoteStore, shield ShieldControl) *Service {
	return &Service{
		uid:    uid,
		outbox: outbox,
		local:  local,
		remote: remote,
		shield: shield,
		now:    time.Now,
	}
}

// SetNow overrides the service clock; used by tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// Run performs one reconciliation pass. Running it again with an empty outbox
// is a no-op; the status merge and the app-list merge touch disjoint fields
// and may land in either order.
func (s *Service) Run(ctx context.Context) error {
	settings, err := s.local.Get(s.uid)
	if err != nil {
		return err
	}

	var patch models.SettingsPatch
	dirty := false

	status, streakResetAt, ok, err := s.outbox.ConsumePendingStatus()
	if err != nil {
		return err
	}
	if ok {
		settings.TraineeStatus = status
		patch.TraineeStatus = &settings.TraineeStatus
		if streakResetAt != nil {
			settings.StreakStartDate = streakResetAt
			patch.StreakStartDate = streakResetAt
		}
		dirty = true
	}

	names, ok, err := s.outbox.ConsumePendingAppList()
	if err != nil {
		return err
	}
	if ok && len(names) > 0 {
		settings.MonitoredApps = mergeNames(settings.MonitoredApps, names)
		patch.MonitoredApps = settings.MonitoredApps
	}

	if dirty || patch.MonitoredApps != nil {
		if err := s.persist(ctx, settings, patch); err != nil {
			return err
		}
	}

	s.absorbRemoteUnlock(ctx, settings)
	return nil
}

// absorbRemoteUnlock pulls the remote document and, when a coach cleared the
// trainee remotely while the app was closed, drops the local shield and
// status to match. Best-effort: a fetch failure just means convergence waits
// for the next foreground.
func (s *Service) absorbRemoteUnlock(ctx context.Context, settings *models.UserSettings) {
	remote, err := s.remote.GetSettings(ctx, s.uid)
	if err != nil {
		log.Printf("reconcile: remote settings fetch skipped: %v", err)
		return
	}
	if remote.TraineeStatus != models.StatusAllClear {
		return
	}

	active, err := s.shield.Active()
	if err != nil {
		log.Printf("reconcile: shield state: %v", err)
		return
	}
	restricted := settings.TraineeStatus == models.StatusCutOff ||
		settings.TraineeStatus == models.StatusAttentionNeeded
	if !active && !restricted {
		return
	}

	if active {
		if err := s.shield.Clear(); err != nil {
			log.Printf("reconcile: clear shield after remote unlock: %v", err)
			return
		}
	}
	if settings.TraineeStatus != models.StatusAllClear {
		settings.TraineeStatus = models.StatusAllClear
		patch := models.SettingsPatch{TraineeStatus: &settings.TraineeStatus}
		if err := s.persist(ctx, settings, patch); err != nil {
			log.Printf("reconcile: persist after remote unlock: %v", err)
		}
	}
}

// persist writes the merged document to the local cache and, best-effort,
// patches only the fields this pass changed through the remote merge path.
func (s *Service) persist(ctx context.Context, settings *models.UserSettings, patch models.SettingsPatch) error {
	settings.UpdatedAt = s.now().UTC()
	if err := s.local.Put(settings); err != nil {
		return err
	}
	if err := s.remote.PatchSettings(ctx, patch); err != nil {
		log.Printf("reconcile: remote save deferred: %v", err)
	}
	return nil
}

func mergeNames(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, name := range existing {
		seen[name] = struct{}{}
		merged = append(merged, name)
	}
	for _, name := range incoming {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			merged = append(merged, name)
		}
	}
	return merged
}
