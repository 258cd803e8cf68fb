package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspact/focuspact/internal/models"
)

type fakeOutbox struct {
	status    models.TraineeStatus
	reset     *time.Time
	hasStatus bool
	appList   []string
	hasList   bool
}

func (f *fakeOutbox) ConsumePendingStatus() (models.TraineeStatus, *time.Time, bool, error) {
	if !f.hasStatus {
		return "", nil, false, nil
	}
	f.hasStatus = false
	return f.status, f.reset, true, nil
}

func (f *fakeOutbox) ConsumePendingAppList() ([]string, bool, error) {
	if !f.hasList {
		return nil, false, nil
	}
	f.hasList = false
	return f.appList, true, nil
}

type fakeLocal struct {
	settings *models.UserSettings
	puts     int
}

func (f *fakeLocal) Get(uid string) (*models.UserSettings, error) {
	if f.settings == nil {
		return models.DefaultSettings(uid), nil
	}
	copied := *f.settings
	return &copied, nil
}

func (f *fakeLocal) Put(s *models.UserSettings) error {
	copied := *s
	f.settings = &copied
	f.puts++
	return nil
}

type fakeRemote struct {
	settings *models.UserSettings
	getErr   error
	puts     int
	putErr   error
}

func (f *fakeRemote) GetSettings(ctx context.Context, uid string) (*models.UserSettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.settings == nil {
		return models.DefaultSettings(uid), nil
	}
	copied := *f.settings
	return &copied, nil
}

// PatchSettings applies only the fields the patch carries, the way the
// backend's merge endpoint does.
func (f *fakeRemote) PatchSettings(ctx context.Context, patch models.SettingsPatch) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	if f.settings == nil {
		f.settings = models.DefaultSettings("trainee-1")
	}
	if patch.TraineeStatus != nil {
		f.settings.TraineeStatus = *patch.TraineeStatus
	}
	if patch.StreakStartDate != nil {
		f.settings.StreakStartDate = patch.StreakStartDate
	}
	if patch.MonitoredApps != nil {
		f.settings.MonitoredApps = patch.MonitoredApps
	}
	return nil
}

type fakeShieldControl struct {
	active  bool
	cleared int
}

func (f *fakeShieldControl) Active() (bool, error) { return f.active, nil }
func (f *fakeShieldControl) Clear() error {
	f.active = false
	f.cleared++
	return nil
}

func baseSettings() *models.UserSettings {
	return &models.UserSettings{
		ID:                  "trainee-1",
		Mode:                models.ModeCoach,
		TraineeStatus:       models.StatusAllClear,
		MonitoredApps:       []string{"Instagram"},
		OnboardingCompleted: true,
	}
}

func TestEmptyOutboxIsNoOp(t *testing.T) {
	local := &fakeLocal{settings: baseSettings()}
	remote := &fakeRemote{settings: baseSettings()}
	svc := New("trainee-1", &fakeOutbox{}, local, remote, &fakeShieldControl{})

	require.NoError(t, svc.Run(context.Background()))
	require.NoError(t, svc.Run(context.Background()))

	assert.Zero(t, local.puts)
	assert.Zero(t, remote.puts)
	assert.Equal(t, models.StatusAllClear, local.settings.TraineeStatus)
}

func TestDrainMergesStatusAndStreak(t *testing.T) {
	reset := time.Date(2026, 4, 2, 20, 30, 0, 0, time.UTC)
	local := &fakeLocal{settings: baseSettings()}
	remote := &fakeRemote{settings: baseSettings()}
	ob := &fakeOutbox{status: models.StatusCutOff, reset: &reset, hasStatus: true}
	svc := New("trainee-1", ob, local, remote, &fakeShieldControl{active: true})

	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, models.StatusCutOff, local.settings.TraineeStatus)
	require.NotNil(t, local.settings.StreakStartDate)
	assert.Equal(t, reset, *local.settings.StreakStartDate)
	assert.Equal(t, models.StatusCutOff, remote.settings.TraineeStatus)

	// Second pass: outbox is empty, remote is cutOff, nothing else moves.
	puts := local.puts
	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, puts, local.puts)
}

func TestStatusWithoutResetKeepsStreak(t *testing.T) {
	streak := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	settings := baseSettings()
	settings.StreakStartDate = &streak
	local := &fakeLocal{settings: settings}
	remote := &fakeRemote{settings: baseSettings()}
	ob := &fakeOutbox{status: models.StatusAttentionNeeded, hasStatus: true}
	svc := New("trainee-1", ob, local, remote, &fakeShieldControl{})

	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, models.StatusAttentionNeeded, local.settings.TraineeStatus)
	require.NotNil(t, local.settings.StreakStartDate)
	assert.Equal(t, streak, *local.settings.StreakStartDate)
}

func TestAppListMergeIsAdditive(t *testing.T) {
	local := &fakeLocal{settings: baseSettings()}
	remote := &fakeRemote{settings: baseSettings()}
	ob := &fakeOutbox{appList: []string{"TikTok", "Instagram"}, hasList: true}
	svc := New("trainee-1", ob, local, remote, &fakeShieldControl{})

	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, []string{"Instagram", "TikTok"}, local.settings.MonitoredApps)
	assert.Equal(t, models.StatusAllClear, local.settings.TraineeStatus)
}

func TestRemoteSaveFailureStillCommitsLocally(t *testing.T) {
	local := &fakeLocal{settings: baseSettings()}
	remote := &fakeRemote{settings: baseSettings(), putErr: errors.New("backend down")}
	ob := &fakeOutbox{status: models.StatusCutOff, hasStatus: true}
	svc := New("trainee-1", ob, local, remote, &fakeShieldControl{})

	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, models.StatusCutOff, local.settings.TraineeStatus)
	assert.Equal(t, 1, remote.puts)
}

func TestSyncPreservesServerSideRelationshipChanges(t *testing.T) {
	// While the device was offline, a role request resolved server-side and
	// added a coach. Draining a cutoff afterwards must not roll that back.
	serverSide := baseSettings()
	serverSide.CoachIDs = []string{"coach-9"}
	remote := &fakeRemote{settings: serverSide}

	local := &fakeLocal{settings: baseSettings()}
	ob := &fakeOutbox{status: models.StatusCutOff, hasStatus: true, appList: []string{"TikTok"}, hasList: true}
	svc := New("trainee-1", ob, local, remote, &fakeShieldControl{active: true})

	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, models.StatusCutOff, remote.settings.TraineeStatus)
	assert.Equal(t, []string{"Instagram", "TikTok"}, remote.settings.MonitoredApps)
	assert.Equal(t, []string{"coach-9"}, remote.settings.CoachIDs)
}

func TestRemoteUnlockClearsShieldAndStatus(t *testing.T) {
	settings := baseSettings()
	settings.TraineeStatus = models.StatusCutOff
	local := &fakeLocal{settings: settings}

	unlocked := baseSettings()
	unlocked.TraineeStatus = models.StatusAllClear
	remote := &fakeRemote{settings: unlocked}

	sh := &fakeShieldControl{active: true}
	svc := New("trainee-1", &fakeOutbox{}, local, remote, sh)

	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, 1, sh.cleared)
	assert.False(t, sh.active)
	assert.Equal(t, models.StatusAllClear, local.settings.TraineeStatus)

	// Converged: a second pass does nothing further.
	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, 1, sh.cleared)
}

func TestRemoteFetchFailureIsSwallowed(t *testing.T) {
	settings := baseSettings()
	settings.TraineeStatus = models.StatusCutOff
	local := &fakeLocal{settings: settings}
	remote := &fakeRemote{getErr: errors.New("offline")}
	sh := &fakeShieldControl{active: true}
	svc := New("trainee-1", &fakeOutbox{}, local, remote, sh)

	require.NoError(t, svc.Run(context.Background()))

	assert.True(t, sh.active)
	assert.Equal(t, models.StatusCutOff, local.settings.TraineeStatus)
}
