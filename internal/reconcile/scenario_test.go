package reconcile

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspact/focuspact/internal/localdb"
	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/monitor"
	"github.com/focuspact/focuspact/internal/outbox"
	"github.com/focuspact/focuspact/internal/settingscache"
	"github.com/focuspact/focuspact/internal/shield"
	"github.com/focuspact/focuspact/internal/signedcmd"
	"github.com/focuspact/focuspact/internal/unlock"
)

type nopPublisher struct{}

func (nopPublisher) Publish(uid string, status models.TraineeStatus) {}

// Tracks the full cutoff-then-remote-unlock cycle across the real local
// storage: monitor shields and writes the outbox, reconciliation drains it,
// a coach's signed link clears the remote copy, the next pass converges.
func TestCutoffUnlockCycle(t *testing.T) {
	secret := []byte("pact-secret")

	db, err := localdb.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	cache := settingscache.New(db)
	box := outbox.New(db)
	shieldCtl := shield.New(db)

	settings := &models.UserSettings{
		ID:                    "trainee-1",
		Mode:                  models.ModeCoach,
		TraineeStatus:         models.StatusAllClear,
		MonitoredApps:         []string{"Instagram", "TikTok"},
		DailyThresholdHours:   1,
		DailyThresholdMinutes: 30,
		CoachIDs:              []string{"coach-1"},
		OnboardingCompleted:   true,
	}
	require.NoError(t, cache.Put(settings))

	remote := &fakeRemote{settings: settings}

	machine := monitor.New("trainee-1", shieldCtl, box, nopPublisher{}, settingscache.NewSource(cache, "trainee-1"))
	machine.Handle(monitor.Event{Type: monitor.EventIntervalStart})
	machine.Handle(monitor.Event{Type: monitor.EventThresholdReached})

	// The monitor shielded and left the handoff in the outbox.
	active, err := shieldCtl.Active()
	require.NoError(t, err)
	assert.True(t, active)

	// App foregrounds: reconciliation drains the cutoff into the document.
	service := New("trainee-1", box, cache, remote, shieldCtl)
	require.NoError(t, service.Run(context.Background()))

	merged, err := cache.Get("trainee-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCutOff, merged.TraineeStatus)
	assert.NotNil(t, merged.StreakStartDate)
	assert.Equal(t, models.StatusCutOff, remote.settings.TraineeStatus)

	_, _, ok, err := box.ConsumePendingStatus()
	require.NoError(t, err)
	assert.False(t, ok)

	// Coach mints an unlock link; the backend verifies, authorizes, and
	// clears the remote copy.
	raw, err := unlock.MakeURL("trainee-1", "coach-1", secret, "https://api.focuspact.app/api/unlock")
	require.NoError(t, err)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	req, ok := unlock.Parse(parsed.Query())
	require.True(t, ok)
	require.True(t, unlock.Verify(req, secret, signedcmd.DefaultMaxAge))
	require.NoError(t, unlock.Authorize(req, remote.settings))
	remote.settings.TraineeStatus = models.StatusAllClear

	// Next foreground converges: shield down, local status clear.
	require.NoError(t, service.Run(context.Background()))

	active, err = shieldCtl.Active()
	require.NoError(t, err)
	assert.False(t, active)

	final, err := cache.Get("trainee-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAllClear, final.TraineeStatus)
}
