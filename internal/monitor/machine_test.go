package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspact/focuspact/internal/models"
)

type fakeShield struct {
	blocked []string
	applied int
	cleared int
}

func (f *fakeShield) Apply(apps []string) error {
	f.blocked = apps
	f.applied++
	return nil
}

func (f *fakeShield) Clear() error {
	f.blocked = nil
	f.cleared++
	return nil
}

type mailboxWrite struct {
	status models.TraineeStatus
	reset  *time.Time
}

type fakeMailbox struct {
	writes  []mailboxWrite
	appList []string
}

func (f *fakeMailbox) SetPendingStatus(status models.TraineeStatus, streakResetAt *time.Time) error {
	f.writes = append(f.writes, mailboxWrite{status: status, reset: streakResetAt})
	return nil
}

func (f *fakeMailbox) SetPendingAppList(names []string) error {
	f.appList = names
	return nil
}

type fakePublisher struct {
	pushed []models.TraineeStatus
}

func (f *fakePublisher) Publish(uid string, status models.TraineeStatus) {
	f.pushed = append(f.pushed, status)
}

type fakeSettings struct {
	s *models.UserSettings
}

func (f *fakeSettings) Current() (*models.UserSettings, error) { return f.s, nil }

func trackedSettings(mode models.Mode) *models.UserSettings {
	return &models.UserSettings{
		ID:                  "trainee-1",
		MonitoredApps:       []string{"Instagram", "TikTok"},
		Mode:                mode,
		OnboardingCompleted: true,
	}
}

func newTestMachine(mode models.Mode) (*Machine, *fakeShield, *fakeMailbox, *fakePublisher) {
	sh := &fakeShield{}
	mb := &fakeMailbox{}
	pub := &fakePublisher{}
	m := New("trainee-1", sh, mb, pub, &fakeSettings{s: trackedSettings(mode)})
	return m, sh, mb, pub
}

func TestThresholdReachedShieldsByMode(t *testing.T) {
	cases := []struct {
		mode     models.Mode
		restrict bool
	}{
		{models.ModeCoach, true},
		{models.ModeHard, true},
		{models.Mode("garbage"), true}, // unrecognized modes fail safe
		{models.ModeChill, false},
	}
	for _, tc := range cases {
		m, sh, mb, pub := newTestMachine(tc.mode)
		m.Handle(Event{Type: EventThresholdReached, At: time.Now()})

		assert.Equal(t, StateShielded, m.State(), "mode %s", tc.mode)
		if tc.restrict {
			assert.Equal(t, []string{"Instagram", "TikTok"}, sh.blocked, "mode %s", tc.mode)
		} else {
			assert.Empty(t, sh.blocked, "mode %s should not shield", tc.mode)
		}

		// Outbox and push happen regardless of mode.
		require.Len(t, mb.writes, 1)
		assert.Equal(t, models.StatusCutOff, mb.writes[0].status)
		assert.NotNil(t, mb.writes[0].reset)
		assert.Equal(t, []models.TraineeStatus{models.StatusCutOff}, pub.pushed)
	}
}

func TestThresholdWarningNeverShields(t *testing.T) {
	m, sh, mb, pub := newTestMachine(models.ModeHard)
	m.Handle(Event{Type: EventThresholdWarning})

	assert.Equal(t, StateApproaching, m.State())
	assert.Zero(t, sh.applied)
	require.Len(t, mb.writes, 1)
	assert.Equal(t, models.StatusAttentionNeeded, mb.writes[0].status)
	assert.Nil(t, mb.writes[0].reset)
	assert.Equal(t, []models.TraineeStatus{models.StatusAttentionNeeded}, pub.pushed)
}

func TestIntervalStartResetsFromAnyState(t *testing.T) {
	for _, prior := range []EventType{EventThresholdWarning, EventThresholdReached} {
		m, sh, _, pub := newTestMachine(models.ModeCoach)
		m.Handle(Event{Type: prior})
		m.Handle(Event{Type: EventIntervalStart})

		assert.Equal(t, StateTracking, m.State(), "prior %s", prior)
		assert.Nil(t, sh.blocked, "shield cleared after %s", prior)
		assert.Equal(t, models.StatusAllClear, pub.pushed[len(pub.pushed)-1])
	}
}

func TestIntervalEndClearsShieldEvenWhenTrackingDisabled(t *testing.T) {
	sh := &fakeShield{blocked: []string{"Instagram"}}
	mb := &fakeMailbox{}
	pub := &fakePublisher{}
	m := New("trainee-1", sh, mb, pub, &fakeSettings{s: &models.UserSettings{ID: "trainee-1"}})

	m.Handle(Event{Type: EventIntervalEnd})

	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, sh.blocked)
	// Tracking disabled: no status emitted.
	assert.Empty(t, mb.writes)
	assert.Empty(t, pub.pushed)
}

func TestThresholdEventsIgnoredWhenTrackingDisabled(t *testing.T) {
	sh := &fakeShield{}
	mb := &fakeMailbox{}
	pub := &fakePublisher{}
	m := New("trainee-1", sh, mb, pub, &fakeSettings{s: nil})

	m.Handle(Event{Type: EventThresholdWarning})
	m.Handle(Event{Type: EventThresholdReached})

	assert.Equal(t, StateIdle, m.State())
	assert.Zero(t, sh.applied)
	assert.Empty(t, mb.writes)
	assert.Empty(t, pub.pushed)
}

func TestUnknownEventIsIgnored(t *testing.T) {
	m, sh, mb, _ := newTestMachine(models.ModeCoach)
	m.Handle(Event{Type: EventType("usageSample")})

	assert.Equal(t, StateIdle, m.State())
	assert.Zero(t, sh.applied)
	assert.Empty(t, mb.writes)
}

func TestMonitorRecordsResolvedAppNames(t *testing.T) {
	m, _, mb, _ := newTestMachine(models.ModeCoach)

	// The monitor is the only process that sees the tracker's selection as
	// display names, so both interval start and cutoff mirror the list into
	// the outbox for the next sync.
	m.Handle(Event{Type: EventIntervalStart})
	assert.Equal(t, []string{"Instagram", "TikTok"}, mb.appList)

	mb.appList = nil
	m.Handle(Event{Type: EventThresholdReached})
	assert.Equal(t, []string{"Instagram", "TikTok"}, mb.appList)
}

func TestStreakResetUsesMachineClock(t *testing.T) {
	m, _, mb, _ := newTestMachine(models.ModeCoach)
	fixed := time.Date(2026, 2, 14, 21, 0, 0, 0, time.UTC)
	m.SetNow(func() time.Time { return fixed })

	m.Handle(Event{Type: EventThresholdReached})

	require.Len(t, mb.writes, 1)
	require.NotNil(t, mb.writes[0].reset)
	assert.Equal(t, fixed, *mb.writes[0].reset)
}
