package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspact/focuspact/internal/localdb"
	"github.com/focuspact/focuspact/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := localdb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestConsumeEmptyMailbox(t *testing.T) {
	s := newTestStore(t)

	_, _, ok, err := s.ConsumePendingStatus()
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.ConsumePendingAppList()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatusWriteThenConsume(t *testing.T) {
	s := newTestStore(t)
	reset := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SetPendingStatus(models.StatusCutOff, &reset))

	status, got, ok, err := s.ConsumePendingStatus()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StatusCutOff, status)
	require.NotNil(t, got)
	assert.Equal(t, reset.Unix(), got.Unix())

	// Consume clears the slot.
	_, _, ok, err = s.ConsumePendingStatus()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOverwriteCollapsesWrites(t *testing.T) {
	s := newTestStore(t)
	reset := time.Now().UTC()

	require.NoError(t, s.SetPendingStatus(models.StatusAttentionNeeded, nil))
	require.NoError(t, s.SetPendingStatus(models.StatusCutOff, &reset))

	status, got, ok, err := s.ConsumePendingStatus()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StatusCutOff, status)
	assert.NotNil(t, got)

	// The intermediate attentionNeeded is gone, not queued behind cutOff.
	_, _, ok, err = s.ConsumePendingStatus()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilResetClearsStaleMarker(t *testing.T) {
	s := newTestStore(t)
	reset := time.Now().UTC()

	require.NoError(t, s.SetPendingStatus(models.StatusCutOff, &reset))
	require.NoError(t, s.SetPendingStatus(models.StatusAllClear, nil))

	status, got, ok, err := s.ConsumePendingStatus()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StatusAllClear, status)
	assert.Nil(t, got)
}

func TestAppListRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetPendingAppList([]string{"Instagram", "TikTok"}))
	require.NoError(t, s.SetPendingAppList([]string{"Instagram"}))

	names, ok, err := s.ConsumePendingAppList()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Instagram"}, names)

	_, ok, err = s.ConsumePendingAppList()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlotsAreIndependent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetPendingStatus(models.StatusAttentionNeeded, nil))
	require.NoError(t, s.SetPendingAppList([]string{"YouTube"}))

	names, ok, err := s.ConsumePendingAppList()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"YouTube"}, names)

	status, _, ok, err := s.ConsumePendingStatus()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StatusAttentionNeeded, status)
}
