package unlock

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/signedcmd"
)

func TestMakeURLRoundTrip(t *testing.T) {
	secret := []byte("pact-secret")

	raw, err := MakeURL("trainee-1", "coach-1", secret, "https://api.focuspact.app/api/unlock")
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/api/unlock", parsed.Path)

	req, ok := Parse(parsed.Query())
	require.True(t, ok)
	assert.Equal(t, "trainee-1", req.TraineeID)
	assert.Equal(t, "coach-1", req.CoachID)

	assert.True(t, Verify(req, secret, signedcmd.DefaultMaxAge))
}

func TestVerifyRejectsSwappedIdentities(t *testing.T) {
	secret := []byte("pact-secret")
	raw, err := MakeURL("trainee-1", "coach-1", secret, "https://api.focuspact.app/api/unlock")
	require.NoError(t, err)

	parsed, _ := url.Parse(raw)
	req, ok := Parse(parsed.Query())
	require.True(t, ok)

	// A different coach replaying the trainee's link must fail.
	req.CoachID = "coach-2"
	assert.False(t, Verify(req, secret, signedcmd.DefaultMaxAge))
}

func TestVerifyRejectsExpiredLink(t *testing.T) {
	secret := []byte("pact-secret")
	ts := time.Now().Add(-time.Hour).Unix()
	tsStr := strconv.FormatInt(ts, 10)
	req := Request{
		TraineeID: "trainee-1",
		CoachID:   "coach-1",
		TS:        ts,
		Sig:       signedcmd.Sign([]string{"trainee-1", "coach-1", tsStr}, secret),
	}
	assert.False(t, Verify(req, secret, signedcmd.DefaultMaxAge))
}

func TestParseRejectsMissingParams(t *testing.T) {
	q := url.Values{}
	q.Set("uid", "trainee-1")
	q.Set("ts", "12345")
	_, ok := Parse(q)
	assert.False(t, ok)

	q.Set("coach", "coach-1")
	q.Set("sig", "ff")
	q.Set("ts", "not-a-number")
	_, ok = Parse(q)
	assert.False(t, ok)
}

func TestAuthorize(t *testing.T) {
	req := Request{TraineeID: "trainee-1", CoachID: "coach-1"}

	settings := models.DefaultSettings("trainee-1")
	settings.CoachIDs = []string{"coach-1"}

	assert.NoError(t, Authorize(req, settings))

	stranger := Request{TraineeID: "trainee-1", CoachID: "coach-2"}
	assert.ErrorIs(t, Authorize(stranger, settings), ErrNotCoach)
}

func TestAuthorizeRefusesHardMode(t *testing.T) {
	// Even an authorized coach with a valid link cannot lift hard mode.
	req := Request{TraineeID: "trainee-1", CoachID: "coach-1"}

	settings := models.DefaultSettings("trainee-1")
	settings.CoachIDs = []string{"coach-1"}
	settings.Mode = models.ModeHard

	assert.ErrorIs(t, Authorize(req, settings), ErrHardMode)
}
