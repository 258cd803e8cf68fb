package signedcmd

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("pact-secret")
	fields := []string{"trainee-1", "cutOff", Timestamp()}

	sig := Sign(fields, secret)
	assert.True(t, Verify(fields, sig, secret, DefaultMaxAge))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	fields := []string{"trainee-1", "cutOff", Timestamp()}
	sig := Sign(fields, []byte("secret-a"))
	assert.False(t, Verify(fields, sig, []byte("secret-b"), DefaultMaxAge))
}

func TestVerifyRejectsTamperedField(t *testing.T) {
	secret := []byte("pact-secret")
	fields := []string{"trainee-1", "cutOff", Timestamp()}
	sig := Sign(fields, secret)

	fields[1] = "allClear"
	assert.False(t, Verify(fields, sig, secret, DefaultMaxAge))
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	secret := []byte("pact-secret")
	old := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
	fields := []string{"trainee-1", "cutOff", old}

	// Signature itself is valid; only the window has elapsed.
	sig := Sign(fields, secret)
	assert.False(t, Verify(fields, sig, secret, DefaultMaxAge))
}

func TestVerifyRejectsFutureTimestamp(t *testing.T) {
	secret := []byte("pact-secret")
	future := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	fields := []string{"trainee-1", "cutOff", future}

	// A valid signature over a far-future timestamp would otherwise stay
	// replayable until the window finally catches up to it.
	sig := Sign(fields, secret)
	assert.False(t, Verify(fields, sig, secret, DefaultMaxAge))

	// Small clock skew inside the window is still fine.
	near := strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)
	fields = []string{"trainee-1", "cutOff", near}
	sig = Sign(fields, secret)
	assert.True(t, Verify(fields, sig, secret, DefaultMaxAge))
}

func TestVerifyRejectsNonNumericTimestamp(t *testing.T) {
	secret := []byte("pact-secret")
	fields := []string{"trainee-1", "cutOff", "not-a-ts"}
	sig := Sign(fields, secret)
	assert.False(t, Verify(fields, sig, secret, DefaultMaxAge))
}

func TestVerifyAcceptsUppercaseHex(t *testing.T) {
	secret := []byte("pact-secret")
	fields := []string{"trainee-1", "allClear", Timestamp()}
	sig := Sign(fields, secret)

	upper := ""
	for _, r := range sig {
		if r >= 'a' && r <= 'f' {
			r = r - 'a' + 'A'
		}
		upper += string(r)
	}
	assert.True(t, Verify(fields, upper, secret, DefaultMaxAge))
}
