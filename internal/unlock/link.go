// Package unlock builds and checks the signed one-shot unlock URL a coach can
// trigger out-of-band (typically via a deep link) to clear a trainee's shield.
package unlock

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/signedcmd"
)

var (
	// ErrNotCoach rejects links signed for an identity that is not currently
	// an authorized coach of the trainee.
	ErrNotCoach = errors.New("coach is not authorized for this trainee")
	// ErrHardMode rejects all remote unlocks while the trainee is in hard mode.
	ErrHardMode = errors.New("trainee cannot be unlocked remotely")
)

// Request is the decoded query side of GET <unlock-endpoint>.
type Request struct {
	TraineeID string
	CoachID   string
	TS        int64
	Sig       string
}

// MakeURL returns the signed unlock URL for coachID acting on traineeID.
// Message = "{traineeID}|{coachID}|{ts}", per the shared command codec.
func MakeURL(traineeID, coachID string, secret []byte, base string) (string, error) {
	endpoint, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	ts := signedcmd.Timestamp()
	sig := signedcmd.Sign([]string{traineeID, coachID, ts}, secret)

	q := url.Values{}
	q.Set("uid", traineeID)
	q.Set("coach", coachID)
	q.Set("ts", ts)
	q.Set("sig", sig)
	endpoint.RawQuery = q.Encode()
	return endpoint.String(), nil
}

// Parse extracts an unlock request from query values. It does not verify the
// signature; call Verify for that.
func Parse(q url.Values) (Request, bool) {
	req := Request{
		TraineeID: q.Get("uid"),
		CoachID:   q.Get("coach"),
		Sig:       q.Get("sig"),
	}
	ts, err := strconv.ParseInt(q.Get("ts"), 10, 64)
	if err != nil || req.TraineeID == "" || req.CoachID == "" || req.Sig == "" {
		return Request{}, false
	}
	req.TS = ts
	return req, true
}

// Verify checks the request's signature and replay window. Signature mismatch
// and staleness are indistinguishable to the caller.
func Verify(req Request, secret []byte, maxAge time.Duration) bool {
	fields := []string{req.TraineeID, req.CoachID, strconv.FormatInt(req.TS, 10)}
	return signedcmd.Verify(fields, req.Sig, secret, maxAge)
}

// Authorize decides whether a signature-verified request may act on the
// trainee described by settings. A valid signature is necessary but not
// sufficient: the coach must currently hold the role, and hard mode refuses
// every remote unlock.
func Authorize(req Request, settings *models.UserSettings) error {
	if !settings.HasCoach(req.CoachID) {
		return ErrNotCoach
	}
	if settings.Mode == models.ModeHard {
		return ErrHardMode
	}
	return nil
}
