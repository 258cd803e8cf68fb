// Package publish pushes status changes to the backend. The push is
// best-effort: the caller may be the sandboxed monitor returning control to an
// OS callback, so Publish never blocks on the network and never surfaces a
// failure. Convergence is guaranteed by the outbox drain on next foreground,
// not by this path.
package publish

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/signedcmd"
)

// StatusPush is the wire body for POST <status-endpoint>. The receiver must
// re-verify sig and the timestamp window before trusting uid or status.
type StatusPush struct {
	UID    string `json:"uid"`
	Status string `json:"status"`
	TS     int64  `json:"ts"`
	Sig    string `json:"sig"`
}

type StatusPublisher struct {
	endpoint string
	secret   []byte
	client   *http.Client
}

func NewStatusPublisher(endpoint string, secret []byte) *StatusPublisher {
	return &StatusPublisher{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish signs and posts the status on a background goroutine and returns
// immediately. Network failures are logged and dropped; there is no retry.
func (p *StatusPublisher) Publish(uid string, status models.TraineeStatus) {
	go func() {
		if err := p.PublishNow(uid, status); err != nil {
			log.Printf("status push for %s dropped: %v", uid, err)
		}
	}()
}

// PublishNow performs one synchronous push. Exposed for callers that are not
// inside an OS callback (and for tests).
func (p *StatusPublisher) PublishNow(uid string, status models.TraineeStatus) error {
	ts := time.Now().Unix()
	fields := []string{uid, string(status), strconv.FormatInt(ts, 10)}
	body := StatusPush{
		UID:    uid,
		Status: string(status),
		TS:     ts,
		Sig:    signedcmd.Sign(fields, p.secret),
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := p.client.Post(p.endpoint, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The sender ignores the response body; only log-worthy signal is status.
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}
	return nil
}
