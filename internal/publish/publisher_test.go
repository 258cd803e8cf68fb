package publish

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspact/focuspact/internal/models"
	"github.com/focuspact/focuspact/internal/signedcmd"
)

func TestPublishNowSignsPayload(t *testing.T) {
	secret := []byte("pact-secret")
	received := make(chan StatusPush, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var push StatusPush
		require.NoError(t, json.NewDecoder(r.Body).Decode(&push))
		received <- push
	}))
	defer srv.Close()

	p := NewStatusPublisher(srv.URL, secret)
	require.NoError(t, p.PublishNow("trainee-1", models.StatusCutOff))

	push := <-received
	assert.Equal(t, "trainee-1", push.UID)
	assert.Equal(t, "cutOff", push.Status)

	fields := []string{push.UID, push.Status, strconv.FormatInt(push.TS, 10)}
	assert.True(t, signedcmd.Verify(fields, push.Sig, secret, signedcmd.DefaultMaxAge))
}

func TestPublishNowReturnsErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewStatusPublisher(srv.URL, []byte("s"))
	assert.Error(t, p.PublishNow("trainee-1", models.StatusAllClear))
}

func TestPublishDoesNotBlockCaller(t *testing.T) {
	// Endpoint that nobody is listening on; the dial will fail slowly or fast,
	// but Publish must return control immediately either way.
	p := NewStatusPublisher("http://127.0.0.1:1/status", []byte("s"))

	start := time.Now()
	p.Publish("trainee-1", models.StatusAllClear)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
