// Package signedcmd builds and verifies HMAC-authenticated command payloads.
//
// The monitor extension, the app, and the backend all hold the same long-lived
// shared secret, so a signed command authenticates the caller without any
// session: the sandboxed monitor has no session to present.
package signedcmd

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxAge bounds the replay window for signed commands.
const DefaultMaxAge = 5 * time.Minute

// Sign computes the HMAC-SHA256 of fields joined with "|" and returns it as
// lowercase hex. The last field is expected to be a unix-seconds timestamp.
func Sign(fields []string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature over fields and compares it in constant
// time, and rejects commands whose timestamp (the last field, unix seconds)
// is more than maxAge away from now in either direction, so a forged future
// timestamp cannot stretch the replay window. A bad signature and a stale
// timestamp are deliberately indistinguishable to the caller.
func Verify(fields []string, sig string, secret []byte, maxAge time.Duration) bool {
	if len(fields) == 0 {
		return false
	}
	ts, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return false
	}
	age := time.Since(time.Unix(ts, 0))
	fresh := age <= maxAge && age >= -maxAge
	expected := Sign(fields, secret)
	ok := hmac.Equal([]byte(expected), []byte(strings.ToLower(sig)))
	return ok && fresh
}

// Timestamp returns the current unix-seconds timestamp as a signable field.
func Timestamp() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}
