package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/focuspact/focuspact/internal/services"
	"github.com/gorilla/websocket"
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// StatusClientMessage represents messages coming from the frontend over WebSocket.
type StatusClientMessage struct {
	Type string `json:"type"` // "watch", "unwatch", "ping"
	UID  string `json:"uid,omitempty"`
}

// StatusWebSocket streams trainee status changes to a watching coach.
// Authentication uses the existing session token (Authorization: Bearer
// <token>, or ?token= for browser clients). The initial trainee comes from
// the `uid` query parameter; more can be watched with "watch" messages.
func StatusWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}
	callerID := userID.String()

	uid := strings.TrimSpace(r.URL.Query().Get("uid"))
	if uid == "" {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return
	}

	if !canWatch(r, callerID, uid) {
		http.Error(w, "you are not a coach of this trainee", http.StatusForbidden)
		return
	}

	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	watcher := services.RegisterWatcher(userID, conn)
	defer services.UnregisterWatcher(userID)
	services.WatchTrainee(userID, uid)

	// Seed the connection with the current status so the client doesn't wait
	// for the next push. Snapshot writes go through the watcher so they never
	// interleave with fan-out writes.
	if status, err := services.CachedStatus(r.Context(), uid); err == nil {
		_ = watcher.WriteJSON(services.StatusEvent{
			Type:      "status",
			UID:       uid,
			Status:    string(status),
			Timestamp: time.Now().UTC(),
		})
	}

	conn.SetReadLimit(16 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg StatusClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "watch":
			target := strings.TrimSpace(msg.UID)
			if target == "" || !canWatch(r, callerID, target) {
				continue
			}
			services.WatchTrainee(userID, target)
			if status, err := services.CachedStatus(r.Context(), target); err == nil {
				_ = watcher.WriteJSON(services.StatusEvent{
					Type:      "status",
					UID:       target,
					Status:    string(status),
					Timestamp: time.Now().UTC(),
				})
			}
		case "unwatch":
			if msg.UID != "" {
				services.UnwatchTrainee(userID, msg.UID)
			}
		case "ping":
			_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		default:
			// Ignore unknown types
		}
	}
}

// canWatch reports whether callerID may observe uid's status. Trainees can
// always watch themselves.
func canWatch(r *http.Request, callerID, uid string) bool {
	if callerID == uid {
		return true
	}
	settings, err := services.GetSettings(r.Context(), uid)
	if err != nil {
		return false
	}
	return settings.HasCoach(callerID)
}
