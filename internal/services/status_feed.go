package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/focuspact/focuspact/internal/database"
	"github.com/google/uuid"
)

// StatusEvent represents the payload broadcast over Redis and WebSocket when
// a trainee's status changes.
type StatusEvent struct {
	Type      string    `json:"type"`
	UID       string    `json:"uid,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// WatcherConnection tracks a single coach's WebSocket connection and the
// trainees it is watching.
type WatcherConnection struct {
	UserID   uuid.UUID
	Conn     StatusConn
	Watching map[string]struct{}
	mu       sync.RWMutex

	writeMu sync.Mutex
}

// WriteJSON serializes writes to the underlying connection. Gorilla
// connections support one concurrent writer, and fan-out goroutines and the
// handler's snapshot replies would otherwise race.
func (wc *WatcherConnection) WriteJSON(v interface{}) error {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	return wc.Conn.WriteJSON(v)
}

// StatusConn is the minimal interface our WebSocket implementation must satisfy.
type StatusConn interface {
	WriteJSON(v interface{}) error
	ReadJSON(dest interface{}) error
	Close() error
}

// StatusHub is a global registry of watcher connections.
type StatusHub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*WatcherConnection
}

var (
	statusHub    = &StatusHub{connections: make(map[uuid.UUID]*WatcherConnection)}
	redisStarted sync.Once
)

// RegisterWatcher registers or replaces a coach's connection.
func RegisterWatcher(userID uuid.UUID, conn StatusConn) *WatcherConnection {
	wc := &WatcherConnection{
		UserID:   userID,
		Conn:     conn,
		Watching: make(map[string]struct{}),
	}

	statusHub.mu.Lock()
	statusHub.connections[userID] = wc
	statusHub.mu.Unlock()

	return wc
}

// UnregisterWatcher removes a coach's connection.
func UnregisterWatcher(userID uuid.UUID) {
	statusHub.mu.Lock()
	delete(statusHub.connections, userID)
	statusHub.mu.Unlock()
}

// WatchTrainee tracks a subscription in-memory for fan-out.
func WatchTrainee(userID uuid.UUID, traineeID string) {
	statusHub.mu.RLock()
	wc, ok := statusHub.connections[userID]
	statusHub.mu.RUnlock()
	if !ok {
		return
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.Watching[traineeID] = struct{}{}
}

// UnwatchTrainee removes a subscription.
func UnwatchTrainee(userID uuid.UUID, traineeID string) {
	statusHub.mu.RLock()
	wc, ok := statusHub.connections[userID]
	statusHub.mu.RUnlock()
	if !ok {
		return
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	delete(wc.Watching, traineeID)
}

// FanOutStatusEvent sends an event to all local connections watching the trainee.
func FanOutStatusEvent(event StatusEvent) {
	if event.UID == "" {
		return
	}

	statusHub.mu.RLock()
	defer statusHub.mu.RUnlock()

	for _, wc := range statusHub.connections {
		wc.mu.RLock()
		_, watching := wc.Watching[event.UID]
		wc.mu.RUnlock()
		if !watching {
			continue
		}

		// Non-blocking best-effort send.
		go func(c *WatcherConnection) {
			if err := c.WriteJSON(event); err != nil {
				log.Printf("error writing status event to websocket: %v", err)
			}
		}(wc)
	}
}

// StartRedisStatusSubscriber ensures a single shared Redis listener per instance.
func StartRedisStatusSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; status subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, "status:*")
			defer pubsub.Close()

			log.Println("✅ Status Redis subscriber started (pattern: status:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event StatusEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal status event: %v", err)
					continue
				}

				// Fan out to local connections.
				FanOutStatusEvent(event)
			}
		}()
	}
}

// PublishStatusEvent publishes an event to Redis so every instance can fan it
// out to its local watchers.
func PublishStatusEvent(ctx context.Context, event StatusEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := "status:" + event.UID
	return database.RedisClient.Publish(ctx, channel, data).Err()
}
