// Package monitor decides when to impose restrictions based on the OS usage
// tracker's interval and threshold callbacks. It runs inside the sandboxed
// monitor process: no guaranteed wake cadence, no reliable network, and it
// must never panic out of a callback. Everything durable goes through the
// outbox; the remote push is an optimization for near-real-time visibility,
// not the system of record.
package monitor

import (
	"log"
	"time"

	"github.com/focuspact/focuspact/internal/models"
)

// State of the machine within the current 24h interval.
type State string

const (
	StateIdle        State = "idle"
	StateTracking    State = "tracking"
	StateApproaching State = "approaching"
	StateShielded    State = "shielded"
)

// EventType mirrors the usage tracker's callback set. This is deliberately a
// small fixed set, not a general event bus.
type EventType string

const (
	EventIntervalStart    EventType = "intervalStart"
	EventIntervalEnd      EventType = "intervalEnd"
	EventThresholdWarning EventType = "thresholdWarning"
	EventThresholdReached EventType = "thresholdReached"
)

// Event is one tracker callback as delivered to the monitor.
type Event struct {
	Type EventType `json:"type"`
	At   time.Time `json:"at"`
}

// Shield applies or removes the app restriction. Implementations must be
// idempotent: setting the blocked set twice is a no-op.
type Shield interface {
	Apply(apps []string) error
	Clear() error
}

// Mailbox is the monitor's side of the cross-process outbox.
type Mailbox interface {
	SetPendingStatus(status models.TraineeStatus, streakResetAt *time.Time) error
	SetPendingAppList(names []string) error
}

// Publisher pushes a status to the backend, fire-and-forget.
type Publisher interface {
	Publish(uid string, status models.TraineeStatus)
}

// SettingsSource supplies the trainee's current settings. The monitor reads
// its local cache; it never blocks a callback on the network.
type SettingsSource interface {
	Current() (*models.UserSettings, error)
}

// Machine is the per-device monitoring/shielding state machine.
type Machine struct {
	uid      string
	shield   Shield
	mailbox  Mailbox
	pub      Publisher
	settings SettingsSource

	state State
	now   func() time.Time
}

func New(uid string, shield Shield, mailbox Mailbox, pub Publisher, settings SettingsSource) *Machine {
	return &Machine{
		uid:      uid,
		shield:   shield,
		mailbox:  mailbox,
		pub:      pub,
		settings: settings,
		state:    StateIdle,
		now:      time.Now,
	}
}

// SetNow overrides the machine's clock; used by tests.
func (m *Machine) SetNow(now func() time.Time) { m.now = now }

// State returns the machine's current state.
func (m *Machine) State() State { return m.state }

// Handle dispatches one tracker callback. It never returns an error: monitor
// side failures degrade to "state did not update this cycle" and are logged,
// because throwing out of an OS callback would kill the extension.
func (m *Machine) Handle(ev Event) {
	switch ev.Type {
	case EventIntervalStart:
		m.intervalStart()
	case EventIntervalEnd:
		m.intervalEnd()
	case EventThresholdWarning:
		m.thresholdWarning()
	case EventThresholdReached:
		m.thresholdReached()
	default:
		log.Printf("monitor: ignoring unknown event type %q", ev.Type)
	}
}

func (m *Machine) intervalStart() {
	m.state = StateTracking
	if err := m.shield.Clear(); err != nil {
		log.Printf("monitor: clear shield at interval start: %v", err)
	}
	if s := m.currentSettings(); trackingEnabled(s) {
		m.recordAppList(s)
		m.emit(models.StatusAllClear, nil)
	}
}

func (m *Machine) intervalEnd() {
	// The shield never outlives its interval, tracked or not.
	if err := m.shield.Clear(); err != nil {
		log.Printf("monitor: clear shield at interval end: %v", err)
	}
	if s := m.currentSettings(); trackingEnabled(s) {
		m.emit(models.StatusAllClear, nil)
	}
	m.state = StateIdle
}

func (m *Machine) thresholdWarning() {
	s := m.currentSettings()
	if !trackingEnabled(s) {
		return
	}
	m.state = StateApproaching
	// Warn only; no shield yet.
	m.emit(models.StatusAttentionNeeded, nil)
}

func (m *Machine) thresholdReached() {
	s := m.currentSettings()
	if !trackingEnabled(s) {
		return
	}
	m.state = StateShielded
	if s.Mode.Restricts() {
		if err := m.shield.Apply(s.MonitoredApps); err != nil {
			log.Printf("monitor: apply shield: %v", err)
		}
	}
	m.recordAppList(s)
	resetAt := m.now().UTC()
	m.emit(models.StatusCutOff, &resetAt)
}

// recordAppList mirrors the resolved monitored-app names into the outbox so
// the app can persist them on the next sync. The monitor is the only process
// that sees the tracker's selection resolved to display names.
func (m *Machine) recordAppList(s *models.UserSettings) {
	if err := m.mailbox.SetPendingAppList(s.MonitoredApps); err != nil {
		log.Printf("monitor: outbox app list write failed: %v", err)
	}
}

// emit writes the status to the outbox and pushes it remotely. Both are
// attempted on every threshold event; the outbox write is the durable one.
func (m *Machine) emit(status models.TraineeStatus, streakResetAt *time.Time) {
	if err := m.mailbox.SetPendingStatus(status, streakResetAt); err != nil {
		log.Printf("monitor: outbox write failed: %v", err)
	}
	m.pub.Publish(m.uid, status)
}

func (m *Machine) currentSettings() *models.UserSettings {
	s, err := m.settings.Current()
	if err != nil {
		log.Printf("monitor: read settings: %v", err)
		return nil
	}
	return s
}

// trackingEnabled reports whether the trainee finished onboarding and has a
// monitored app selection to enforce against.
func trackingEnabled(s *models.UserSettings) bool {
	return s != nil && s.OnboardingCompleted && len(s.MonitoredApps) > 0
}
