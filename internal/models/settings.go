package models

import "time"

// UserSettings is the durable per-trainee document, keyed by uid in the
// settings collection. It is owned by the trainee and mutated only through
// the reconciliation path or explicit user edits; both the device cache and
// the remote store hold copies of it.
type UserSettings struct {
	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	MonitoredApps         []string `bson:"monitored_apps" json:"monitored_apps"`
	DailyThresholdHours   int      `bson:"daily_threshold_hours" json:"daily_threshold_hours"`
	DailyThresholdMinutes int      `bson:"daily_threshold_minutes" json:"daily_threshold_minutes"`

	Mode            Mode          `bson:"mode" json:"mode"`
	TraineeStatus   TraineeStatus `bson:"trainee_status" json:"trainee_status"`
	StreakStartDate *time.Time    `bson:"streak_start_date,omitempty" json:"streak_start_date,omitempty"`

	// CoachIDs/TraineeIDs are the authoritative relationship projection once
	// role requests resolve. The phone-keyed lists below are a deprecated
	// fallback and must never win once the uid lists are non-empty.
	CoachIDs   []string `bson:"coach_ids" json:"coach_ids"`
	TraineeIDs []string `bson:"trainee_ids" json:"trainee_ids"`

	LegacyCoachPhones   []string `bson:"legacy_coach_phones,omitempty" json:"legacy_coach_phones,omitempty"`
	LegacyTraineePhones []string `bson:"legacy_trainee_phones,omitempty" json:"legacy_trainee_phones,omitempty"`

	OnboardingCompleted bool   `bson:"onboarding_completed" json:"onboarding_completed"`
	ProfileImageURL     string `bson:"profile_image_url,omitempty" json:"profile_image_url,omitempty"`
}

// DailyThreshold returns the configured daily budget as a duration.
func (s *UserSettings) DailyThreshold() time.Duration {
	return time.Duration(s.DailyThresholdHours)*time.Hour +
		time.Duration(s.DailyThresholdMinutes)*time.Minute
}

// HasCoach reports whether uid is currently an authorized coach of this trainee.
func (s *UserSettings) HasCoach(uid string) bool {
	for _, id := range s.CoachIDs {
		if id == uid {
			return true
		}
	}
	return false
}

// HasTrainee reports whether uid is currently a trainee of this user.
func (s *UserSettings) HasTrainee(uid string) bool {
	for _, id := range s.TraineeIDs {
		if id == uid {
			return true
		}
	}
	return false
}

// DefaultSettings returns an empty settings document for uid. Storage decode
// failures fall back to this rather than failing the caller.
func DefaultSettings(uid string) *UserSettings {
	now := time.Now().UTC()
	return &UserSettings{
		ID:            uid,
		CreatedAt:     now,
		UpdatedAt:     now,
		Mode:          ModeCoach,
		TraineeStatus: StatusNone,
	}
}

// SettingsPatch carries the fields a settings update may change. Nil fields
// are left untouched so partial edits never clobber concurrent writers. The
// same shape travels over the PATCH settings endpoint, so device sync and app
// edits merge instead of replacing each other's documents.
type SettingsPatch struct {
	MonitoredApps         []string       `json:"monitored_apps,omitempty"`
	DailyThresholdHours   *int           `json:"daily_threshold_hours,omitempty"`
	DailyThresholdMinutes *int           `json:"daily_threshold_minutes,omitempty"`
	Mode                  *Mode          `json:"mode,omitempty"`
	TraineeStatus         *TraineeStatus `json:"trainee_status,omitempty"`
	StreakStartDate       *time.Time     `json:"streak_start_date,omitempty"`
	OnboardingCompleted   *bool          `json:"onboarding_completed,omitempty"`
	ProfileImageURL       *string        `json:"profile_image_url,omitempty"`
}
