package models

// TraineeStatus is the trainee's standing within the current monitoring interval.
// It is monotonic within one interval and resets to allClear at interval start.
type TraineeStatus string

const (
	StatusAllClear        TraineeStatus = "allClear"
	StatusAttentionNeeded TraineeStatus = "attentionNeeded"
	StatusCutOff          TraineeStatus = "cutOff"
	StatusNone            TraineeStatus = "noStatus"
)

// ValidStatus reports whether s is one of the known trainee statuses.
func ValidStatus(s TraineeStatus) bool {
	switch s {
	case StatusAllClear, StatusAttentionNeeded, StatusCutOff, StatusNone:
		return true
	}
	return false
}

// Mode controls how strictly the trainee's budget is enforced.
type Mode string

const (
	// ModeChill tracks usage but never blocks apps.
	ModeChill Mode = "chill"
	// ModeCoach blocks at the threshold; an authorized coach can unlock remotely.
	ModeCoach Mode = "coach"
	// ModeHard blocks at the threshold and rejects all remote unlocks.
	ModeHard Mode = "hard"
)

// ValidMode reports whether m is one of the known modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeChill, ModeCoach, ModeHard:
		return true
	}
	return false
}

// Restricts reports whether the mode applies the shield when the budget is hit.
// Unrecognized modes restrict: failing safe beats failing open for an
// accountability tool.
func (m Mode) Restricts() bool {
	return m != ModeChill
}
