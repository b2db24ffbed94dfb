package models

import "time"

// ControllerState is the capture controller's alerting state.
type ControllerState int

const (
	StateMonitoring ControllerState = iota
	StateCooldown
)

func (s ControllerState) String() string {
	switch s {
	case StateMonitoring:
		return "monitoring"
	case StateCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// MarshalText lets the state appear by name in JSON.
func (s ControllerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a read-only view of the controller for display and status.
// Values may be slightly stale.
type Snapshot struct {
	State        ControllerState `json:"state"`
	PhotosTaken  int64           `json:"photos_taken"`
	LastPhotoURL string          `json:"last_photo_url,omitempty"`
	LastMotionAt *time.Time      `json:"last_motion_at,omitempty"`
}
