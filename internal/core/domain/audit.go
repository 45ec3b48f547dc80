package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLoginThrottled AuthEventType = "login_throttled"
	EventUserRegistered AuthEventType = "user_registered"
	EventUserUpdated    AuthEventType = "user_updated"
	EventUserDeleted    AuthEventType = "user_deleted"
)

// AuthEvent records something that happened to an account. It never carries
// passwords or token material.
type AuthEvent struct {
	Type      AuthEventType
	Username  string
	Actor     string // username of the admin for management events, empty otherwise
	RemoteIP  string
	Timestamp time.Time
}
