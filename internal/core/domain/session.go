package domain

import "time"

// RememberToken is the persisted "remember me" credential. It is distinct
// from the primary session token and only shortens the next sign-in.
type RememberToken struct {
	Token   string    `json:"token"`
	UserID  string    `json:"user_id,omitempty"`
	Expires time.Time `json:"expires"`
}

// Expired reports whether the token is no longer usable at now.
func (t RememberToken) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

// DeviceInfo carries the coarse device signals a client reports.
type DeviceInfo struct {
	UserAgent    string `json:"user_agent"`
	Platform     string `json:"platform"`
	Language     string `json:"language"`
	Timezone     string `json:"timezone"`
	ScreenWidth  int    `json:"screen_width"`
	ScreenHeight int    `json:"screen_height"`
	DeviceType   string `json:"device_type"`
}

// Heartbeat is a single liveness ping from an authenticated client.
type Heartbeat struct {
	UserID      string     `json:"user_id,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	Device      DeviceInfo `json:"device"`
	SentAt      time.Time  `json:"sent_at"`
}

// SessionRecord is the server-side view of a device's last heartbeat.
type SessionRecord struct {
	UserID      string     `json:"user_id"`
	Fingerprint string     `json:"fingerprint"`
	Device      DeviceInfo `json:"device"`
	LastSeen    time.Time  `json:"last_seen"`
}
