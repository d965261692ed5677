package session

// Notifier surfaces session events to the user.
type Notifier interface {
	// SessionExpired is the blocking notice shown after an inactivity sign-out.
	SessionExpired()
	// ReauthRequired prompts the user to sign in again.
	ReauthRequired()
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields are no-ops.
type NotifierFuncs struct {
	OnSessionExpired func()
	OnReauthRequired func()
}

func (n NotifierFuncs) SessionExpired() {
	if n.OnSessionExpired != nil {
		n.OnSessionExpired()
	}
}

func (n NotifierFuncs) ReauthRequired() {
	if n.OnReauthRequired != nil {
		n.OnReauthRequired()
	}
}
