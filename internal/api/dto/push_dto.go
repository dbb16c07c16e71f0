package dto

// RegisterPushTokenRequest registers or refreshes a push token.
type RegisterPushTokenRequest struct {
	Token  string `json:"token"`
	Device string `json:"device,omitempty"`
}

// UnregisterPushTokenRequest removes a push token.
type UnregisterPushTokenRequest struct {
	Token string `json:"token"`
}
