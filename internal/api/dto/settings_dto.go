package dto

// UpdateSettingRequest payload for PUT /settings.
type UpdateSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingResponse echoes the stored key/value pair.
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
