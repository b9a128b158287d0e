package dto

import "time"

// SettingResponse is one stored setting with its decoded value.
type SettingResponse struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	Description string      `json:"description,omitempty"`
	UpdatedBy   *uint       `json:"updated_by"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SettingsUpdateRequest replaces any subset of settings. Values are checked
// against the settings document schema.
type SettingsUpdateRequest struct {
	Settings map[string]interface{} `json:"settings" validate:"required,min=1"`
}
