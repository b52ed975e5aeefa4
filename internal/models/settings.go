package models

// UpdateProfileRequest edits the caller's own profile.
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// UpdatePreferencesRequest edits the caller's preferences.
type UpdatePreferencesRequest struct {
	Theme              *string `json:"theme" validate:"omitempty,oneof=light dark"`
	EmailNotifications *bool   `json:"emailNotifications"`
	SMSNotifications   *bool   `json:"smsNotifications"`
}

// SendNotificationRequest pushes a notification to an account.
type SendNotificationRequest struct {
	Recipient Ref    `json:"recipient" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Message   string `json:"message" validate:"required"`
}
