package models

import "time"

// UserRole represents the four account kinds that can sign in.
type UserRole string

const (
	RoleAdmin   UserRole = "Admin"
	RoleTeacher UserRole = "Teacher"
	RoleStudent UserRole = "Student"
	RoleParent  UserRole = "Parent"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Preferences are per account UI and delivery settings.
type Preferences struct {
	Theme              string `bson:"theme" json:"theme"`
	EmailNotifications bool   `bson:"emailNotifications" json:"emailNotifications"`
	SMSNotifications   bool   `bson:"smsNotifications" json:"smsNotifications"`
}

// DefaultPreferences mirrors what a freshly registered account gets.
func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", EmailNotifications: true}
}

// Notification is an inbox item embedded in an account document.
type Notification struct {
	ID        string    `bson:"id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Message   string    `bson:"message" json:"message"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Account is the credential projection shared by every role collection.
type Account struct {
	ID            string         `bson:"_id"`
	Name          string         `bson:"name"`
	Email         string         `bson:"email,omitempty"`
	PasswordHash  string         `bson:"password"`
	School        string         `bson:"school,omitempty"`
	SchoolName    string         `bson:"schoolName,omitempty"`
	RollNum       int            `bson:"rollNum,omitempty"`
	Class         string         `bson:"class,omitempty"`
	Phone         string         `bson:"phone,omitempty"`
	Notifications []Notification `bson:"notifications,omitempty"`
	Preferences   *Preferences   `bson:"preferences,omitempty"`
	IsActive      *bool          `bson:"isActive,omitempty"`
	Role          UserRole       `bson:"-"`
}

// SchoolID returns the tenant root for the account. Admins are their own school.
func (a *Account) SchoolID() string {
	if a.Role == RoleAdmin {
		return a.ID
	}
	return a.School
}

// Active treats a missing flag as active.
func (a *Account) Active() bool {
	return a.IsActive == nil || *a.IsActive
}
