package models

// RefType discriminates which collection a Ref points into.
type RefType string

const (
	RefAdmin   RefType = "admin"
	RefTeacher RefType = "teacher"
	RefStudent RefType = "student"
	RefParent  RefType = "parent"
)

// Ref is a polymorphic reference stored as {type, id}.
type Ref struct {
	Type RefType `bson:"type" json:"type" validate:"required,oneof=admin teacher student parent"`
	ID   string  `bson:"id" json:"id" validate:"required"`
}

// RefFor builds the reference for an authenticated account.
func RefFor(role UserRole, id string) Ref {
	return Ref{Type: refTypeOf(role), ID: id}
}

// Role maps the reference type back to the account role.
func (r Ref) Role() UserRole {
	switch r.Type {
	case RefAdmin:
		return RoleAdmin
	case RefTeacher:
		return RoleTeacher
	case RefStudent:
		return RoleStudent
	case RefParent:
		return RoleParent
	}
	return ""
}

// Equal compares type and ID.
func (r Ref) Equal(other Ref) bool {
	return r.Type == other.Type && r.ID == other.ID
}

func refTypeOf(role UserRole) RefType {
	switch role {
	case RoleAdmin:
		return RefAdmin
	case RoleTeacher:
		return RefTeacher
	case RoleStudent:
		return RefStudent
	case RoleParent:
		return RefParent
	}
	return ""
}

// RefSummary is a resolved reference carrying a display name.
type RefSummary struct {
	Ref
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
