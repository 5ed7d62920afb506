package models

import "time"

// ContactCategory classifies a contact for display and ordering only.
type ContactCategory string

const (
	CategoryFamily      ContactCategory = "FAMILY"
	CategoryFriends     ContactCategory = "FRIENDS"
	CategoryMedical     ContactCategory = "MEDICAL"
	CategoryAuthorities ContactCategory = "AUTHORITIES"
)

// Contact is a persisted emergency contact. Disabled contacts are excluded
// from dispatch fan-out entirely. Priority is advisory ordering only.
type Contact struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"user_id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email"`
	Category  ContactCategory `json:"category"`
	Enabled   bool            `json:"enabled"`
	Priority  int             `json:"priority"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ContactCreate is the request body for creating a contact.
type ContactCreate struct {
	Name     string          `json:"name" binding:"required,max=120"`
	Phone    string          `json:"phone"`
	Email    string          `json:"email"`
	Category ContactCategory `json:"category"`
	Enabled  *bool           `json:"enabled"`
	Priority int             `json:"priority"`
}

// ContactUpdate is the request body for updating a contact.
type ContactUpdate struct {
	Name     string           `json:"name,omitempty"`
	Phone    *string          `json:"phone,omitempty"`
	Email    *string          `json:"email,omitempty"`
	Category *ContactCategory `json:"category,omitempty"`
	Enabled  *bool            `json:"enabled,omitempty"`
	Priority *int             `json:"priority,omitempty"`
}
