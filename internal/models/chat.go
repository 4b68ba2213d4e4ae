package models

import "time"

// Chat types.
const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
)

// Participant roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Chat represents a private or group chat owned by a company.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Name      *string   `db:"name" json:"name,omitempty"`
	CompanyID int       `db:"company_id" json:"company_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participant is the chat membership record. Membership is the authorization
// boundary for read/send/mark-read; role only governs management operations.
type Participant struct {
	ChatID int    `db:"chat_id" json:"chat_id"`
	UserID int    `db:"user_id" json:"user_id"`
	Role   string `db:"role" json:"role"`
}

// User is the local profile row used for sender projections.
type User struct {
	ID     int    `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Avatar string `db:"avatar" json:"avatar"`
}
