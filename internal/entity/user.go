package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleApplicant = "applicant"
	RoleEmployee  = "employee"
)

// ValidRole reports whether role is one a profile may hold.
func ValidRole(role string) bool {
	return role == RoleApplicant || role == RoleEmployee
}

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName    string     `gorm:"size:30" json:"first_name"`
	LastName     string     `gorm:"size:30" json:"last_name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	IsStaff      bool       `gorm:"not null" json:"is_staff"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"date_joined"`
	Profile      *Profile   `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Username = strings.ToLower(u.Username)
	return nil
}

// FullName returns "first last", trimmed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName falls back to the username when no name is set.
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Username
}

// Role returns the profile role, or "" when the profile is not loaded.
func (u *User) Role() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Role
}

func (u *User) IsApplicant() bool {
	return u.Role() == RoleApplicant
}

func (u *User) IsEmployee() bool {
	return u.Role() == RoleEmployee
}

type Profile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      string    `gorm:"size:20;not null;index" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
