package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const NotificationNewApplication = "new_application"

type Notification struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"` // recipient
	ActorID       uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`      // user who triggered it
	JobID         uint      `gorm:"not null" json:"job_id"`
	ApplicationID uint      `json:"application_id"`
	Type          string    `gorm:"type:varchar(50);not null" json:"type"`
	Message       string    `gorm:"type:text" json:"message"`
	IsRead        bool      `gorm:"not null" json:"is_read"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	User  *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Actor *User `gorm:"foreignKey:ActorID;constraint:OnDelete:CASCADE" json:"actor,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
