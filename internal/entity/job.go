package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Title        string        `gorm:"size:200;not null" json:"title"`
	CompanyName  string        `gorm:"size:200;not null;index" json:"company_name"`
	Location     string        `gorm:"size:200;not null" json:"location"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	PostedByID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"posted_by_id"`
	PostedBy     *User         `gorm:"foreignKey:PostedByID;constraint:OnDelete:CASCADE" json:"posted_by,omitempty"`
	Views        int           `gorm:"not null;default:0" json:"views"`
	CreatedAt    time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	Applications []Application `gorm:"constraint:OnDelete:CASCADE" json:"applications,omitempty"`
}

// TitleKeyword is the first whitespace-delimited token of the title, used to
// find similar jobs.
func (j *Job) TitleKeyword() string {
	fields := strings.Fields(j.Title)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
