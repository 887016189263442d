package entity

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationUniqueIndex guarantees one application per applicant and job.
const ApplicationUniqueIndex = "idx_application_job_applicant"

type Application struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	JobID       uint      `gorm:"not null;uniqueIndex:idx_application_job_applicant,priority:1" json:"job_id"`
	Job         *Job      `gorm:"foreignKey:JobID" json:"job,omitempty"`
	ApplicantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_application_job_applicant,priority:2;index" json:"applicant_id"`
	Applicant   *User     `gorm:"foreignKey:ApplicantID;constraint:OnDelete:CASCADE" json:"applicant,omitempty"`
	Resume      string    `gorm:"size:500" json:"resume"`
	CoverLetter string    `gorm:"type:text;not null" json:"cover_letter"`
	AppliedAt   time.Time `gorm:"autoCreateTime;index" json:"applied_at"`
}
