package dto

import (
	"time"

	"anoa.com/jobportal/internal/entity"
	"github.com/google/uuid"
)

const (
	ActionMakeEmployee  = "make_employee"
	ActionMakeApplicant = "make_applicant"

	JoinedLayout  = "2006-01-02"
	SummaryLayout = "January 02, 2006 at 03:04 PM"
)

type CreateUserInput struct {
	Username  string `json:"username" form:"username" binding:"required,max=150,username"`
	Email     string `json:"email" form:"email" binding:"required,email,max=254"`
	Password  string `json:"password" form:"password" binding:"required,min=8"`
	Role      string `json:"role" form:"role" binding:"required,oneof=applicant employee"`
	FirstName string `json:"first_name" form:"first_name" binding:"max=30"`
	LastName  string `json:"last_name" form:"last_name" binding:"max=30"`
	IsStaff   bool   `json:"is_staff" form:"is_staff"`
}

type UpdateAdminUserInput struct {
	Username  string  `json:"username" form:"username" binding:"omitempty,max=150,username"`
	Email     string  `json:"email" form:"email" binding:"omitempty,email,max=254"`
	Password  string  `json:"password" form:"password" binding:"omitempty,min=8"`
	Role      string  `json:"role" form:"role" binding:"omitempty,oneof=applicant employee"`
	FirstName *string `json:"first_name" form:"first_name" binding:"omitempty,max=30"`
	LastName  *string `json:"last_name" form:"last_name" binding:"omitempty,max=30"`
	IsStaff   *bool   `json:"is_staff" form:"is_staff"`
	IsActive  *bool   `json:"is_active" form:"is_active"`
}

type UserQuery struct {
	Q    string `form:"q"`
	Role string `form:"role"`
}

type AdminUserResponse struct {
	User    *entity.User    `json:"user"`
	Role    string          `json:"role"`
	Profile *entity.Profile `json:"profile"`
}

type UpdateProfileInput struct {
	Role string `json:"role" form:"role" binding:"required,oneof=applicant employee"`
}

type ProfileActionInput struct {
	Action  string   `json:"action" form:"action" binding:"required,oneof=make_employee make_applicant"`
	UserIDs []string `json:"user_ids" form:"user_ids" binding:"required,min=1"`
}

type ProfileRow struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"user"`
	Role     string    `json:"role"`
	Email    string    `json:"email"`
	Joined   string    `json:"joined"`
}

type ActionResult struct {
	Updated int64  `json:"updated"`
	Message string `json:"message"`
}

// DateRangeQuery holds YYYY-MM-DD bounds; both ends are inclusive days.
type DateRangeQuery struct {
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

type JobQuery struct {
	Q        string `form:"q"`
	Company  string `form:"company"`
	Location string `form:"location"`
	DateRangeQuery
}

type AdminJobInput struct {
	Title       string `json:"title" form:"title" binding:"required,max=200"`
	CompanyName string `json:"company_name" form:"company_name" binding:"required,max=200"`
	Location    string `json:"location" form:"location" binding:"required,max=200"`
	Description string `json:"description" form:"description" binding:"required"`
	// PostedBy defaults to the acting staff user.
	PostedBy string `json:"posted_by" form:"posted_by" binding:"omitempty,uuid"`
}

type JobRow struct {
	ID                  uint      `json:"id"`
	Title               string    `json:"title"`
	CompanyName         string    `json:"company_name"`
	Location            string    `json:"location"`
	PostedBy            string    `json:"posted_by"`
	CreatedAt           time.Time `json:"created_at"`
	ApplicationsCount   string    `json:"applications_count"`
	ViewApplications    string    `json:"view_applications"`
	ViewApplicationsURL string    `json:"view_applications_url,omitempty"`
}

type InlineApplication struct {
	ID          uint      `json:"id"`
	Applicant   string    `json:"applicant"`
	AppliedAt   time.Time `json:"applied_at"`
	CoverLetter string    `json:"cover_letter"`
	Resume      string    `json:"resume"`
}

type JobDetailResponse struct {
	Job                 *entity.Job         `json:"job"`
	Applications        []InlineApplication `json:"applications"`
	ApplicationsSummary string              `json:"applications_summary"`
	TotalApplications   int64               `json:"total_applications"`
	LatestApplication   *time.Time          `json:"latest_application,omitempty"`
	ViewApplicationsURL string              `json:"view_applications_url,omitempty"`
}

type ApplicationQuery struct {
	Q       string `form:"q"`
	Company string `form:"company"`
	DateRangeQuery
}

type ApplicationRow struct {
	ID        uint      `json:"id"`
	JobID     uint      `json:"job_id"`
	Job       string    `json:"job"`
	Applicant string    `json:"applicant"`
	Email     string    `json:"email"`
	AppliedAt time.Time `json:"applied_at"`
	// Resume is the file URL, or "No resume".
	Resume string `json:"resume"`
}

type ApplicationDetailResponse struct {
	Application *entity.Application `json:"application"`
	ResumeURL   string              `json:"resume_url,omitempty"`
}

type JobApplicationsResponse struct {
	Title        string           `json:"title"`
	Job          *entity.Job      `json:"job"`
	Applications []ApplicationRow `json:"applications"`
}
