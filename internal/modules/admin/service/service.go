package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/internal/modules/admin/dto"
	appRepo "anoa.com/jobportal/internal/modules/application/repository"
	jobDto "anoa.com/jobportal/internal/modules/job/dto"
	jobRepo "anoa.com/jobportal/internal/modules/job/repository"
	jobService "anoa.com/jobportal/internal/modules/job/service"
	userRepo "anoa.com/jobportal/internal/modules/user/repository"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminService interface {
	ListUsers(ctx context.Context, query dto.UserQuery) ([]*dto.AdminUserResponse, error)
	CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.AdminUserResponse, error)
	UpdateUser(ctx context.Context, id string, input dto.UpdateAdminUserInput) (*dto.AdminUserResponse, error)
	DeleteUser(ctx context.Context, id string) error

	ListProfiles(ctx context.Context, query dto.UserQuery) ([]dto.ProfileRow, error)
	UpdateProfileRole(ctx context.Context, userID, role string) (*dto.ProfileRow, error)
	ApplyProfileAction(ctx context.Context, input dto.ProfileActionInput) (*dto.ActionResult, error)

	ListJobs(ctx context.Context, query dto.JobQuery) ([]dto.JobRow, error)
	CreateJob(ctx context.Context, actor *entity.User, input dto.AdminJobInput) (*entity.Job, error)
	GetJob(ctx context.Context, id uint) (*dto.JobDetailResponse, error)
	UpdateJob(ctx context.Context, id uint, input dto.AdminJobInput) (*entity.Job, error)
	DeleteJob(ctx context.Context, id uint) error
	JobApplications(ctx context.Context, id uint) (*dto.JobApplicationsResponse, error)

	ListApplications(ctx context.Context, query dto.ApplicationQuery) ([]dto.ApplicationRow, error)
	GetApplication(ctx context.Context, id uint) (*dto.ApplicationDetailResponse, error)
	DeleteApplication(ctx context.Context, id uint) error
}

type adminService struct {
	userRepo    userRepo.UserRepository
	jobRepo     jobRepo.JobRepository
	appRepo     appRepo.ApplicationRepository
	jobs        jobService.JobService
	fileStorage storage.FileStorage
}

func NewAdminService(
	userRepo userRepo.UserRepository,
	jobRepo jobRepo.JobRepository,
	appRepo appRepo.ApplicationRepository,
	jobs jobService.JobService,
	fileStorage storage.FileStorage,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		jobRepo:     jobRepo,
		appRepo:     appRepo,
		jobs:        jobs,
		fileStorage: fileStorage,
	}
}

func conflict(msg string) error {
	return apperror.New(http.StatusConflict, msg, apperror.ErrConflict)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperror.ErrNotFound)
	}
	return err
}

// Users

func (s *adminService) ListUsers(ctx context.Context, query dto.UserQuery) ([]*dto.AdminUserResponse, error) {
	users, err := s.userRepo.FindAll(ctx, userRepo.UserFilter{Search: query.Q, Role: query.Role})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, &dto.AdminUserResponse{User: u, Role: u.Role(), Profile: u.Profile})
	}
	return res, nil
}

func (s *adminService) CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.AdminUserResponse, error) {
	if taken, err := s.userRepo.EmailTaken(ctx, input.Email, uuid.Nil); err != nil {
		return nil, err
	} else if taken {
		return nil, conflict("email already registered")
	}

	if taken, err := s.userRepo.UsernameTaken(ctx, input.Username, uuid.Nil); err != nil {
		return nil, err
	} else if taken {
		return nil, conflict("username already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: string(hashedPassword),
		IsStaff:      input.IsStaff,
		IsActive:     true,
	}
	profile := &entity.Profile{Role: input.Role}

	if err := s.userRepo.Create(ctx, user, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("username or email already in use")
		}
		return nil, err
	}

	return &dto.AdminUserResponse{User: user, Role: profile.Role, Profile: profile}, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id string, input dto.UpdateAdminUserInput) (*dto.AdminUserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user "+id)
	}

	if username := strings.ToLower(strings.TrimSpace(input.Username)); username != "" && username != user.Username {
		if taken, err := s.userRepo.UsernameTaken(ctx, username, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, conflict("username already taken")
		}
		user.Username = username
	}

	if email := strings.TrimSpace(input.Email); email != "" && !strings.EqualFold(email, user.Email) {
		if taken, err := s.userRepo.EmailTaken(ctx, email, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, conflict("email already registered")
		}
		user.Email = email
	}

	if input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.IsStaff != nil {
		user.IsStaff = *input.IsStaff
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	profile := user.Profile
	if profile == nil {
		profile = &entity.Profile{UserID: user.ID, Role: entity.RoleApplicant}
	}
	if input.Role != "" {
		profile.Role = input.Role
	}
	user.Profile = nil

	if err := s.userRepo.Update(ctx, user, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("username or email already in use")
		}
		return nil, err
	}

	return &dto.AdminUserResponse{User: user, Role: profile.Role, Profile: profile}, nil
}

// DeleteUser removes the user. Applications by the user and to the user's jobs
// go with it, so their resume files are deleted afterwards.
func (s *adminService) DeleteUser(ctx context.Context, id string) error {
	var resumes []string
	if userID, err := uuid.Parse(id); err == nil {
		if resumes, err = s.appRepo.ResumesOwnedBy(ctx, userID); err != nil {
			return err
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return notFound(err, "user "+id)
	}

	for _, ref := range resumes {
		s.deleteResume(ctx, ref)
	}
	return nil
}

// Profiles

func (s *adminService) ListProfiles(ctx context.Context, query dto.UserQuery) ([]dto.ProfileRow, error) {
	users, err := s.userRepo.FindAll(ctx, userRepo.UserFilter{Search: query.Q, Role: query.Role})
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ProfileRow, 0, len(users))
	for _, u := range users {
		if u.Profile == nil {
			continue
		}
		rows = append(rows, profileRow(u))
	}
	return rows, nil
}

func profileRow(u *entity.User) dto.ProfileRow {
	return dto.ProfileRow{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role(),
		Email:    u.Email,
		Joined:   u.CreatedAt.Format(dto.JoinedLayout),
	}
}

func (s *adminService) UpdateProfileRole(ctx context.Context, userID, role string) (*dto.ProfileRow, error) {
	if !entity.ValidRole(role) {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", role), apperror.ErrInvalidInput)
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, apperror.ErrNotFound)
	}

	updated, err := s.userRepo.UpdateRoles(ctx, []uuid.UUID{id}, role)
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		return nil, fmt.Errorf("profile %s: %w", userID, apperror.ErrNotFound)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user "+userID)
	}
	row := profileRow(user)
	return &row, nil
}

func (s *adminService) ApplyProfileAction(ctx context.Context, input dto.ProfileActionInput) (*dto.ActionResult, error) {
	var role string
	switch input.Action {
	case dto.ActionMakeEmployee:
		role = entity.RoleEmployee
	case dto.ActionMakeApplicant:
		role = entity.RoleApplicant
	default:
		return nil, apperror.New(http.StatusBadRequest, "unknown action "+input.Action, apperror.ErrInvalidInput)
	}

	ids := make([]uuid.UUID, 0, len(input.UserIDs))
	for _, raw := range input.UserIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, apperror.New(http.StatusBadRequest, "invalid user id "+raw, apperror.ErrInvalidInput)
		}
		ids = append(ids, id)
	}

	updated, err := s.userRepo.UpdateRoles(ctx, ids, role)
	if err != nil {
		return nil, err
	}

	return &dto.ActionResult{
		Updated: updated,
		Message: fmt.Sprintf("%d user(s) were successfully assigned %s role.", updated, role),
	}, nil
}

// Jobs

func pluralize(n int64, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func jobApplicationsURL(id uint) string {
	return fmt.Sprintf("/admin/jobs/%d/applications", id)
}

func (s *adminService) ListJobs(ctx context.Context, query dto.JobQuery) ([]dto.JobRow, error) {
	from, to, err := parseDateRange(query.DateRangeQuery)
	if err != nil {
		return nil, err
	}

	jobs, err := s.jobRepo.AdminSearch(ctx, jobRepo.AdminFilter{
		Search:   query.Q,
		Company:  query.Company,
		Location: query.Location,
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	counts, err := s.appRepo.CountByJobs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.JobRow, 0, len(jobs))
	for _, j := range jobs {
		count := counts[j.ID]
		row := dto.JobRow{
			ID:                j.ID,
			Title:             j.Title,
			CompanyName:       j.CompanyName,
			Location:          j.Location,
			CreatedAt:         j.CreatedAt,
			ApplicationsCount: pluralize(count, "application"),
			ViewApplications:  "No applications",
		}
		if j.PostedBy != nil {
			row.PostedBy = j.PostedBy.Username
		}
		if count > 0 {
			row.ViewApplications = "View " + pluralize(count, "Application")
			row.ViewApplicationsURL = jobApplicationsURL(j.ID)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *adminService) CreateJob(ctx context.Context, actor *entity.User, input dto.AdminJobInput) (*entity.Job, error) {
	poster := actor
	if input.PostedBy != "" {
		user, err := s.userRepo.FindByID(ctx, input.PostedBy)
		if err != nil {
			return nil, notFound(err, "user "+input.PostedBy)
		}
		poster = user
	}

	return s.jobs.CreateJob(ctx, poster, jobInput(input))
}

func jobInput(input dto.AdminJobInput) jobDto.CreateJobInput {
	return jobDto.CreateJobInput{
		Title:       input.Title,
		CompanyName: input.CompanyName,
		Location:    input.Location,
		Description: input.Description,
	}
}

func (s *adminService) GetJob(ctx context.Context, id uint) (*dto.JobDetailResponse, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	apps, err := s.appRepo.FindByJob(ctx, id)
	if err != nil {
		return nil, err
	}

	inline := make([]dto.InlineApplication, 0, len(apps))
	for _, app := range apps {
		row := dto.InlineApplication{
			ID:          app.ID,
			AppliedAt:   app.AppliedAt,
			CoverLetter: app.CoverLetter,
			Resume:      s.resumeURL(app.Resume),
		}
		if app.Applicant != nil {
			row.Applicant = app.Applicant.Username
		}
		inline = append(inline, row)
	}

	summary, err := s.appRepo.Summary(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &dto.JobDetailResponse{
		Job:                 job,
		Applications:        inline,
		ApplicationsSummary: "No applications yet",
		TotalApplications:   summary.Total,
		LatestApplication:   summary.Latest,
	}
	if summary.Total > 0 && summary.Latest != nil {
		res.ApplicationsSummary = fmt.Sprintf("Total Applications: %d. Latest Application: %s",
			summary.Total, summary.Latest.Format(dto.SummaryLayout))
		res.ViewApplicationsURL = jobApplicationsURL(id)
	}
	return res, nil
}

func (s *adminService) UpdateJob(ctx context.Context, id uint, input dto.AdminJobInput) (*entity.Job, error) {
	return s.jobs.UpdateJob(ctx, id, jobInput(input))
}

// DeleteJob removes the job, its applications and their resume files.
func (s *adminService) DeleteJob(ctx context.Context, id uint) error {
	apps, err := s.appRepo.FindByJob(ctx, id)
	if err != nil {
		return err
	}

	if err := s.jobs.DeleteJob(ctx, id); err != nil {
		return err
	}

	for _, app := range apps {
		s.deleteResume(ctx, app.Resume)
	}
	return nil
}

func (s *adminService) JobApplications(ctx context.Context, id uint) (*dto.JobApplicationsResponse, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	apps, err := s.appRepo.FindByJob(ctx, id)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ApplicationRow, 0, len(apps))
	for _, app := range apps {
		app.Job = job
		rows = append(rows, s.applicationRow(app))
	}

	return &dto.JobApplicationsResponse{
		Title:        fmt.Sprintf("Applications for \"%s\"", job.Title),
		Job:          job,
		Applications: rows,
	}, nil
}

// Applications

func (s *adminService) ListApplications(ctx context.Context, query dto.ApplicationQuery) ([]dto.ApplicationRow, error) {
	from, to, err := parseDateRange(query.DateRangeQuery)
	if err != nil {
		return nil, err
	}

	apps, err := s.appRepo.AdminSearch(ctx, appRepo.AdminFilter{
		Search:   query.Q,
		Company:  query.Company,
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ApplicationRow, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, s.applicationRow(app))
	}
	return rows, nil
}

func (s *adminService) applicationRow(app entity.Application) dto.ApplicationRow {
	row := dto.ApplicationRow{
		ID:        app.ID,
		JobID:     app.JobID,
		AppliedAt: app.AppliedAt,
		Resume:    "No resume",
	}
	if app.Job != nil {
		row.Job = app.Job.Title
	}
	if app.Applicant != nil {
		row.Applicant = app.Applicant.Username
		row.Email = app.Applicant.Email
	}
	if url := s.resumeURL(app.Resume); url != "" {
		row.Resume = url
	}
	return row
}

func (s *adminService) GetApplication(ctx context.Context, id uint) (*dto.ApplicationDetailResponse, error) {
	app, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("application %d", id))
	}
	return &dto.ApplicationDetailResponse{Application: app, ResumeURL: s.resumeURL(app.Resume)}, nil
}

func (s *adminService) DeleteApplication(ctx context.Context, id uint) error {
	app, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, fmt.Sprintf("application %d", id))
	}

	if err := s.appRepo.Delete(ctx, id); err != nil {
		return notFound(err, fmt.Sprintf("application %d", id))
	}

	s.deleteResume(ctx, app.Resume)
	return nil
}

func (s *adminService) resumeURL(ref string) string {
	if ref == "" || s.fileStorage == nil {
		return ""
	}
	return s.fileStorage.URL(ref)
}

func (s *adminService) deleteResume(ctx context.Context, ref string) {
	if ref == "" || s.fileStorage == nil {
		return
	}
	if err := s.fileStorage.Delete(ctx, ref); err != nil {
		log.Printf("Failed to delete resume %s: %v", ref, err)
	}
}

// parseDateRange turns inclusive YYYY-MM-DD bounds into [from, to) times.
func parseDateRange(q dto.DateRangeQuery) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if v := strings.TrimSpace(q.DateFrom); v != "" {
		t, err := time.ParseInLocation(dto.JoinedLayout, v, time.Local)
		if err != nil {
			return nil, nil, apperror.New(http.StatusBadRequest, "date_from must be YYYY-MM-DD", apperror.ErrInvalidInput)
		}
		from = &t
	}

	if v := strings.TrimSpace(q.DateTo); v != "" {
		t, err := time.ParseInLocation(dto.JoinedLayout, v, time.Local)
		if err != nil {
			return nil, nil, apperror.New(http.StatusBadRequest, "date_to must be YYYY-MM-DD", apperror.ErrInvalidInput)
		}
		next := t.AddDate(0, 0, 1)
		to = &next
	}

	return from, to, nil
}
