package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/internal/modules/application/dto"
	appRepo "anoa.com/jobportal/internal/modules/application/repository"
	jobRepo "anoa.com/jobportal/internal/modules/job/repository"
	notifService "anoa.com/jobportal/internal/modules/notification/service"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/ratelimiter"
	"anoa.com/jobportal/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	applyAction  = "apply"
	resumeFolder = "resumes"
)

var (
	ErrNotApplicant         = apperror.New(http.StatusForbidden, "Only job seekers can apply for jobs.", apperror.ErrForbidden)
	ErrAlreadyApplied       = apperror.New(http.StatusConflict, "You have already applied for this job.", apperror.ErrConflict)
	ErrCoverLetterRequired  = apperror.New(http.StatusBadRequest, "Please provide a cover letter.", apperror.ErrInvalidInput)
	ErrApplyTooSoon         = apperror.New(http.StatusTooManyRequests, "You are submitting applications too quickly. Please wait a moment.", apperror.ErrRateLimitExceeded)
	ErrResumeTypeNotAllowed = apperror.New(http.StatusBadRequest, "Resume must be one of: "+strings.Join(dto.ResumeExtensions, ", ")+".", apperror.ErrInvalidInput)
)

type Options struct {
	MaxResumeBytes int64
	Cooldown       time.Duration
}

type ApplicationService interface {
	// CheckEligibility loads the job and verifies user may apply to it.
	CheckEligibility(ctx context.Context, jobID uint, user *entity.User) (*entity.Job, error)
	Apply(ctx context.Context, jobID uint, user *entity.User, input dto.ApplyInput) (*entity.Application, *entity.Job, error)
	MyApplications(ctx context.Context, userID uuid.UUID) (*dto.MyApplicationsResult, error)
	ResumeURL(ref string) string
	// AuthorizeResume allows staff, the applicant and the job poster to read a resume.
	AuthorizeResume(ctx context.Context, user *entity.User, ref string) error
}

type applicationService struct {
	appRepo  appRepo.ApplicationRepository
	jobRepo  jobRepo.JobRepository
	notifier notifService.NotificationService
	storage  storage.FileStorage
	limiter  *ratelimiter.Limiter
	opts     Options
}

func NewApplicationService(
	appRepo appRepo.ApplicationRepository,
	jobRepo jobRepo.JobRepository,
	notifier notifService.NotificationService,
	fileStorage storage.FileStorage,
	limiter *ratelimiter.Limiter,
	opts Options,
) ApplicationService {
	if opts.MaxResumeBytes <= 0 {
		opts.MaxResumeBytes = 5 << 20
	}
	return &applicationService{
		appRepo:  appRepo,
		jobRepo:  jobRepo,
		notifier: notifier,
		storage:  fileStorage,
		limiter:  limiter,
		opts:     opts,
	}
}

func (s *applicationService) CheckEligibility(ctx context.Context, jobID uint, user *entity.User) (*entity.Job, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %d: %w", jobID, apperror.ErrNotFound)
		}
		return nil, err
	}

	if user == nil {
		return job, apperror.ErrUnauthorized
	}
	if !user.IsApplicant() {
		return job, ErrNotApplicant
	}

	applied, err := s.appRepo.Exists(ctx, job.ID, user.ID)
	if err != nil {
		return job, fmt.Errorf("check application: %w", err)
	}
	if applied {
		return job, ErrAlreadyApplied
	}

	return job, nil
}

func (s *applicationService) Apply(ctx context.Context, jobID uint, user *entity.User, input dto.ApplyInput) (*entity.Application, *entity.Job, error) {
	job, err := s.CheckEligibility(ctx, jobID, user)
	if err != nil {
		return nil, job, err
	}

	coverLetter := strings.TrimSpace(input.CoverLetter)
	if coverLetter == "" {
		return nil, job, ErrCoverLetterRequired
	}

	if input.Resume != nil {
		if err := s.validateResume(input.Resume.Filename, input.Resume.Size); err != nil {
			return nil, job, err
		}
	}

	subject := user.ID.String()
	if s.opts.Cooldown > 0 {
		allowed, err := s.limiter.CheckAndSetCooldown(ctx, subject, applyAction, s.opts.Cooldown)
		if err != nil {
			log.Printf("apply cooldown check failed for %s: %v", subject, err)
		} else if !allowed {
			return nil, job, s.tooSoon(ctx, subject)
		}
	}

	app := &entity.Application{
		JobID:       job.ID,
		ApplicantID: user.ID,
		CoverLetter: coverLetter,
	}

	if input.Resume != nil {
		ref, err := s.uploadResume(ctx, input.Resume)
		if err != nil {
			s.clearCooldown(ctx, subject)
			return nil, job, fmt.Errorf("upload resume: %w", err)
		}
		app.Resume = ref
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		s.discardResume(app.Resume)
		s.clearCooldown(ctx, subject)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, job, ErrAlreadyApplied
		}
		return nil, job, fmt.Errorf("create application: %w", err)
	}

	log.Printf("📨 %s applied to job %d", user.Username, job.ID)

	if s.notifier != nil {
		go func(job entity.Job, applicant entity.User, app entity.Application) {
			bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.notifier.NotifyNewApplication(bg, &job, &applicant, &app); err != nil {
				log.Printf("Failed to notify poster of job %d: %v", job.ID, err)
			}
		}(*job, *user, *app)
	}

	return app, job, nil
}

func (s *applicationService) validateResume(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(dto.ResumeExtensions, ext) {
		return ErrResumeTypeNotAllowed
	}
	if size > s.opts.MaxResumeBytes {
		return apperror.New(http.StatusBadRequest,
			fmt.Sprintf("Resume must be at most %d MB.", s.opts.MaxResumeBytes>>20),
			apperror.ErrInvalidInput)
	}
	return nil
}

func (s *applicationService) uploadResume(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.storage == nil {
		return "", errors.New("resume storage is not configured")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return s.storage.Upload(ctx, f, resumeFolder, file.Filename)
}

// discardResume removes an uploaded resume whose application was never saved.
func (s *applicationService) discardResume(ref string) {
	if ref == "" || s.storage == nil {
		return
	}
	bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(bg, ref); err != nil {
		log.Printf("Failed to delete orphan resume %s: %v", ref, err)
	}
}

// tooSoon tells the applicant how long the cooldown still runs.
func (s *applicationService) tooSoon(ctx context.Context, subject string) error {
	ttl, err := s.limiter.CooldownTTL(ctx, subject, applyAction)
	if err != nil || ttl <= 0 {
		return ErrApplyTooSoon
	}
	seconds := int(math.Ceil(ttl.Seconds()))
	return apperror.New(http.StatusTooManyRequests,
		fmt.Sprintf("You are submitting applications too quickly. Please wait %d seconds.", seconds),
		ErrApplyTooSoon)
}

func (s *applicationService) clearCooldown(ctx context.Context, subject string) {
	if s.opts.Cooldown <= 0 {
		return
	}
	if err := s.limiter.ClearCooldown(ctx, subject, applyAction); err != nil {
		log.Printf("Failed to clear apply cooldown for %s: %v", subject, err)
	}
}

func (s *applicationService) MyApplications(ctx context.Context, userID uuid.UUID) (*dto.MyApplicationsResult, error) {
	apps, err := s.appRepo.FindByApplicant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	views := make([]dto.ApplicationView, 0, len(apps))
	for _, app := range apps {
		views = append(views, dto.ApplicationView{Application: app, ResumeURL: s.ResumeURL(app.Resume)})
	}

	return &dto.MyApplicationsResult{
		Applications:      views,
		TotalApplications: len(views),
	}, nil
}

func (s *applicationService) ResumeURL(ref string) string {
	if ref == "" || s.storage == nil {
		return ""
	}
	return s.storage.URL(ref)
}

func (s *applicationService) AuthorizeResume(ctx context.Context, user *entity.User, ref string) error {
	if user == nil {
		return apperror.ErrUnauthorized
	}

	app, err := s.appRepo.FindByResume(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("resume %s: %w", ref, apperror.ErrNotFound)
		}
		return err
	}

	if user.IsStaff || app.ApplicantID == user.ID || (app.Job != nil && app.Job.PostedByID == user.ID) {
		return nil
	}
	return fmt.Errorf("resume %s: %w", ref, apperror.ErrForbidden)
}
