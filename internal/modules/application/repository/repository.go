package repository

import (
	"context"
	"strings"
	"time"

	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminFilter struct {
	Search   string
	Company  string
	DateFrom *time.Time
	DateTo   *time.Time
}

// JobSummary aggregates the applications of one job.
type JobSummary struct {
	JobID  uint
	Total  int64
	Latest *time.Time
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *entity.Application) error
	FindByID(ctx context.Context, id uint) (*entity.Application, error)
	FindByResume(ctx context.Context, ref string) (*entity.Application, error)
	Exists(ctx context.Context, jobID uint, applicantID uuid.UUID) (bool, error)
	AppliedJobIDs(ctx context.Context, applicantID uuid.UUID) ([]uint, error)
	FindByApplicant(ctx context.Context, applicantID uuid.UUID) ([]entity.Application, error)
	FindByJob(ctx context.Context, jobID uint) ([]entity.Application, error)
	CountByJobs(ctx context.Context, jobIDs []uint) (map[uint]int64, error)
	Summary(ctx context.Context, jobID uint) (*JobSummary, error)
	AdminSearch(ctx context.Context, filter AdminFilter) ([]entity.Application, error)
	// ResumesOwnedBy lists the resume refs that go away with userID: the
	// user's own applications and applications to jobs the user posted.
	ResumesOwnedBy(ctx context.Context, userID uuid.UUID) ([]string, error)
	Delete(ctx context.Context, id uint) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *entity.Application) error {
	return r.db.WithContext(ctx).Omit("Job", "Applicant").Create(app).Error
}

func (r *applicationRepository) FindByID(ctx context.Context, id uint) (*entity.Application, error) {
	var app entity.Application
	if err := r.db.WithContext(ctx).
		Preload("Job").
		Preload("Applicant").
		First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByResume(ctx context.Context, ref string) (*entity.Application, error) {
	var app entity.Application
	if err := r.db.WithContext(ctx).
		Preload("Job").
		Where("resume = ?", ref).
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) Exists(ctx context.Context, jobID uint, applicantID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *applicationRepository) AppliedJobIDs(ctx context.Context, applicantID uuid.UUID) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Where("applicant_id = ?", applicantID).
		Order("job_id ASC").
		Pluck("job_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *applicationRepository) FindByApplicant(ctx context.Context, applicantID uuid.UUID) ([]entity.Application, error) {
	var apps []entity.Application
	err := r.db.WithContext(ctx).
		Preload("Job").
		Where("applicant_id = ?", applicantID).
		Order("applied_at DESC, id DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) FindByJob(ctx context.Context, jobID uint) ([]entity.Application, error) {
	var apps []entity.Application
	err := r.db.WithContext(ctx).
		Preload("Applicant").
		Where("job_id = ?", jobID).
		Order("applied_at DESC, id DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) CountByJobs(ctx context.Context, jobIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(jobIDs))
	if len(jobIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		JobID uint
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Select("job_id, COUNT(*) AS total").
		Where("job_id IN ?", jobIDs).
		Group("job_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.JobID] = row.Total
	}
	return counts, nil
}

func (r *applicationRepository) Summary(ctx context.Context, jobID uint) (*JobSummary, error) {
	summary := &JobSummary{JobID: jobID}

	if err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Where("job_id = ?", jobID).
		Count(&summary.Total).Error; err != nil {
		return nil, err
	}

	if summary.Total == 0 {
		return summary, nil
	}

	var latest entity.Application
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("applied_at DESC, id DESC").
		First(&latest).Error; err != nil {
		return nil, err
	}
	summary.Latest = &latest.AppliedAt

	return summary, nil
}

func (r *applicationRepository) AdminSearch(ctx context.Context, filter AdminFilter) ([]entity.Application, error) {
	q := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Preload("Job").
		Preload("Applicant").
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Joins("JOIN users ON users.id = applications.applicant_id")

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := database.ContainsPattern(search)
		q = q.Where(
			r.db.Where(database.ILike("jobs.title"), pattern).
				Or(database.ILike("users.username"), pattern).
				Or(database.ILike("users.email"), pattern),
		)
	}

	if company := strings.TrimSpace(filter.Company); company != "" {
		q = q.Where("jobs.company_name = ?", company)
	}

	if filter.DateFrom != nil {
		q = q.Where("applications.applied_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("applications.applied_at < ?", *filter.DateTo)
	}

	var apps []entity.Application
	err := q.Order("applications.applied_at DESC, applications.id DESC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&entity.Application{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *applicationRepository) ResumesOwnedBy(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("applications.resume <> ''").
		Where("applications.applicant_id = ? OR jobs.posted_by_id = ?", userID, userID).
		Distinct().
		Pluck("applications.resume", &refs).Error
	return refs, err
}
