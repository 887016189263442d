package repository

import (
	"context"
	"strings"
	"time"

	"anoa.com/jobportal/internal/entity"
	"anoa.com/jobportal/pkg/database"
	"gorm.io/gorm"
)

// JobFilter holds the public search parameters. Each non-empty field is a
// case-insensitive substring match; all present fields must match.
type JobFilter struct {
	Title    string
	Company  string
	Location string
}

func (f JobFilter) Empty() bool {
	return strings.TrimSpace(f.Title) == "" && strings.TrimSpace(f.Company) == "" && strings.TrimSpace(f.Location) == ""
}

type AdminFilter struct {
	Search   string
	Company  string
	Location string
	DateFrom *time.Time
	DateTo   *time.Time
}

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id uint) (*entity.Job, error)
	Search(ctx context.Context, filter JobFilter, limit int) ([]entity.Job, error)
	Count(ctx context.Context, filter JobFilter) (int64, error)
	FindSimilar(ctx context.Context, job *entity.Job, limit int) ([]entity.Job, error)
	AdminSearch(ctx context.Context, filter AdminFilter) ([]entity.Job, error)
	FindAll(ctx context.Context) ([]entity.Job, error)
	Update(ctx context.Context, job *entity.Job) error
	AddViews(ctx context.Context, id uint, delta int) error
	Delete(ctx context.Context, id uint) error
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *entity.Job) error {
	return r.db.WithContext(ctx).Omit("PostedBy", "Applications").Create(job).Error
}

func (r *jobRepository) FindByID(ctx context.Context, id uint) (*entity.Job, error) {
	var job entity.Job
	if err := r.db.WithContext(ctx).
		Preload("PostedBy").
		First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) filtered(ctx context.Context, filter JobFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entity.Job{})

	if title := strings.TrimSpace(filter.Title); title != "" {
		q = q.Where(database.ILike("title"), database.ContainsPattern(title))
	}
	if company := strings.TrimSpace(filter.Company); company != "" {
		q = q.Where(database.ILike("company_name"), database.ContainsPattern(company))
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		q = q.Where(database.ILike("location"), database.ContainsPattern(location))
	}

	return q
}

// Search returns matching jobs newest first. limit <= 0 means no limit.
func (r *jobRepository) Search(ctx context.Context, filter JobFilter, limit int) ([]entity.Job, error) {
	q := r.filtered(ctx, filter).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var jobs []entity.Job
	err := q.Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) Count(ctx context.Context, filter JobFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

// FindSimilar returns jobs at the same company or whose title contains the first
// word of job's title, excluding job itself.
func (r *jobRepository) FindSimilar(ctx context.Context, job *entity.Job, limit int) ([]entity.Job, error) {
	cond := r.db.Where("company_name = ?", job.CompanyName)
	if keyword := job.TitleKeyword(); keyword != "" {
		cond = cond.Or(database.ILike("title"), database.ContainsPattern(keyword))
	}

	var jobs []entity.Job
	err := r.db.WithContext(ctx).
		Where(cond).
		Where("id <> ?", job.ID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) AdminSearch(ctx context.Context, filter AdminFilter) ([]entity.Job, error) {
	q := r.db.WithContext(ctx).Model(&entity.Job{}).Preload("PostedBy")

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := database.ContainsPattern(search)
		q = q.Where(
			r.db.Where(database.ILike("title"), pattern).
				Or(database.ILike("company_name"), pattern).
				Or(database.ILike("location"), pattern),
		)
	}
	if company := strings.TrimSpace(filter.Company); company != "" {
		q = q.Where("company_name = ?", company)
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		q = q.Where("location = ?", location)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("created_at < ?", *filter.DateTo)
	}

	var jobs []entity.Job
	err := q.Order("created_at DESC, id DESC").Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) FindAll(ctx context.Context) ([]entity.Job, error) {
	var jobs []entity.Job
	err := r.db.WithContext(ctx).Order("id ASC").Find(&jobs).Error
	return jobs, err
}

func (r *jobRepository) Update(ctx context.Context, job *entity.Job) error {
	return r.db.WithContext(ctx).
		Model(job).
		Select("title", "company_name", "location", "description", "updated_at").
		Updates(job).Error
}

func (r *jobRepository) AddViews(ctx context.Context, id uint, delta int) error {
	return r.db.WithContext(ctx).
		Model(&entity.Job{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", delta)).Error
}

// Delete removes the job; its applications cascade.
func (r *jobRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&entity.Job{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
