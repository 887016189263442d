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
	appRepo "anoa.com/jobportal/internal/modules/application/repository"
	"anoa.com/jobportal/internal/modules/job/dto"
	jobRepo "anoa.com/jobportal/internal/modules/job/repository"
	search "anoa.com/jobportal/internal/modules/search/service"
	view "anoa.com/jobportal/internal/modules/view/service"
	"anoa.com/jobportal/pkg/apperror"
	"gorm.io/gorm"
)

type JobService interface {
	Homepage(ctx context.Context, query dto.SearchQuery, viewer *entity.User) (*dto.JobListResult, error)
	Listings(ctx context.Context, query dto.SearchQuery, viewer *entity.User) (*dto.JobListResult, error)
	Detail(ctx context.Context, id uint, viewer *entity.User, viewerKey string) (*dto.JobDetailResult, error)
	GetJob(ctx context.Context, id uint) (*entity.Job, error)
	CreateJob(ctx context.Context, poster *entity.User, input dto.CreateJobInput) (*entity.Job, error)
	UpdateJob(ctx context.Context, id uint, input dto.CreateJobInput) (*entity.Job, error)
	DeleteJob(ctx context.Context, id uint) error
	ReindexAll(ctx context.Context) (int, error)
	SearchToken() (string, error)
}

type jobService struct {
	jobRepo jobRepo.JobRepository
	appRepo appRepo.ApplicationRepository
	meili   search.SearchService
	views   view.ViewService
}

func NewJobService(jobRepo jobRepo.JobRepository, appRepo appRepo.ApplicationRepository, meili search.SearchService, views view.ViewService) JobService {
	return &jobService{
		jobRepo: jobRepo,
		appRepo: appRepo,
		meili:   meili,
		views:   views,
	}
}

func (s *jobService) Homepage(ctx context.Context, query dto.SearchQuery, viewer *entity.User) (*dto.JobListResult, error) {
	return s.list(ctx, query, viewer, dto.HomepageLimit)
}

func (s *jobService) Listings(ctx context.Context, query dto.SearchQuery, viewer *entity.User) (*dto.JobListResult, error) {
	return s.list(ctx, query, viewer, 0)
}

func (s *jobService) list(ctx context.Context, query dto.SearchQuery, viewer *entity.User, limit int) (*dto.JobListResult, error) {
	filter := jobRepo.JobFilter{Title: query.Title, Company: query.Company, Location: query.Location}

	jobs, err := s.jobRepo.Search(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	if jobs == nil {
		jobs = []entity.Job{}
	}

	total, err := s.jobRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	applied, err := s.appliedJobIDs(ctx, viewer)
	if err != nil {
		return nil, err
	}

	return &dto.JobListResult{
		Jobs:            jobs,
		TotalJobs:       total,
		SearchPerformed: !filter.Empty(),
		SearchParams:    query,
		UserAppliedJobs: applied,
	}, nil
}

func (s *jobService) appliedJobIDs(ctx context.Context, viewer *entity.User) ([]uint, error) {
	if viewer == nil || !viewer.IsApplicant() {
		return []uint{}, nil
	}
	ids, err := s.appRepo.AppliedJobIDs(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("applied jobs: %w", err)
	}
	return ids, nil
}

func (s *jobService) GetJob(ctx context.Context, id uint) (*entity.Job, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %d: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return job, nil
}

func (s *jobService) Detail(ctx context.Context, id uint, viewer *entity.User, viewerKey string) (*dto.JobDetailResult, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	similar, err := s.jobRepo.FindSimilar(ctx, job, dto.SimilarJobsLimit)
	if err != nil {
		return nil, fmt.Errorf("similar jobs: %w", err)
	}
	if similar == nil {
		similar = []entity.Job{}
	}

	hasApplied := false
	if viewer != nil && viewer.IsApplicant() {
		hasApplied, err = s.appRepo.Exists(ctx, job.ID, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("check application: %w", err)
		}
	}

	if s.views != nil && viewerKey != "" {
		go func() {
			bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.views.IncrementView(bg, job.ID, viewerKey); err != nil {
				log.Printf("Failed to increment view for job %d: %v", job.ID, err)
			}
		}()
	}

	return &dto.JobDetailResult{
		Job:         job,
		SimilarJobs: similar,
		HasApplied:  hasApplied,
	}, nil
}

// CreateJob posts a job on behalf of an employee.
func (s *jobService) CreateJob(ctx context.Context, poster *entity.User, input dto.CreateJobInput) (*entity.Job, error) {
	if poster == nil {
		return nil, apperror.ErrUnauthorized
	}
	if !poster.IsEmployee() {
		return nil, apperror.New(http.StatusForbidden, "Only employers can post jobs.", apperror.ErrForbidden)
	}

	job := &entity.Job{PostedByID: poster.ID}
	if err := s.apply(job, input); err != nil {
		return nil, err
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	job.PostedBy = poster

	s.index(job)
	return job, nil
}

func (s *jobService) UpdateJob(ctx context.Context, id uint, input dto.CreateJobInput) (*entity.Job, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.apply(job, input); err != nil {
		return nil, err
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	s.index(job)
	return job, nil
}

func (s *jobService) DeleteJob(ctx context.Context, id uint) error {
	if err := s.jobRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("job %d: %w", id, apperror.ErrNotFound)
		}
		return fmt.Errorf("delete job: %w", err)
	}

	if s.meili != nil {
		go func() {
			if err := s.meili.DeleteJob(id); err != nil {
				log.Printf("Failed to remove job %d from search index: %v", id, err)
			}
		}()
	}
	return nil
}

func (s *jobService) ReindexAll(ctx context.Context) (int, error) {
	if s.meili == nil {
		return 0, nil
	}

	jobs, err := s.jobRepo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load jobs: %w", err)
	}
	return s.meili.Reindex(jobs)
}

func (s *jobService) SearchToken() (string, error) {
	if s.meili == nil {
		return "", apperror.New(http.StatusServiceUnavailable, "search is not configured", apperror.ErrUnavailable)
	}
	return s.meili.GenerateSearchToken()
}

// apply copies trimmed input onto job.
func (s *jobService) apply(job *entity.Job, input dto.CreateJobInput) error {
	job.Title = strings.TrimSpace(input.Title)
	job.CompanyName = strings.TrimSpace(input.CompanyName)
	job.Location = strings.TrimSpace(input.Location)
	job.Description = strings.TrimSpace(input.Description)

	if job.Title == "" || job.CompanyName == "" || job.Location == "" || job.Description == "" {
		return apperror.New(http.StatusBadRequest, "title, company name, location and description are required", apperror.ErrInvalidInput)
	}
	return nil
}

func (s *jobService) index(job *entity.Job) {
	if s.meili == nil {
		return
	}
	snapshot := *job
	go func() {
		if err := s.meili.IndexJob(&snapshot); err != nil {
			log.Printf("Failed to index job %d: %v", snapshot.ID, err)
		}
	}()
}
