package view

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	jobRepo "anoa.com/jobportal/internal/modules/job/repository"
	"github.com/redis/go-redis/v9"
)

const pendingKey = "pending:job_views"

type ViewService interface {
	// IncrementView counts one view of jobID by viewer (a user id or client IP),
	// at most once per hour per viewer.
	IncrementView(ctx context.Context, jobID uint, viewer string) error
	// SyncViews flushes buffered counters into jobs.views and returns how many jobs were updated.
	SyncViews(ctx context.Context) (int, error)
}

type viewService struct {
	redisClient *redis.Client
	jobRepo     jobRepo.JobRepository
}

func NewViewService(redisClient *redis.Client, jobRepo jobRepo.JobRepository) ViewService {
	return &viewService{
		redisClient: redisClient,
		jobRepo:     jobRepo,
	}
}

func (s *viewService) IncrementView(ctx context.Context, jobID uint, viewer string) error {
	if s.redisClient == nil {
		return nil
	}

	// SETNX doubles as the "viewed in the last hour" check
	userViewKey := fmt.Sprintf("job:user_view:%d:%s", jobID, viewer)
	firstView, err := s.redisClient.SetNX(ctx, userViewKey, "viewed", time.Hour).Result()
	if err != nil {
		return fmt.Errorf("failed to check user view: %w", err)
	}
	if !firstView {
		return nil
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Incr(ctx, viewsKey(jobID))
	pipe.SAdd(ctx, pendingKey, strconv.FormatUint(uint64(jobID), 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment view: %w", err)
	}

	return nil
}

func (s *viewService) SyncViews(ctx context.Context) (int, error) {
	if s.redisClient == nil {
		return 0, nil
	}

	jobIDs, err := s.redisClient.SMembers(ctx, pendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("error getting pending job views: %w", err)
	}

	synced := 0
	for _, idStr := range jobIDs {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			log.Printf("Invalid job ID in pending views: %s: %v", idStr, err)
			s.redisClient.SRem(ctx, pendingKey, idStr)
			continue
		}

		// drop from pending first; a view arriving after this re-adds it
		s.redisClient.SRem(ctx, pendingKey, idStr)

		count, err := s.redisClient.GetDel(ctx, viewsKey(uint(id))).Int()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			log.Printf("Error getting view count for job %d: %v", id, err)
			s.redisClient.SAdd(ctx, pendingKey, idStr)
			continue
		}

		if count > 0 {
			if err := s.jobRepo.AddViews(ctx, uint(id), count); err != nil {
				log.Printf("Failed to update job views in DB: %v", err)
				// put them back for the next run
				s.redisClient.IncrBy(ctx, viewsKey(uint(id)), int64(count))
				s.redisClient.SAdd(ctx, pendingKey, idStr)
				continue
			}
			synced++
		}
	}

	return synced, nil
}

func viewsKey(jobID uint) string {
	return fmt.Sprintf("job:views:%d", jobID)
}
