package scheduler

import (
	"context"
	"log"

	jobService "anoa.com/jobportal/internal/modules/job/service"
	view "anoa.com/jobportal/internal/modules/view/service"
	"anoa.com/jobportal/pkg/ratelimiter"
)

const (
	JobViewSync    = "job-view-sync"
	SearchReindex  = "search-reindex"
	LimiterCleanup = "limiter-cleanup"
)

func ViewSyncTask(views view.ViewService) Task {
	return NewTask(JobViewSync, "* * * * *", func(ctx context.Context) error {
		synced, err := views.SyncViews(ctx)
		if err != nil {
			return err
		}
		if synced > 0 {
			log.Printf("👁️ Synced views for %d jobs", synced)
		}
		return nil
	})
}

func ReindexTask(jobs jobService.JobService) Task {
	return NewTask(SearchReindex, "0 3 * * *", func(ctx context.Context) error {
		n, err := jobs.ReindexAll(ctx)
		if err != nil {
			return err
		}
		log.Printf("🔎 Reindexed %d jobs", n)
		return nil
	})
}

func LimiterCleanupTask(limiter *ratelimiter.ClientLimiter) Task {
	return NewTask(LimiterCleanup, "*/10 * * * *", func(ctx context.Context) error {
		if removed := limiter.Cleanup(); removed > 0 {
			log.Printf("🧹 Dropped %d idle rate limiters", removed)
		}
		return nil
	})
}
