package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a unit of background work. An empty Schedule registers it for
// on-demand runs only.
type Task interface {
	Name() string
	Schedule() string
	Execute(ctx context.Context) error
}

type funcTask struct {
	name     string
	schedule string
	fn       func(ctx context.Context) error
}

func (t funcTask) Name() string                      { return t.name }
func (t funcTask) Schedule() string                  { return t.schedule }
func (t funcTask) Execute(ctx context.Context) error { return t.fn(ctx) }

// NewTask wraps fn as a Task.
func NewTask(name, schedule string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, schedule: schedule, fn: fn}
}

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration

	mu    sync.Mutex
	tasks []Task
}

// New creates a scheduler. Each run is bounded by timeout.
func New(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		// overlapping runs of the same task are skipped
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
	}
}

func (s *Scheduler) Register(task Task) error {
	schedule := task.Schedule()
	if schedule == "" {
		log.Printf("📝 [%s] Registered as on-demand task (no schedule)", task.Name())
	} else {
		if _, err := s.cron.AddFunc(schedule, func() { s.run(task) }); err != nil {
			return fmt.Errorf("schedule %s: %w", task.Name(), err)
		}
		log.Printf("📅 [%s] Scheduled with cron: %s", task.Name(), schedule)
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) run(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := task.Execute(ctx); err != nil {
		log.Printf("❌ [%s] Job failed: %v", task.Name(), err)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("🚀 Scheduler started with %d registered tasks", len(s.Tasks()))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Scheduler stopped")
}

// RunByName executes a registered task immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	var found Task
	s.mu.Lock()
	for _, task := range s.tasks {
		if task.Name() == name {
			found = task
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return fmt.Errorf("task %q not registered", name)
	}
	log.Printf("🎯 [%s] Running on-demand execution...", name)
	return found.Execute(ctx)
}

func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.tasks))
	for i, task := range s.tasks {
		names[i] = task.Name()
	}
	return names
}
