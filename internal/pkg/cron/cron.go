package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"
)

// JobStatus represents the last known state of a job.
type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusFulfill JobStatus = "fulfill"
	StatusReject  JobStatus = "reject"
)

// Job defines a scheduled background task. Spec uses the standard five-field
// cron syntax or a descriptor such as "@every 10m".
type Job struct {
	Name        string
	Description string
	Spec        string
	Fn          func(ctx context.Context) error
}

// JobState holds runtime state for a registered job.
type JobState struct {
	Job
	Status    JobStatus
	Message   string
	LastRunAt *time.Time
	entryID   robfig.EntryID
	mu        sync.Mutex
}

// ListItem is the serializable representation of a job.
type ListItem struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      JobStatus  `json:"status"`
	NextDate    *time.Time `json:"next_date"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
}

// Scheduler manages a collection of named cron jobs on top of robfig/cron.
type Scheduler struct {
	mu     sync.RWMutex
	cron   *robfig.Cron
	jobs   map[string]*JobState
	ctx    context.Context
	cancel context.CancelFunc
	onDone func(name string, err error)
}

// New creates an empty Scheduler.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   robfig.New(robfig.WithLocation(time.UTC)),
		jobs:   make(map[string]*JobState),
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnDone sets a hook called after every job run.
func (s *Scheduler) OnDone(fn func(name string, err error)) {
	s.mu.Lock()
	s.onDone = fn
	s.mu.Unlock()
}

// Register adds a job to the scheduler.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	js := &JobState{Job: job, Status: StatusIdle}
	id, err := s.cron.AddFunc(job.Spec, func() { s.execute(s.ctx, js) })
	if err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}
	js.entryID = id
	s.jobs[job.Name] = js
	return nil
}

// Start launches the scheduler and stops it when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts scheduling and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) execute(ctx context.Context, js *JobState) {
	js.mu.Lock()
	if js.Status == StatusRunning {
		js.mu.Unlock()
		return
	}
	js.Status = StatusRunning
	js.mu.Unlock()

	now := time.Now()
	err := js.Fn(ctx)

	js.mu.Lock()
	js.LastRunAt = &now
	if err != nil {
		js.Status = StatusReject
		js.Message = err.Error()
	} else {
		js.Status = StatusFulfill
		js.Message = ""
	}
	js.mu.Unlock()

	s.mu.RLock()
	hook := s.onDone
	s.mu.RUnlock()
	if hook != nil {
		hook(js.Name, err)
	}
}

// Run executes a job by name synchronously.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	s.mu.RLock()
	js, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	s.execute(ctx, js)
	return nil
}

// List returns a summary of all registered jobs ordered by name.
func (s *Scheduler) List() []ListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ListItem, 0, len(s.jobs))
	for _, js := range s.jobs {
		next := s.cron.Entry(js.entryID).Next
		js.mu.Lock()
		item := ListItem{
			Name:        js.Name,
			Description: js.Description,
			Status:      js.Status,
			LastRunAt:   js.LastRunAt,
		}
		js.mu.Unlock()
		if !next.IsZero() {
			item.NextDate = &next
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}
