package scheduler

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one schedulable unit of work. Runs receive a fresh context per
// tick; a run completes, returns an error, or is bounded by the transport's
// own timeout.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(ctx context.Context) error

// Run implements Task.
func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }

// ScheduledTask binds a registered task name to a cron expression.
type ScheduledTask struct {
	Name   string `yaml:"name"`
	Cron   string `yaml:"cron"`
	Active bool   `yaml:"active"`
}

// Scheduler drives registered tasks on cron expressions. Unknown task names
// in the schedule are a configuration error: logged, not scheduled, never
// fatal.
type Scheduler struct {
	cron   *cron.Cron
	tasks  map[string]Task
	logger *log.Logger
}

// New constructs a scheduler.
func New(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		tasks:  make(map[string]Task),
		logger: logger,
	}
}

// Register makes a task available under a name.
func (s *Scheduler) Register(name string, task Task) error {
	if name == "" {
		return errors.New("scheduler: empty task name")
	}
	if task == nil {
		return errors.New("scheduler: nil task")
	}
	s.tasks[name] = task
	return nil
}

// Schedule wires the configured entries to their registered tasks.
func (s *Scheduler) Schedule(entries []ScheduledTask) {
	for _, entry := range entries {
		if !entry.Active {
			s.logger.Printf("scheduler: task inactive, skipping: name=%s", entry.Name)
			continue
		}
		task, ok := s.tasks[entry.Name]
		if !ok {
			s.logger.Printf("scheduler: unknown task name, not scheduled: name=%s", entry.Name)
			continue
		}
		name := entry.Name
		if _, err := s.cron.AddFunc(entry.Cron, func() { s.runOne(name, task) }); err != nil {
			s.logger.Printf("scheduler: invalid cron expression, not scheduled: name=%s cron=%q err=%v", name, entry.Cron, err)
		}
	}
}

// runOne contains a single tick of one task. Errors and panics are logged,
// never propagated: one task must not take down the dispatcher.
func (s *Scheduler) runOne(name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("scheduler: task panicked: name=%s panic=%v", name, r)
		}
	}()
	started := time.Now()
	if err := task.Run(context.Background()); err != nil {
		s.logger.Printf("scheduler: task failed: name=%s duration=%s err=%v", name, time.Since(started).Round(time.Millisecond), err)
		return
	}
	s.logger.Printf("scheduler: task completed: name=%s duration=%s", name, time.Since(started).Round(time.Millisecond))
}

// Start begins dispatching ticks.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts new ticks and waits for in-flight runs, so critical sections
// release their locks through the normal path instead of orphaning them.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Printf("scheduler: shutdown wait cancelled: %v", ctx.Err())
	}
}

// Names returns the registered task names, sorted.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunNow triggers one registered task outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	task, ok := s.tasks[name]
	if !ok {
		return errors.New("scheduler: unknown task: " + name)
	}
	return task.Run(ctx)
}
