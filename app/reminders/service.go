// Package reminders periodically flags overdue tasks. Delivery is not this
// service's business: each overdue task is handed to a caller-supplied
// Notify func, and the default just logs.
package reminders

import (
	"context"
	"log"
	"time"

	rcron "github.com/robfig/cron/v3"

	"taskhub/app/models"
	"taskhub/app/store"
)

// Service scans the store on a cron schedule for tasks whose planned end
// has passed without completion.
type Service struct {
	store    store.TaskStore
	schedule string
	cron     *rcron.Cron

	// Notify is called once per overdue task per sweep.
	Notify func(task models.Task)

	// Now is overridable for tests.
	Now func() time.Time
}

// NewService creates a reminder service with the given cron schedule
// (e.g. "@every 1h").
func NewService(st store.TaskStore, schedule string) *Service {
	s := &Service{
		store:    st,
		schedule: schedule,
		Now:      time.Now,
	}
	s.Notify = func(task models.Task) {
		log.Printf("[reminders] task %s (%s) overdue since %s", task.ID, task.Title, task.PlannedEnd)
	}
	return s
}

// Start registers the sweep and starts the scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.cron = rcron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[reminders] started, schedule %q", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep runs one scan. Exported so the serve command can trigger an
// initial sweep at startup.
func (s *Service) Sweep(ctx context.Context) {
	today := s.Now().Format(models.DateLayout)
	tasks, err := s.store.ListOverdueTasks(ctx, today)
	if err != nil {
		log.Printf("[reminders] sweep failed: %v", err)
		return
	}
	for _, task := range tasks {
		s.Notify(task)
	}
}
