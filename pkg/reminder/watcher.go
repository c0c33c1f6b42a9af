package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// DefaultSchedule sweeps every five minutes.
const DefaultSchedule = "@every 5m"

// Watcher runs a reminder sweep on a cron schedule.
type Watcher struct {
	table  *Table
	load   func(ctx context.Context) ([]model.Task, error)
	notify func([]model.Task)
	now    func() time.Time

	mu   sync.Mutex
	cron *rcron.Cron
}

type Option func(*Watcher)

// WithClock sets the time source that decides which tasks are overdue.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// NewWatcher builds a watcher that calls load to get the current tasks and
// passes newly overdue ones to notify.
func NewWatcher(table *Table, load func(ctx context.Context) ([]model.Task, error), notify func([]model.Task), opts ...Option) *Watcher {
	w := &Watcher{table: table, load: load, notify: notify, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunOnce performs a single sweep and saves the table.
func (w *Watcher) RunOnce(ctx context.Context) ([]model.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	tasks, err := w.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks for sweep: %w", err)
	}
	now := w.now()
	fresh := w.table.Sweep(tasks, model.Today(now), now)
	if err := w.table.Save(); err != nil {
		log.Printf("[reminder] failed to save table: %v", err)
	}
	if len(fresh) > 0 && w.notify != nil {
		w.notify(fresh)
	}
	return fresh, nil
}

// Start registers the sweep under schedule and starts the scheduler.
func (w *Watcher) Start(ctx context.Context, schedule string) error {
	c := rcron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := w.RunOnce(ctx); err != nil {
			log.Printf("[reminder] sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	w.cron = c
	c.Start()
	log.Printf("[reminder] watching with schedule %s", schedule)
	return nil
}

// Stop waits up to five seconds for a running sweep to finish.
func (w *Watcher) Stop() {
	if w.cron == nil {
		return
	}
	stopCtx := w.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		log.Printf("[reminder] stop timeout waiting for running sweep")
	}
}
