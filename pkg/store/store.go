// Package store holds the in-memory task collection shown to the user and
// keeps it consistent with a remote Repository. Writes are applied locally
// first and rolled back or resynchronised when the remote call fails.
package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harrisonrobin/tasksync/pkg/apierr"
	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/validate"
	"github.com/harrisonrobin/tasksync/pkg/view"
)

// Repository is the remote side of the store. Implementations should return
// *apierr.Error values so failures can be classified.
type Repository interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, task model.Task) (model.Task, error)
	Update(ctx context.Context, id model.ID, task model.Task) (model.Task, error)
	Delete(ctx context.Context, id model.ID) error
	ToggleComplete(ctx context.Context, id model.ID, previousCompleted bool) (model.Task, error)
}

// ErrorInfo is the single store-level error displayed as a banner.
type ErrorInfo struct {
	Kind    apierr.Kind
	Op      string
	Message string
}

// State is a copy of the store's state at one point in time.
type State struct {
	Tasks   []model.Task
	Loading bool
	Err     *ErrorInfo
}

type Option func(*Store)

// WithClock overrides the time source used for validation and overdue checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is constructed once per session and shared by whatever renders it.
// It is safe for concurrent use; remote calls run without holding the lock so
// several intents can be in flight at once.
type Store struct {
	repo      Repository
	validator *validate.Validator
	now       func() time.Time
	logger    *log.Logger

	mu      sync.Mutex
	tasks   []model.Task
	loading bool
	err     *ErrorInfo
	// loadSeq identifies the newest Load; older responses are dropped.
	loadSeq uint64
	// inflight counts unfinished toggles and updates per task.
	inflight map[model.ID]int
	// confirmed holds the newest server copy of a task returned while other
	// mutations of it were still in flight. It is dropped when the last one ends.
	confirmed map[model.ID]model.Task

	listenersMu  sync.Mutex
	listeners    map[int]func(State)
	nextListener int
}

func New(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:      repo,
		now:       time.Now,
		logger:    log.Default(),
		inflight:  make(map[model.ID]int),
		confirmed: make(map[model.ID]model.Task),
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = validate.New(s.now)
	return s
}

// Subscribe registers fn to be called with a fresh State after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := State{Tasks: cloneTasks(s.tasks), Loading: s.loading}
	if s.err != nil {
		e := *s.err
		st.Err = &e
	}
	return st
}

// Task returns the local copy of the task with the given id.
func (s *Store) Task(id model.ID) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// View returns the filtered and sorted projection of the current tasks.
// A zero q.Today is replaced by the store clock's date.
func (s *Store) View(q view.Query) []model.Task {
	if q.Today.IsZero() {
		q.Today = s.today()
	}
	return view.FilterAndSort(s.Snapshot().Tasks, q)
}

func (s *Store) Stats() view.Stats {
	return view.Summarize(s.Snapshot().Tasks, s.today())
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) today() model.Date {
	return model.Today(s.now())
}

func (s *Store) notify() {
	st := s.Snapshot()
	s.listenersMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (s *Store) indexLocked(id model.ID) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func errorInfo(op string, err error) *ErrorInfo {
	return &ErrorInfo{Kind: apierr.KindOf(err), Op: op, Message: apierr.UserMessage(err)}
}

func (s *Store) logf(format string, args ...any) {
	s.logger.Printf("store: "+format, args...)
}

func cloneTasks(in []model.Task) []model.Task {
	if in == nil {
		return nil
	}
	out := make([]model.Task, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

func notFound(op string, id model.ID) error {
	return fmt.Errorf("%s task: %w", op, apierr.NotFound(op, id.String()))
}
