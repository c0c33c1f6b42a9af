package store

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// Load replaces the whole local collection with the backend's list. On failure
// the last known tasks are kept and the error is recorded.
func (s *Store) Load(ctx context.Context) error {
	return s.load(ctx, nil)
}

// Refresh is Load under the name the CLI uses.
func (s *Store) Refresh(ctx context.Context) error {
	return s.load(ctx, nil)
}

// load performs a full reload. When carry is set it becomes the store error
// once the reload finishes, so a failed write stays visible after the resync.
func (s *Store) load(ctx context.Context, carry *ErrorInfo) error {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.loading = true
	s.err = carry
	s.mu.Unlock()
	s.notify()

	tasks, err := s.repo.List(ctx)

	s.mu.Lock()
	if seq != s.loadSeq {
		s.mu.Unlock()
		s.logf("dropping stale load response (seq %d)", seq)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		return nil
	}
	s.loading = false
	if err != nil {
		if carry == nil {
			s.err = errorInfo("load", err)
		}
		s.mu.Unlock()
		s.notify()
		s.logf("load failed: %v", err)
		return fmt.Errorf("load tasks: %w", err)
	}
	s.tasks = cloneTasks(tasks)
	if s.tasks == nil {
		s.tasks = []model.Task{}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Create validates the draft locally and, if it passes, asks the backend to
// create it. Nothing is added locally until the backend returns the new id.
// Validation failures are returned as validate.Errors and leave the store
// error untouched.
func (s *Store) Create(ctx context.Context, d model.Draft) (model.Task, error) {
	if errs := s.validator.Draft(d); errs != nil {
		return model.Task{}, errs
	}

	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()

	created, err := s.repo.Create(ctx, d.Normalize())
	if err != nil {
		s.fail("create", err)
		s.logf("create %q failed: %v", d.Title, err)
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, created.Clone())
	s.mu.Unlock()
	s.notify()
	return created, nil
}

// ToggleComplete flips the task locally, then tells the backend which state it
// was flipped from. A failed call flips it back, unless another mutation of the
// task was confirmed by the backend meanwhile, in which case that copy wins.
func (s *Store) ToggleComplete(ctx context.Context, id model.ID) (model.Task, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return model.Task{}, notFound("toggle", id)
	}
	previous := s.tasks[i].Completed
	s.tasks[i].Completed = !previous
	optimistic := s.tasks[i].Clone()
	s.inflight[id]++
	s.err = nil
	s.mu.Unlock()
	s.notify()

	updated, err := s.repo.ToggleComplete(ctx, id, previous)

	s.mu.Lock()
	remaining := s.release(id)
	j := s.indexLocked(id)
	if err != nil {
		if j >= 0 {
			s.rollbackLocked(j, remaining)
		} else if remaining == 0 {
			delete(s.confirmed, id)
		}
		s.err = errorInfo("toggle", err)
		s.mu.Unlock()
		s.notify()
		s.logf("toggle %s failed, reverted: %v", id, err)
		return model.Task{}, fmt.Errorf("toggle task %s: %w", id, err)
	}
	result := optimistic
	if updated.ID == id {
		result = updated
		s.confirmLocked(j, remaining, updated)
	} else if remaining == 0 {
		delete(s.confirmed, id)
	}
	s.mu.Unlock()
	s.notify()
	return result, nil
}

// Update merges the patch into the local task and sends the merged task to
// the backend. On failure the whole collection is reloaded.
func (s *Store) Update(ctx context.Context, id model.ID, p model.Patch) (model.Task, error) {
	if errs := s.validator.Patch(p); errs != nil {
		return model.Task{}, errs
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return model.Task{}, notFound("update", id)
	}
	merged := p.Apply(s.tasks[i])
	s.tasks[i] = merged.Clone()
	s.inflight[id]++
	s.err = nil
	s.mu.Unlock()
	s.notify()

	updated, err := s.repo.Update(ctx, id, merged)

	s.mu.Lock()
	remaining := s.release(id)
	if err != nil {
		if remaining == 0 {
			delete(s.confirmed, id)
		}
		s.mu.Unlock()
		s.logf("update %s failed, reloading: %v", id, err)
		if rerr := s.load(ctx, errorInfo("update", err)); rerr != nil {
			s.logf("reload after failed update: %v", rerr)
		}
		return model.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	result := merged
	if updated.ID == id {
		result = updated
		s.confirmLocked(s.indexLocked(id), remaining, updated)
	} else if remaining == 0 {
		delete(s.confirmed, id)
	}
	s.mu.Unlock()
	s.notify()
	return result, nil
}

// Delete removes the task locally and then remotely. Confirmation is the
// caller's job. On failure the collection is restored to the exact snapshot
// taken before the removal.
func (s *Store) Delete(ctx context.Context, id model.ID) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return notFound("delete", id)
	}
	snapshot := cloneTasks(s.tasks)
	remaining := make([]model.Task, 0, len(s.tasks)-1)
	remaining = append(remaining, s.tasks[:i]...)
	remaining = append(remaining, s.tasks[i+1:]...)
	s.tasks = remaining
	s.err = nil
	s.mu.Unlock()
	s.notify()

	if err := s.repo.Delete(ctx, id); err != nil {
		s.mu.Lock()
		s.tasks = snapshot
		s.err = errorInfo("delete", err)
		s.mu.Unlock()
		s.notify()
		s.logf("delete %s failed, restored snapshot: %v", id, err)
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (s *Store) fail(op string, err error) {
	s.mu.Lock()
	s.err = errorInfo(op, err)
	s.mu.Unlock()
	s.notify()
}

// confirmLocked records a server copy of the task at index j. The local copy
// is replaced only when no other mutation of the task is in flight; otherwise
// the copy is kept for a later rollback. mu must be held.
func (s *Store) confirmLocked(j, remaining int, server model.Task) {
	if remaining > 0 {
		s.confirmed[server.ID] = server.Clone()
		return
	}
	delete(s.confirmed, server.ID)
	if j >= 0 {
		s.tasks[j] = server.Clone()
	}
}

// rollbackLocked undoes a failed toggle of the task at index j. When it was
// the last mutation in flight and another one was confirmed meanwhile, the
// confirmed copy is restored. Otherwise the flag is flipped back. mu must be held.
func (s *Store) rollbackLocked(j, remaining int) {
	id := s.tasks[j].ID
	if remaining == 0 {
		if server, ok := s.confirmed[id]; ok {
			delete(s.confirmed, id)
			s.tasks[j] = server
			return
		}
	}
	s.tasks[j].Completed = !s.tasks[j].Completed
}

// release must be called with mu held. It returns how many mutations of id
// are still unfinished.
func (s *Store) release(id model.ID) int {
	n := s.inflight[id] - 1
	if n <= 0 {
		delete(s.inflight, id)
		return 0
	}
	s.inflight[id] = n
	return n
}
