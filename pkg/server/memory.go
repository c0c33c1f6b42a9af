package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// memoryStore keeps tasks in insertion order and hands out increasing integer ids.
type memoryStore struct {
	mu     sync.RWMutex
	tasks  []model.Task
	nextID int64
	now    func() time.Time
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{now: now}
}

func (m *memoryStore) list() []model.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Task, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (m *memoryStore) get(id model.ID) (model.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.index(id); i >= 0 {
		return m.tasks[i].Clone(), true
	}
	return model.Task{}, false
}

func (m *memoryStore) create(t model.Task) model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = model.ID(strconv.FormatInt(m.nextID, 10))
	t.CreatedAt = m.now().UTC()
	m.tasks = append(m.tasks, t.Clone())
	return t
}

func (m *memoryStore) replace(id model.ID, t model.Task) (model.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	t.ID = id
	t.CreatedAt = m.tasks[i].CreatedAt
	m.tasks[i] = t.Clone()
	return t, true
}

// setCompleted moves the task out of the given previous state.
func (m *memoryStore) setCompleted(id model.ID, previous bool) (model.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	m.tasks[i].Completed = !previous
	return m.tasks[i].Clone(), true
}

func (m *memoryStore) delete(id model.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return false
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return true
}

func (m *memoryStore) index(id model.ID) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
