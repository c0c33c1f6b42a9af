// Package index persists a small string map next to the config file. The
// Google Tasks backend uses it to remember task priorities, which Google Tasks
// has no field for.
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const PriorityFile = "priorities.json"

type Index struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// Open loads the index at path; a missing file yields an empty index.
func Open(path string) (*Index, error) {
	idx := &Index{
		Mappings: make(map[string]string),
		Path:     path,
	}
	if _, err := os.Stat(path); err == nil {
		if err := idx.Load(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// OpenIn opens the priority index inside dir.
func OpenIn(dir string) (*Index, error) {
	return Open(filepath.Join(dir, PriorityFile))
}

func (idx *Index) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	m := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	idx.Mappings = m
	return nil
}

// Save writes the index if it changed since the last save.
func (idx *Index) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(idx.Path), 0700); err != nil {
		return err
	}
	tmp := idx.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, idx.Path); err != nil {
		os.Remove(tmp)
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *Index) Get(key string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[key]
}

func (idx *Index) Set(key, value string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[key] != value {
		idx.Mappings[key] = value
		idx.dirty = true
	}
}

func (idx *Index) Remove(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[key]; exists {
		delete(idx.Mappings, key)
		idx.dirty = true
	}
}
