// Package dirs keeps the set of destination directories ensured during a run.
package dirs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const dirPerm = 0o755

// Registry creates directories on demand and remembers each one once.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	known   map[string]bool // path -> created by this registry
}

type entry struct {
	once    sync.Once
	created bool
	err     error
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		known:   make(map[string]bool),
	}
}

// Ensure creates dir and any missing parents. Concurrent calls for the same
// path share a single MkdirAll; a failed attempt is forgotten so a later
// call can retry.
func (r *Registry) Ensure(dir string) error {
	dir = filepath.Clean(dir)

	r.mu.Lock()
	e, ok := r.entries[dir]
	if !ok {
		e = &entry{}
		r.entries[dir] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.created, e.err = mkdirAll(dir)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if e.err != nil {
		if r.entries[dir] == e {
			delete(r.entries, dir)
		}
		return fmt.Errorf("create directory %s: %w", dir, e.err)
	}
	if _, seen := r.known[dir]; !seen {
		r.known[dir] = e.created
	}
	return nil
}

// Dirs returns every directory ensured so far, sorted.
func (r *Registry) Dirs() []string {
	return r.list(func(bool) bool { return true })
}

// Created returns the directories that did not exist before Ensure, sorted.
func (r *Registry) Created() []string {
	return r.list(func(created bool) bool { return created })
}

func (r *Registry) list(keep func(created bool) bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.known))
	for dir, created := range r.known {
		if keep(created) {
			out = append(out, dir)
		}
	}
	sort.Strings(out)
	return out
}

func mkdirAll(dir string) (created bool, err error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return false, err
	}
	return true, nil
}
