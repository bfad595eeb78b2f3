package handoff

import "sync"

// Registry is the in-process handoff store, keyed by stack name. Used
// when test code runs in the same process as the coordinator and no
// file round-trip is needed.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*Record),
	}
}

// Put stores a record, replacing any previous record for the same stack.
func (r *Registry) Put(record *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Stack] = record
}

// Get returns the record for a stack, or nil if none is registered.
func (r *Registry) Get(stack string) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[stack]
}

// Remove drops the record for a stack.
func (r *Registry) Remove(stack string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, stack)
}
