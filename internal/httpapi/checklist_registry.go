package httpapi

import (
	"sync"

	"ledger-posting-engine/internal/closecheck"
)

// ChecklistRegistry holds each legal entity's close checklist in memory,
// keyed by checklist ID, so dependency transitions and dry runs can find
// the checklist a request refers to.
type ChecklistRegistry struct {
	mu         sync.Mutex
	checklists map[string]closecheck.EntityChecklist
}

// NewChecklistRegistry seeds the registry with zero or more checklists.
func NewChecklistRegistry(seed ...closecheck.EntityChecklist) *ChecklistRegistry {
	r := &ChecklistRegistry{checklists: make(map[string]closecheck.EntityChecklist)}
	for _, c := range seed {
		r.checklists[c.ChecklistID] = c
	}
	return r
}

// Put inserts or replaces a checklist.
func (r *ChecklistRegistry) Put(c closecheck.EntityChecklist) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checklists[c.ChecklistID] = c
}

// Get returns the checklist for an ID, if present.
func (r *ChecklistRegistry) Get(checklistID string) (closecheck.EntityChecklist, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checklists[checklistID]
	return c, ok
}

// All returns every checklist currently registered.
func (r *ChecklistRegistry) All() []closecheck.EntityChecklist {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]closecheck.EntityChecklist, 0, len(r.checklists))
	for _, c := range r.checklists {
		out = append(out, c)
	}
	return out
}
