package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// sessionState serializes all work against one ingest session. The scan
// pipeline holds mu for its whole run; Commit and Cancel take it too, so a
// commit can never race an in-flight scan. cancel is armed while a scan is
// running so Cancel can interrupt the scan before waiting on the lock.
type sessionState struct {
	mu sync.Mutex

	cmu    sync.Mutex
	cancel context.CancelFunc
}

// arm installs the cancel func for an in-flight scan; pass nil to disarm.
func (s *sessionState) arm(cancel context.CancelFunc) {
	s.cmu.Lock()
	s.cancel = cancel
	s.cmu.Unlock()
}

// interrupt signals the in-flight scan, if any.
func (s *sessionState) interrupt() {
	s.cmu.Lock()
	cancel := s.cancel
	s.cmu.Unlock()
	if cancel != nil {
		cancel()
	}
}

type sessionRegistry struct {
	mu sync.Mutex
	m  map[uuid.UUID]*sessionState
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{m: make(map[uuid.UUID]*sessionState)}
}

// get returns the state for a session, creating it on first use.
func (r *sessionRegistry) get(id uuid.UUID) *sessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.m[id]
	if !ok {
		st = &sessionState{}
		r.m[id] = st
	}
	return st
}

func (r *sessionRegistry) drop(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
}
