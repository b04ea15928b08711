package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/internal/service/memory"
)

// Session owns the mutable state of one conversation. Turns are serialized by
// slot; mu guards the fields read outside a turn.
type Session struct {
	ID      string
	Created time.Time

	slot   chan struct{}
	memory *memory.Memory

	mu         sync.RWMutex
	state      core.EmotionalState
	seq        int
	lastActive time.Time
	closed     bool
}

func newSession(id string, mem *memory.Memory, now time.Time) *Session {
	return &Session{
		ID:         id,
		Created:    now,
		slot:       make(chan struct{}, 1),
		memory:     mem,
		state:      core.NeutralState(),
		lastActive: now,
	}
}

// tryAcquire claims the turn slot without waiting.
func (s *Session) tryAcquire() bool {
	select {
	case s.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// acquire waits for the turn slot.
func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() {
	<-s.slot
}

func (s *Session) nextSeq() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *Session) State() core.EmotionalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st core.EmotionalState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) Memory() *memory.Memory {
	return s.memory
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Snapshot is a read-only view for transports and commands.
type Snapshot struct {
	ID         string
	State      core.EmotionalState
	Turns      int
	Summary    string
	Pending    int
	LastActive time.Time
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:         s.ID,
		State:      s.state,
		Turns:      s.seq,
		Summary:    s.memory.SummaryText(),
		Pending:    s.memory.Pending(),
		LastActive: s.lastActive,
	}
}
