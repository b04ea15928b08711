package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/emilia/internal/core"
)

type Config struct {
	Capacity         int
	SummaryMaxLength int
}

// Memory is the per-session short-term buffer plus its long-term log. The
// buffer never holds more than Capacity turns; evicted turns live on only in
// the rolling summary.
type Memory struct {
	mu sync.RWMutex

	sessionID string
	cfg       Config
	repo      core.LongTermRepository
	now       func() time.Time

	turns   []core.Turn
	summary Summary

	// content ids surfaced per turn seq, only for turns still buffered
	surfaced map[int][]string

	longTerm  []core.LongTermEntry
	unflushed []core.LongTermEntry
}

func New(sessionID string, cfg Config, repo core.LongTermRepository) *Memory {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	return &Memory{
		sessionID: sessionID,
		cfg:       cfg,
		repo:      repo,
		now:       time.Now,
		turns:     make([]core.Turn, 0, cfg.Capacity+1),
		surfaced:  make(map[int][]string),
	}
}

func (m *Memory) Capacity() int {
	return m.cfg.Capacity
}

// Append adds a turn and folds the oldest ones into the summary once the
// buffer is over capacity.
func (m *Memory) Append(t core.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.turns); n > 0 && t.Seq <= m.turns[n-1].Seq {
		return fmt.Errorf("%w: turn seq %d not after %d", core.ErrInvariantViolation, t.Seq, m.turns[n-1].Seq)
	}
	m.turns = append(m.turns, t)
	m.summarizeLocked()
	return nil
}

// SummarizeIfNeeded evicts overflow turns into the summary and returns how
// many were evicted.
func (m *Memory) SummarizeIfNeeded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summarizeLocked()
}

func (m *Memory) summarizeLocked() int {
	over := len(m.turns) - m.cfg.Capacity
	if over <= 0 {
		return 0
	}
	for _, t := range m.turns[:over] {
		m.summary.Fold(t)
		delete(m.surfaced, t.Seq)
	}
	m.turns = slices.Delete(m.turns, 0, over)
	return over
}

// Window returns up to k of the most recent turns, oldest first.
func (m *Memory) Window(k int) []core.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if k <= 0 || k > len(m.turns) {
		k = len(m.turns)
	}
	return slices.Clone(m.turns[len(m.turns)-k:])
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Summary returns a copy of the rolling summary.
func (m *Memory) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.summary
	s.Topics = maps.Clone(m.summary.Topics)
	return s
}

func (m *Memory) SummaryText() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary.Render(m.cfg.SummaryMaxLength)
}

// MarkSignificant copies a buffered turn into the long-term log. contentIDs
// are remembered as surfaced for as long as the turn stays buffered.
// Marking the same turn twice for the same reason is a no-op.
func (m *Memory) MarkSignificant(seq int, reason core.SignificanceReason, contentIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.turns, func(t core.Turn) bool { return t.Seq == seq })
	if idx < 0 {
		return fmt.Errorf("turn %d is not in the buffer", seq)
	}
	t := m.turns[idx]

	if len(contentIDs) > 0 {
		m.surfaced[seq] = append(m.surfaced[seq], contentIDs...)
	}

	for _, e := range m.longTerm {
		if e.Seq == seq && e.Reason == reason {
			return nil
		}
	}

	entry := core.LongTermEntry{
		ID:         uuid.NewString(),
		SessionID:  m.sessionID,
		Seq:        t.Seq,
		Role:       t.Role,
		Agent:      t.Agent,
		Text:       t.Text,
		Reason:     reason,
		Valence:    t.Affect.Valence,
		Arousal:    t.Affect.Arousal,
		ContentIDs: slices.Clone(contentIDs),
		CreatedAt:  m.now().UTC(),
	}
	m.longTerm = append(m.longTerm, entry)
	m.unflushed = append(m.unflushed, entry)
	return nil
}

// SurfacedIDs lists content ids already shown by buffered turns.
func (m *Memory) SurfacedIDs() map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]struct{})
	for _, ids := range m.surfaced {
		for _, id := range ids {
			out[id] = struct{}{}
		}
	}
	return out
}

// LongTerm returns every entry recorded for this session, flushed or not.
func (m *Memory) LongTerm() []core.LongTermEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.longTerm)
}

func (m *Memory) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.unflushed)
}

// Flush writes pending long-term entries. On failure they stay pending and
// the next flush retries them.
func (m *Memory) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.unflushed) == 0 || m.repo == nil {
		return nil
	}
	if err := m.repo.Append(ctx, m.unflushed); err != nil {
		return fmt.Errorf("flush long-term log: %w", err)
	}
	m.unflushed = m.unflushed[:0]
	return nil
}

// Check verifies the buffer invariants.
func (m *Memory) Check() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.turns) > m.cfg.Capacity {
		return fmt.Errorf("%w: buffer holds %d turns, capacity %d", core.ErrInvariantViolation, len(m.turns), m.cfg.Capacity)
	}
	for i := 1; i < len(m.turns); i++ {
		if m.turns[i].Seq <= m.turns[i-1].Seq {
			return fmt.Errorf("%w: buffer out of order at seq %d", core.ErrInvariantViolation, m.turns[i].Seq)
		}
	}
	return nil
}

// Repair restores the buffer invariants after a failed Check.
func (m *Memory) Repair() {
	m.mu.Lock()
	defer m.mu.Unlock()

	slices.SortStableFunc(m.turns, func(a, b core.Turn) int { return a.Seq - b.Seq })
	m.turns = slices.CompactFunc(m.turns, func(a, b core.Turn) bool { return a.Seq == b.Seq })
	m.summarizeLocked()
}
