package session

import (
	"context"
	"errors"
	"time"

	"github.com/bowerhall/dossier/internal/pairing"
)

var (
	// ErrCapacityExceeded means the target side already holds MaxPerSide images.
	ErrCapacityExceeded = errors.New("side is full")
	// ErrNoPendingImage means labeling was triggered with nothing to consume.
	ErrNoPendingImage = errors.New("no pending image")
)

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		groups:       make([][]pairing.Image, 1),
		pending:      newPendingQueue(),
		createdAt:    now,
		lastActivity: now,
	}
}

// Enqueue registers an arriving image whose bytes are still being fetched.
// A nil fetch marks the entry ready immediately.
func (s *Session) Enqueue(ref string, seq int64, fetch func() error) {
	s.mu.Lock()
	s.lastActivity = time.Now()
	q := s.pending
	s.mu.Unlock()

	q.enqueue(ref, seq, fetch)
}

// Label consumes the next pending image in sequence order and assigns it to
// side in the current group, blocking until the image's fetch resolves.
// Concurrent triggers queue on the session's operation lock and apply in
// trigger order. Returns the updated front and back counts.
func (s *Session) Label(ctx context.Context, side pairing.Side) (int, int, error) {
	if err := s.ops.acquire(ctx); err != nil {
		f, b := s.Counts()
		return f, b, err
	}
	defer s.ops.release()

	s.mu.Lock()
	fronts, backs := s.countsLocked()
	if side == pairing.SideFront && fronts >= MaxPerSide {
		s.mu.Unlock()
		return fronts, backs, ErrCapacityExceeded
	}
	if side == pairing.SideBack && backs >= MaxPerSide {
		s.mu.Unlock()
		return fronts, backs, ErrCapacityExceeded
	}
	q := s.pending
	s.mu.Unlock()

	ref, seq, ok, err := q.dequeueNext(ctx)
	if err != nil {
		return fronts, backs, err
	}
	if !ok {
		return fronts, backs, ErrNoPendingImage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session was reset while we waited on the download; the fresh
	// state must not inherit the consumed image.
	if s.pending != q {
		f, b := s.countsLocked()
		return f, b, ErrNoPendingImage
	}

	s.ensureGroupLocked(s.currentGroup)
	s.groups[s.currentGroup] = append(s.groups[s.currentGroup], pairing.Image{
		Ref:  ref,
		Seq:  seq,
		Side: side,
	})
	s.lastActivity = time.Now()

	f, b := s.countsLocked()
	return f, b, nil
}

// AdvanceGroup moves the cursor to a fresh group and returns its index. It
// queues on the same operation lock as Label, so a separator sent while a
// label still awaits its download takes effect after that label.
func (s *Session) AdvanceGroup(ctx context.Context) (int, error) {
	if err := s.ops.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.ops.release()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentGroup++
	s.ensureGroupLocked(s.currentGroup)
	s.lastActivity = time.Now()
	return s.currentGroup, nil
}

func (s *Session) ensureGroupLocked(i int) {
	for len(s.groups) <= i {
		s.groups = append(s.groups, nil)
	}
}

// Counts returns the derived front and back counts across all groups.
func (s *Session) Counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsLocked()
}

func (s *Session) countsLocked() (fronts, backs int) {
	for _, group := range s.groups {
		for _, img := range group {
			if img.Side == pairing.SideBack {
				backs++
			} else {
				fronts++
			}
		}
	}
	return fronts, backs
}

// Groups returns a snapshot of the labeled images, safe to read while the
// session keeps mutating.
func (s *Session) Groups() [][]pairing.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]pairing.Image, len(s.groups))
	for i, group := range s.groups {
		out[i] = make([]pairing.Image, len(group))
		copy(out[i], group)
	}
	return out
}

// PendingCount reports how many arrivals still await labeling.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	q := s.pending
	s.mu.Unlock()
	return q.count()
}

// Empty reports whether the session holds no labeled images, no pending
// arrivals, and no render awaiting its orientation choice.
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.renderPairs) > 0 {
		return false
	}
	if s.pending.count() > 0 {
		return false
	}
	for _, group := range s.groups {
		if len(group) > 0 {
			return false
		}
	}
	return true
}

// SetRenderPairs stores the pair set held between a render request and the
// orientation choice.
func (s *Session) SetRenderPairs(pairs []pairing.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderPairs = pairs
	s.lastActivity = time.Now()
}

// RenderPairs returns the held pair set, or nil when no render is awaiting
// an orientation choice.
func (s *Session) RenderPairs() []pairing.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renderPairs == nil {
		return nil
	}
	out := make([]pairing.Pair, len(s.renderPairs))
	copy(out, s.renderPairs)
	return out
}

// ClearRenderPairs drops the held pair set.
func (s *Session) ClearRenderPairs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderPairs = nil
}

// TakeRenderPairs returns the held pair set and drops it in the same step,
// so two concurrent orientation choices cannot both claim it.
func (s *Session) TakeRenderPairs() []pairing.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	pairs := s.renderPairs
	s.renderPairs = nil
	return pairs
}

// SetAwaitingBroadcast arms or disarms consumption of the next operator
// text as a broadcast payload.
func (s *Session) SetAwaitingBroadcast(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaitingBroadcast = v
}

// ConsumeBroadcastFlag reports whether a broadcast payload was awaited and
// disarms the flag in the same step.
func (s *Session) ConsumeBroadcastFlag() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.awaitingBroadcast
	s.awaitingBroadcast = false
	return was
}

// Reset reinitializes all submission state. A labeling operation waiting on
// a pending download observes the old queue closing and reports no pending
// image instead of mutating the fresh state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.close()
	s.pending = newPendingQueue()
	s.groups = make([][]pairing.Image, 1)
	s.currentGroup = 0
	s.renderPairs = nil
	s.awaitingBroadcast = false
	s.lastActivity = time.Now()
}

// Touch refreshes the idle timer.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use.
func (s *Store) Get(id string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok = s.sessions[id]; ok {
		return sess
	}

	sess = newSession(id)
	s.sessions[id] = sess

	return sess
}

// Lookup returns the session for id if one already exists, without
// creating it.
func (s *Store) Lookup(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// All returns a snapshot of every live session.
func (s *Store) All() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ResetAll reinitializes every session and returns how many were reset.
func (s *Store) ResetAll() int {
	sessions := s.All()
	for _, sess := range sessions {
		sess.Reset()
	}
	return len(sessions)
}
