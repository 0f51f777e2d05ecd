package session

import (
	"context"
	"sort"
	"sync"
)

// pendingEntry is one image awaiting its background fetch. done closes when
// the fetch resolves either way; err is set before done closes.
type pendingEntry struct {
	ref  string
	seq  int64
	done chan struct{}
	err  error
}

// pendingQueue holds arrivals whose bytes may still be in flight. Entries
// are consumed strictly in sequence-number order regardless of which fetch
// finishes first. Consumption is single-reader (the session's operation
// lock serializes labeling); enqueue may race freely with it.
type pendingQueue struct {
	mu      sync.Mutex
	entries []*pendingEntry
	closed  chan struct{}
	once    sync.Once
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{closed: make(chan struct{})}
}

func (q *pendingQueue) enqueue(ref string, seq int64, fetch func() error) {
	e := &pendingEntry{ref: ref, seq: seq, done: make(chan struct{})}
	if fetch == nil {
		close(e.done)
	} else {
		go func() {
			e.err = fetch()
			close(e.done)
		}()
	}

	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()
}

// dequeueNext resolves the lowest-sequence entry. It waits for that entry's
// fetch if needed, removes it, and returns it on success. A failed fetch
// also removes the entry but returns ok=false; the caller treats that as no
// image available. Later entries are never inspected in the same call.
func (q *pendingQueue) dequeueNext(ctx context.Context) (ref string, seq int64, ok bool, err error) {
	q.mu.Lock()
	sort.Slice(q.entries, func(i, j int) bool {
		return q.entries[i].seq < q.entries[j].seq
	})
	if len(q.entries) == 0 {
		q.mu.Unlock()
		return "", 0, false, nil
	}
	head := q.entries[0]
	q.mu.Unlock()

	select {
	case <-head.done:
	case <-q.closed:
		return "", 0, false, nil
	case <-ctx.Done():
		return "", 0, false, ctx.Err()
	}

	q.remove(head)

	if head.err != nil {
		return "", 0, false, nil
	}
	return head.ref, head.seq, true, nil
}

func (q *pendingQueue) remove(target *pendingEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e == target {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

func (q *pendingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// close wakes any waiting dequeue; used when the session resets so a label
// blocked on a download does not outlive the state it targeted.
func (q *pendingQueue) close() {
	q.once.Do(func() { close(q.closed) })
}
