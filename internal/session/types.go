package session

import (
	"sync"
	"time"

	"github.com/bowerhall/dossier/internal/pairing"
)

// MaxPerSide caps how many fronts and how many backs one session may hold.
const MaxPerSide = 5

// Session tracks one conversation's submission state. groups is the single
// source of truth for labeled images; front/back counts are derived from it
// on demand. Mutating commands for a session are serialized through ops in
// trigger order.
type Session struct {
	ID string

	mu                sync.Mutex
	groups            [][]pairing.Image
	currentGroup      int
	pending           *pendingQueue
	renderPairs       []pairing.Pair
	awaitingBroadcast bool
	createdAt         time.Time
	lastActivity      time.Time

	ops opLock
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}
