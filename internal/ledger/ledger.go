// Package ledger persists the list of conversations the bot has seen. It
// is the only state that survives restarts; broadcasts are addressed to it.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const fileVersion = 1

type ledgerFile struct {
	Version       int      `json:"version"`
	Conversations []string `json:"conversations"`
}

// Ledger is an append-only, insertion-ordered set of conversation ids
// backed by one JSON file. Every addition rewrites the file atomically.
type Ledger struct {
	path string

	mu   sync.Mutex
	ids  []string
	seen map[string]bool
}

// Open loads the ledger at path. A missing file yields an empty ledger.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, seen: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var f ledgerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, id := range f.Conversations {
		if id == "" || l.seen[id] {
			continue
		}
		l.seen[id] = true
		l.ids = append(l.ids, id)
	}
	return l, nil
}

// Add records a conversation id. It reports whether the id was new; known
// ids leave the file untouched.
func (l *Ledger) Add(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen[id] {
		return false, nil
	}
	l.seen[id] = true
	l.ids = append(l.ids, id)

	if err := l.writeLocked(); err != nil {
		return true, err
	}
	return true, nil
}

func (l *Ledger) writeLocked() error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(ledgerFile{Version: fileVersion, Conversations: l.ids}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// All returns the known conversation ids in insertion order.
func (l *Ledger) All() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// Len reports how many conversations are known.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}
