package ledger

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestOpenMissingFile(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "conversations.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("expected empty ledger, got %d entries", l.Len())
	}
}

func TestAddAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	ids := []string{"telegram:10", "discord:20", "telegram:30"}
	for _, id := range ids {
		added, err := l.Add(id)
		if err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
		if !added {
			t.Errorf("Add(%s) reported known id", id)
		}
	}

	// duplicate is suppressed
	added, err := l.Add("discord:20")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Errorf("duplicate reported as new")
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(reloaded.All(), ids) {
		t.Errorf("order not preserved across reload: %v", reloaded.All())
	}
}

func TestAllIsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	l.Add("telegram:1")

	got := l.All()
	got[0] = "modified"

	if l.All()[0] != "telegram:1" {
		t.Error("All() should return a copy")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestConcurrentAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// half the goroutines collide on the same id
			if n%2 == 0 {
				l.Add("telegram:same")
			} else {
				l.Add("telegram:other")
			}
		}(i)
	}
	wg.Wait()

	if l.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", l.Len())
	}
}
