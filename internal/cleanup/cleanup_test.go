package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/bowerhall/dossier/internal/pairing"
	"github.com/bowerhall/dossier/internal/session"
	"github.com/bowerhall/dossier/internal/storage"
)

func TestRunPurgesIdleSessions(t *testing.T) {
	sessions := session.NewStore()
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	sess := sessions.Get("telegram:1")
	sess.Enqueue("telegram:1/front.jpg", 1, nil)
	if _, _, err := sess.Label(ctx, pairing.SideFront); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "telegram:1/front.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)

	c := New(sessions, store, nil, time.Millisecond)
	if purged := c.Run(ctx); purged != 1 {
		t.Fatalf("expected 1 purged conversation, got %d", purged)
	}

	if fronts, _ := sess.Counts(); fronts != 0 {
		t.Errorf("session state not reset")
	}
	refs, err := store.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Errorf("artifacts not deleted: %v", refs)
	}
}

func TestRunKeepsActiveSessions(t *testing.T) {
	sessions := session.NewStore()
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	sess := sessions.Get("telegram:1")
	sess.Enqueue("telegram:1/front.jpg", 1, nil)
	if _, _, err := sess.Label(ctx, pairing.SideFront); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "telegram:1/front.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}

	c := New(sessions, store, nil, time.Hour)
	if purged := c.Run(ctx); purged != 0 {
		t.Fatalf("active session purged")
	}
	if fronts, _ := sess.Counts(); fronts != 1 {
		t.Errorf("active session state lost")
	}
}

func TestRunSweepsOrphanedArtifacts(t *testing.T) {
	sessions := session.NewStore()
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// artifacts left behind by a previous process run
	if err := store.Save(ctx, "telegram:99/stale.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}

	c := New(sessions, store, nil, time.Millisecond)
	if purged := c.Run(ctx); purged != 1 {
		t.Fatalf("expected 1 purged conversation, got %d", purged)
	}

	refs, err := store.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Errorf("orphaned artifacts survived: %v", refs)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := New(session.NewStore(), nil, nil, time.Hour)
	if err := c.Start("whenever"); err == nil {
		t.Fatal("expected schedule parse error")
	}

	if err := c.Start("*/30 * * * *"); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
	c.Stop()
}
