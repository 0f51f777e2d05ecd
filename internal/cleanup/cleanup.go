// Package cleanup reclaims storage held by abandoned sessions.
package cleanup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bowerhall/dossier/internal/alerts"
	"github.com/bowerhall/dossier/internal/logger"
	"github.com/bowerhall/dossier/internal/session"
	"github.com/bowerhall/dossier/internal/storage"
)

// cronParser is configured for standard 5-field cron expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Cleaner resets sessions idle beyond the TTL and deletes their stored
// artifacts, including artifact prefixes orphaned by a restart.
type Cleaner struct {
	sessions *session.Store
	store    storage.Store
	alerter  *alerts.Alerter
	ttl      time.Duration
	runner   *cron.Cron
}

func New(sessions *session.Store, store storage.Store, alerter *alerts.Alerter, ttl time.Duration) *Cleaner {
	return &Cleaner{
		sessions: sessions,
		store:    store,
		alerter:  alerter,
		ttl:      ttl,
	}
}

// Start schedules periodic runs. The schedule is a 5-field cron expression.
func (c *Cleaner) Start(schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cleanup schedule: %w", err)
	}

	c.runner = cron.New(cron.WithParser(cronParser))
	if _, err := c.runner.AddFunc(schedule, func() {
		c.Run(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	c.runner.Start()

	logger.Info("cleanup scheduled", "schedule", schedule, "ttl", c.ttl)
	return nil
}

// Stop halts the schedule. Already-running jobs finish.
func (c *Cleaner) Stop() {
	if c.runner != nil {
		c.runner.Stop()
	}
}

// Run performs one sweep and returns how many conversations were purged.
func (c *Cleaner) Run(ctx context.Context) int {
	cutoff := time.Now().Add(-c.ttl)
	purged := 0

	for _, sess := range c.sessions.All() {
		if sess.Empty() || sess.LastActivity().After(cutoff) {
			continue
		}

		sess.Reset()
		if err := c.store.DeletePrefix(ctx, sess.ID); err != nil {
			logger.Error("cleanup delete failed", "session", sess.ID, "error", err)
			c.alerter.Warn("cleanup", "artifact purge failed", err)
			continue
		}
		purged++
		logger.Info("idle session purged", "session", sess.ID)
	}

	purged += c.sweepOrphans(ctx, cutoff)

	if purged > 0 {
		c.alerter.Info("cleanup", fmt.Sprintf("purged %d idle conversation(s)", purged))
	}
	return purged
}

// sweepOrphans deletes artifact prefixes whose session no longer carries
// state, which happens when the process restarted mid-session.
func (c *Cleaner) sweepOrphans(ctx context.Context, cutoff time.Time) int {
	refs, err := c.store.List(ctx, "")
	if err != nil {
		logger.Error("cleanup list failed", "error", err)
		c.alerter.Warn("cleanup", "artifact listing failed", err)
		return 0
	}

	prefixes := make(map[string]bool)
	for _, ref := range refs {
		if i := strings.IndexByte(ref, '/'); i > 0 {
			prefixes[ref[:i]] = true
		}
	}

	purged := 0
	for prefix := range prefixes {
		sess, ok := c.sessions.Lookup(prefix)
		if ok && (!sess.Empty() || sess.LastActivity().After(cutoff)) {
			continue
		}

		if err := c.store.DeletePrefix(ctx, prefix); err != nil {
			logger.Error("cleanup delete failed", "prefix", prefix, "error", err)
			continue
		}
		purged++
		logger.Info("orphaned artifacts purged", "prefix", prefix)
	}
	return purged
}
