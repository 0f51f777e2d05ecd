package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bowerhall/dossier/internal/logger"
	"github.com/bowerhall/dossier/internal/session"
)

// authorize checks the sender against the configured operator for the
// conversation's platform.
func (c *Controller) authorize(conv, sender string) error {
	platform, _ := splitConv(conv)
	operator, ok := c.operators[platform]
	if !ok || operator == "" || sender != operator {
		return ErrUnauthorized
	}
	return nil
}

func (c *Controller) handleStatus(conv, sender string) {
	if err := c.authorize(conv, sender); err != nil {
		logger.Warn("operator command refused", "session", conv, "command", "status")
		c.reply(conv, "This command is reserved for the operator.")
		return
	}
	c.reply(conv, c.statusReport())
}

func (c *Controller) statusReport() string {
	var b strings.Builder

	sessions := c.sessions.All()

	fmt.Fprintf(&b, "Dossier status\n")
	fmt.Fprintf(&b, "Uptime: %s\n", time.Since(c.startedAt).Round(time.Second))
	fmt.Fprintf(&b, "Sessions: %d\n", len(sessions))
	if oldest := oldestCreation(sessions); !oldest.IsZero() {
		fmt.Fprintf(&b, "Oldest session: %s\n", time.Since(oldest).Round(time.Second))
	}
	fmt.Fprintf(&b, "Known conversations: %d\n", c.ledger.Len())
	fmt.Fprintf(&b, "Storage: %s\n", c.backend)

	if percents, err := cpu.Percent(time.Second, false); err == nil && len(percents) > 0 {
		fmt.Fprintf(&b, "CPU: %.1f%%\n", percents[0])
	}
	if memInfo, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, "Memory: %.1f%% of %s\n", memInfo.UsedPercent, humanBytes(memInfo.Total))
	}
	if c.dataDir != "" {
		if diskInfo, err := disk.Usage(c.dataDir); err == nil {
			fmt.Fprintf(&b, "Disk: %.1f%% of %s\n", diskInfo.UsedPercent, humanBytes(diskInfo.Total))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// oldestCreation returns the earliest creation time among live sessions, or
// the zero time when there are none.
func oldestCreation(sessions []*session.Session) time.Time {
	var oldest time.Time
	for _, sess := range sessions {
		if created := sess.CreatedAt(); oldest.IsZero() || created.Before(oldest) {
			oldest = created
		}
	}
	return oldest
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func (c *Controller) handleBroadcast(conv, sender string, sess *session.Session) {
	if err := c.authorize(conv, sender); err != nil {
		logger.Warn("operator command refused", "session", conv, "command", "broadcast")
		c.reply(conv, "This command is reserved for the operator.")
		return
	}

	sess.SetAwaitingBroadcast(true)
	c.reply(conv, "Send the broadcast message now, or \"cancel\".")
}

// runBroadcast fans the payload out to every known conversation whose
// platform has a transport attached.
func (c *Controller) runBroadcast(conv, payload string) {
	var delivered, failed int

	for _, target := range c.ledger.All() {
		platform, chatID := splitConv(target)
		t, ok := c.transports[platform]
		if !ok {
			continue
		}
		if err := t.Send(chatID, payload); err != nil {
			logger.Error("broadcast delivery failed", "target", target, "error", err)
			failed++
			continue
		}
		delivered++
	}

	logger.Info("broadcast complete", "delivered", delivered, "failed", failed)
	c.reply(conv, fmt.Sprintf("Broadcast delivered to %d conversation(s), %d failed.", delivered, failed))
}

// handlePurge resets every session and clears the whole storage root. The
// conversation ledger is not touched, so broadcasts still reach everyone.
func (c *Controller) handlePurge(ctx context.Context, conv, sender string) {
	if err := c.authorize(conv, sender); err != nil {
		logger.Warn("operator command refused", "session", conv, "command", "purge")
		c.reply(conv, "This command is reserved for the operator.")
		return
	}

	count := c.sessions.ResetAll()
	if err := c.store.DeletePrefix(ctx, ""); err != nil {
		logger.Error("storage purge failed", "error", err)
	}

	logger.Info("global purge", "sessions", count)
	c.reply(conv, fmt.Sprintf("Purged %d session(s) and all stored artifacts.", count))
}
