package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bowerhall/dossier/internal/logger"
	"github.com/bowerhall/dossier/internal/pairing"
	"github.com/bowerhall/dossier/internal/session"
)

const (
	maxFetchAttempts = 3
	fetchBackoffBase = 500 * time.Millisecond
	fetchBackoffCap  = 5 * time.Second
)

var (
	ErrIncompleteGroup   = errors.New("a card is missing one side")
	ErrInsufficientInput = errors.New("no complete pairs to render")
	ErrUnauthorized      = errors.New("sender is not the operator")
)

const helpText = `I assemble photos of identity cards into a single-page PDF.

Send a photo of each side, then label it:
- caption the photo "front" or "back", or send the word right after it
- send "next" (or anything else) before starting the next card
- send "render" when every card has both sides, then pick an orientation
- send "reset" to discard everything and start over

Up to 5 cards fit on one page.`

// HandleImage registers an inbound image. The bytes are fetched and stored
// in the background while the arrival takes its place in the pending queue
// by sequence number; a "front"/"back" caption labels it right away, any
// other caption is ignored.
func (c *Controller) HandleImage(ctx context.Context, conv string, ev ImageEvent) {
	sess := c.sessions.Get(conv)
	sess.Touch()
	c.recordConversation(conv)

	ref := fmt.Sprintf("%s/%d-%s", conv, ev.Seq, uuid.New().String()[:8])
	logger.Debug("image arrival", "session", conv, "seq", ev.Seq, "ref", ref)

	sess.Enqueue(ref, ev.Seq, func() error {
		data, err := c.fetchWithRetry(ctx, ev.Fetch)
		if err != nil {
			logger.Error("image fetch exhausted", "session", conv, "ref", ref, "error", err)
			c.alerter.Warn("download", "Image download failed", err)
			c.reply(conv, "I couldn't download that image. Please send it again.")
			return err
		}
		if err := c.store.Save(ctx, ref, data); err != nil {
			logger.Error("image store failed", "session", conv, "ref", ref, "error", err)
			c.reply(conv, "I couldn't store that image. Please send it again.")
			return err
		}
		return nil
	})

	switch strings.ToLower(strings.TrimSpace(ev.Caption)) {
	case "front", "/front":
		c.label(ctx, conv, sess, pairing.SideFront)
	case "back", "/back":
		c.label(ctx, conv, sess, pairing.SideBack)
	}
}

// HandleText routes a text message. Known commands execute; any other free
// text separates cards; an armed broadcast consumes the next operator text
// as its payload.
func (c *Controller) HandleText(ctx context.Context, conv, sender, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	sess := c.sessions.Get(conv)
	sess.Touch()
	c.recordConversation(conv)

	// Only the operator's text feeds an armed broadcast; in a shared chat
	// anyone else's message stays an ordinary message and the prompt stays
	// armed.
	if c.authorize(conv, sender) == nil && sess.ConsumeBroadcastFlag() {
		if normalize(trimmed) == "cancel" {
			c.reply(conv, "Broadcast cancelled.")
			return
		}
		c.runBroadcast(conv, trimmed)
		return
	}

	switch normalize(trimmed) {
	case "start", "help":
		c.reply(conv, helpText)
	case "front":
		c.label(ctx, conv, sess, pairing.SideFront)
	case "back":
		c.label(ctx, conv, sess, pairing.SideBack)
	case "next":
		c.advance(ctx, conv, sess)
	case "render":
		c.startRender(ctx, conv, sess)
	case "reset":
		c.resetSession(ctx, conv, sess)
		c.reply(conv, "Session cleared. Send the first photo whenever you're ready.")
	case "cancel":
		if pairs := sess.TakeRenderPairs(); len(pairs) > 0 {
			c.reply(conv, "Render cancelled. Your cards are still here.")
		} else {
			c.reply(conv, "Nothing to cancel.")
		}
	case "status":
		c.handleStatus(conv, sender)
	case "broadcast":
		c.handleBroadcast(conv, sender, sess)
	case "purge":
		c.handlePurge(ctx, conv, sender)
	default:
		c.advance(ctx, conv, sess)
	}
}

// normalize lowercases a command and strips the optional leading slash.
func normalize(text string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(text)), "/")
}

// label consumes the next pending image in sequence order, waiting for its
// download if necessary. Both the caption path and the command path end up
// here.
func (c *Controller) label(ctx context.Context, conv string, sess *session.Session, side pairing.Side) {
	fronts, backs, err := sess.Label(ctx, side)
	switch {
	case errors.Is(err, session.ErrCapacityExceeded):
		c.reply(conv, fmt.Sprintf("This document already holds %d %s images. Send \"render\" or \"reset\".", session.MaxPerSide, side))
	case errors.Is(err, session.ErrNoPendingImage):
		c.reply(conv, "There is no image waiting for a label. Send a photo first.")
	case err != nil:
		logger.Error("labeling failed", "session", conv, "error", err)
		c.reply(conv, "Something went wrong. Please try again.")
	default:
		logger.Debug("image labeled", "session", conv, "side", side, "fronts", fronts, "backs", backs)
		c.reply(conv, fmt.Sprintf("Marked as %s (%d front / %d back).", side, fronts, backs))
	}
}

func (c *Controller) advance(ctx context.Context, conv string, sess *session.Session) {
	group, err := sess.AdvanceGroup(ctx)
	if err != nil {
		logger.Error("group advance failed", "session", conv, "error", err)
		return
	}
	c.reply(conv, fmt.Sprintf("Starting card #%d. Send its photos.", group+1))
}

// resetSession reinitializes the session and deletes its stored artifacts.
func (c *Controller) resetSession(ctx context.Context, conv string, sess *session.Session) {
	sess.Reset()
	if err := c.store.DeletePrefix(ctx, conv); err != nil {
		logger.Error("artifact cleanup failed", "session", conv, "error", err)
	}
	logger.Info("session reset", "session", conv)
}

func (c *Controller) recordConversation(conv string) {
	added, err := c.ledger.Add(conv)
	if err != nil {
		logger.Error("ledger append failed", "session", conv, "error", err)
		return
	}
	if added {
		logger.Info("conversation recorded", "session", conv, "total", c.ledger.Len())
	}
}

func (c *Controller) fetchWithRetry(ctx context.Context, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if fetch == nil {
		return nil, errors.New("no fetch operation")
	}

	backoff := fetchBackoffBase
	var lastErr error

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		data, err := fetch(ctx)
		if err == nil {
			return data, nil
		}

		lastErr = err
		logger.Warn("image fetch failed", "attempt", attempt, "error", err)

		if attempt < maxFetchAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
			if backoff > fetchBackoffCap {
				backoff = fetchBackoffCap
			}
		}
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", maxFetchAttempts, lastErr)
}

func splitConv(conv string) (string, string) {
	platform, chatID, _ := strings.Cut(conv, ":")
	return platform, chatID
}

func (c *Controller) transportFor(conv string) (Transport, string, bool) {
	platform, chatID := splitConv(conv)
	t, ok := c.transports[platform]
	return t, chatID, ok
}

func (c *Controller) reply(conv, message string) {
	t, chatID, ok := c.transportFor(conv)
	if !ok {
		logger.Warn("no transport for reply", "session", conv)
		return
	}
	if err := t.Send(chatID, message); err != nil {
		logger.Error("reply failed", "session", conv, "error", err)
	}
}
