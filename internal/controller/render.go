package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bowerhall/dossier/internal/layout"
	"github.com/bowerhall/dossier/internal/logger"
	"github.com/bowerhall/dossier/internal/pairing"
	"github.com/bowerhall/dossier/internal/pdf"
	"github.com/bowerhall/dossier/internal/session"
)

var orientationButtons = []Button{
	{Label: "Normal", CallbackID: "orient:normal"},
	{Label: "Reversed", CallbackID: "orient:reversed"},
	{Label: "Mirrored", CallbackID: "orient:mirror"},
}

// buildRenderPairs snapshots the session's groups into an ordered pair set.
// The render is refused while any card is missing a side.
func (c *Controller) buildRenderPairs(sess *session.Session) ([]pairing.Pair, error) {
	groups := sess.Groups()
	result := pairing.Build(groups, pairing.MaxPairs)

	if result.Incomplete > 0 {
		return nil, ErrIncompleteGroup
	}
	if len(result.Pairs) == 0 {
		return nil, ErrInsufficientInput
	}

	return result.Pairs, nil
}

// startRender holds the pair set on the session and offers the orientation
// choice. Nothing is composed until a button is pressed.
func (c *Controller) startRender(ctx context.Context, conv string, sess *session.Session) {
	pairs, err := c.buildRenderPairs(sess)
	switch {
	case errors.Is(err, ErrIncompleteGroup):
		group, side := firstIncomplete(sess.Groups())
		logger.Debug("render refused", "session", conv, "card", group+1, "missing", side)
		c.reply(conv, fmt.Sprintf("Card #%d is missing its %s. Send the remaining photo, or \"reset\" to start over.", group+1, side))
		return
	case errors.Is(err, ErrInsufficientInput):
		c.reply(conv, "There is nothing to render yet. Send photos and label them front/back.")
		return
	case err != nil:
		logger.Error("render preparation failed", "session", conv, "error", err)
		c.reply(conv, "Something went wrong. Please try again.")
		return
	}

	sess.SetRenderPairs(pairs)
	logger.Info("render requested", "session", conv, "pairs", len(pairs))

	t, chatID, ok := c.transportFor(conv)
	if !ok {
		return
	}
	if err := t.SendWithButtons(chatID, "Choose an orientation for your document:", orientationButtons); err != nil {
		logger.Error("orientation prompt failed", "session", conv, "error", err)
	}
}

// firstIncomplete finds the first card with unequal sides and names the
// side it lacks.
func firstIncomplete(groups [][]pairing.Image) (int, pairing.Side) {
	for i, group := range groups {
		var fronts, backs int
		for _, img := range group {
			if img.Side == pairing.SideFront {
				fronts++
			} else {
				backs++
			}
		}
		if fronts > backs {
			return i, pairing.SideBack
		}
		if backs > fronts {
			return i, pairing.SideFront
		}
	}
	return 0, pairing.SideFront
}

// HandleCallback resolves an orientation button press. Unknown callback
// data is ignored so stale buttons from old prompts stay harmless.
func (c *Controller) HandleCallback(ctx context.Context, conv, sender, data string) {
	raw, found := strings.CutPrefix(data, "orient:")
	if !found {
		logger.Debug("unknown callback", "session", conv, "data", data)
		return
	}
	mode, err := layout.ParseMode(raw)
	if err != nil {
		logger.Debug("unknown orientation", "session", conv, "data", data)
		return
	}

	sess := c.sessions.Get(conv)
	sess.Touch()

	pairs := sess.TakeRenderPairs()
	if len(pairs) == 0 {
		c.reply(conv, "Nothing is awaiting an orientation choice. Send \"render\" first.")
		return
	}

	c.renderDocument(ctx, conv, sess, pairs, mode)
}

// renderDocument composes, stores and delivers the PDF, then resets the
// session. On failure the pair set is restored so the orientation button
// can simply be pressed again.
func (c *Controller) renderDocument(ctx context.Context, conv string, sess *session.Session, pairs []pairing.Pair, mode layout.Mode) {
	t, chatID, ok := c.transportFor(conv)
	if !ok {
		logger.Warn("no transport for render", "session", conv)
		sess.SetRenderPairs(pairs)
		return
	}

	if err := t.SendTyping(chatID); err != nil {
		logger.Debug("typing indicator failed", "session", conv, "error", err)
	}

	placements := c.template.Page(pairs, mode)

	document, err := pdf.Compose(ctx, placements, c.store)
	if err != nil {
		logger.Error("composition failed", "session", conv, "error", err)
		c.alerter.Warn("render", "PDF composition failed", err)
		sess.SetRenderPairs(pairs)
		c.reply(conv, "I couldn't assemble the PDF. Your pairs are kept, press an orientation button again.")
		return
	}

	ref := fmt.Sprintf("%s/out/%s.pdf", conv, uuid.New().String()[:8])
	if err := c.store.Save(ctx, ref, document); err != nil {
		logger.Warn("pdf store failed", "session", conv, "ref", ref, "error", err)
	}

	filename := fmt.Sprintf("dossier-%s.pdf", time.Now().Format("20060102-150405"))
	caption := fmt.Sprintf("%d card(s), %s orientation.", len(pairs), mode)
	if err := t.SendDocument(chatID, document, filename, caption); err != nil {
		logger.Error("document delivery failed", "session", conv, "error", err)
		sess.SetRenderPairs(pairs)
		c.reply(conv, "Sending the PDF failed. Press an orientation button again to retry.")
		return
	}

	logger.Info("document delivered", "session", conv, "pairs", len(pairs), "mode", mode, "bytes", len(document))
	c.resetSession(ctx, conv, sess)
}
