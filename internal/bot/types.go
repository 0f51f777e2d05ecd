package bot

import (
	"context"

	"github.com/bowerhall/dossier/internal/controller"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is one chat platform attachment. Start pumps platform updates into
// the controller; the embedded Transport carries the controller's outbound
// traffic back.
type Bot interface {
	controller.Transport
	Start(ctx context.Context) error
}

type telegram struct {
	api  *tgbotapi.BotAPI
	ctrl *controller.Controller
}
