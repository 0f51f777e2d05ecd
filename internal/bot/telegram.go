package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bowerhall/dossier/internal/controller"
	"github.com/bowerhall/dossier/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func NewTelegram(token string, ctrl *controller.Controller) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &telegram{api: api, ctrl: ctrl}, nil
}

func (t *telegram) Platform() string {
	return "telegram"
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	logger.Info("telegram connected", "bot", t.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.CallbackQuery != nil {
				go t.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil {
				continue
			}

			go t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	conv := fmt.Sprintf("telegram:%d", msg.Chat.ID)

	var sender string
	if msg.From != nil {
		sender = strconv.FormatInt(msg.From.ID, 10)
	}

	if len(msg.Photo) > 0 {
		// telegram offers several sizes, take the largest
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		logger.Info("photo received", "session", conv, "seq", msg.MessageID, "caption", truncate(msg.Caption, 50))

		t.ctrl.HandleImage(ctx, conv, controller.ImageEvent{
			Seq:     int64(msg.MessageID),
			Caption: msg.Caption,
			Sender:  sender,
			Fetch: func(ctx context.Context) ([]byte, error) {
				return t.downloadFile(ctx, fileID)
			},
		})
		return
	}

	// images sent as uncompressed files arrive as documents
	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		fileID := doc.FileID
		logger.Info("image document received", "session", conv, "seq", msg.MessageID, "caption", truncate(msg.Caption, 50))

		t.ctrl.HandleImage(ctx, conv, controller.ImageEvent{
			Seq:     int64(msg.MessageID),
			Caption: msg.Caption,
			Sender:  sender,
			Fetch: func(ctx context.Context) ([]byte, error) {
				return t.downloadFile(ctx, fileID)
			},
		})
		return
	}

	if msg.Text == "" {
		return
	}

	logger.Info("message received", "session", conv, "text", truncate(msg.Text, 50))
	t.ctrl.HandleText(ctx, conv, sender, msg.Text)
}

func (t *telegram) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}

	conv := fmt.Sprintf("telegram:%d", cb.Message.Chat.ID)
	sender := strconv.FormatInt(cb.From.ID, 10)
	logger.Debug("callback received", "session", conv, "data", cb.Data)

	// stop the client-side spinner before the real work starts
	if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Debug("callback ack failed", "error", err)
	}

	t.ctrl.HandleCallback(ctx, conv, sender, cb.Data)
}

func (t *telegram) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	return downloadURL(ctx, file.Link(t.api.Token))
}

func parseTelegramChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	return id, nil
}

func (t *telegram) Send(chatID string, message string) error {
	id, err := parseTelegramChatID(chatID)
	if err != nil {
		return err
	}

	for _, chunk := range chunkMessage(message, telegramMessageLimit) {
		if _, err := t.api.Send(tgbotapi.NewMessage(id, chunk)); err != nil {
			logger.Error("send failed", "error", err, "chatID", chatID)
			return err
		}
	}
	return nil
}

func (t *telegram) SendTyping(chatID string) error {
	id, err := parseTelegramChatID(chatID)
	if err != nil {
		return err
	}

	_, err = t.api.Request(tgbotapi.NewChatAction(id, tgbotapi.ChatUploadDocument))
	return err
}

func (t *telegram) SendDocument(chatID string, data []byte, filename, caption string) error {
	id, err := parseTelegramChatID(chatID)
	if err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(id, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption

	if _, err := t.api.Send(doc); err != nil {
		logger.Error("send document failed", "error", err, "chatID", chatID)
		return err
	}

	logger.Info("document sent", "chatID", chatID, "bytes", len(data))
	return nil
}

func (t *telegram) SendWithButtons(chatID string, message string, buttons []controller.Button) error {
	id, err := parseTelegramChatID(chatID)
	if err != nil {
		return err
	}

	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.CallbackID))
	}

	msg := tgbotapi.NewMessage(id, message)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)

	if _, err := t.api.Send(msg); err != nil {
		logger.Error("send buttons failed", "error", err, "chatID", chatID)
		return err
	}
	return nil
}
