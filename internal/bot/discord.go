package bot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bowerhall/dossier/internal/controller"
	"github.com/bowerhall/dossier/internal/logger"
	"github.com/bwmarrin/discordgo"
)

type discord struct {
	session *discordgo.Session
	ctrl    *controller.Controller
	ctx     context.Context
}

func NewDiscord(token string, ctrl *controller.Controller) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	// message content is a privileged intent, required to read captions
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	d := &discord{
		session: session,
		ctrl:    ctrl,
	}

	session.AddHandler(d.handleMessage)
	session.AddHandler(d.handleInteraction)

	return d, nil
}

func (d *discord) Platform() string {
	return "discord"
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}

	logger.Info("discord connected")

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	conv := fmt.Sprintf("discord:%s", m.ChannelID)

	seq, err := snowflakeSeq(m.ID)
	if err != nil {
		logger.Error("bad message id", "id", m.ID, "error", err)
		return
	}

	handledAttachment := false
	for i, att := range m.Attachments {
		if !strings.HasPrefix(att.ContentType, "image/") {
			continue
		}

		url := att.URL
		logger.Info("attachment received", "session", conv, "from", m.Author.Username, "caption", truncate(m.Content, 50))

		d.ctrl.HandleImage(d.ctx, conv, controller.ImageEvent{
			// several attachments on one message keep their order
			Seq:     seq + int64(i),
			Caption: m.Content,
			Sender:  m.Author.ID,
			Fetch: func(ctx context.Context) ([]byte, error) {
				return downloadURL(ctx, url)
			},
		})
		handledAttachment = true
	}
	if handledAttachment {
		return
	}

	if strings.TrimSpace(m.Content) == "" {
		return
	}

	logger.Info("message received", "session", conv, "from", m.Author.Username, "text", truncate(m.Content, 50))
	d.ctrl.HandleText(d.ctx, conv, m.Author.ID, m.Content)
}

func (d *discord) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	conv := fmt.Sprintf("discord:%s", i.ChannelID)
	data := i.MessageComponentData().CustomID
	logger.Debug("interaction received", "session", conv, "data", data)

	// ack right away, the document follows as a regular message
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		logger.Debug("interaction ack failed", "error", err)
	}

	d.ctrl.HandleCallback(d.ctx, conv, interactionSender(i), data)
}

func interactionSender(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// snowflakeSeq turns a discord message id into the per-channel sequence
// number; snowflakes increase with time.
func snowflakeSeq(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

func (d *discord) Send(chatID string, message string) error {
	for _, chunk := range chunkMessage(message, discordMessageLimit) {
		if _, err := d.session.ChannelMessageSend(chatID, chunk); err != nil {
			logger.Error("discord send failed", "error", err, "channelID", chatID)
			return err
		}
	}
	return nil
}

func (d *discord) SendTyping(chatID string) error {
	return d.session.ChannelTyping(chatID)
}

func (d *discord) SendDocument(chatID string, data []byte, filename, caption string) error {
	_, err := d.session.ChannelMessageSendComplex(chatID, &discordgo.MessageSend{
		Content: caption,
		Files: []*discordgo.File{
			{
				Name:        filename,
				ContentType: "application/pdf",
				Reader:      bytes.NewReader(data),
			},
		},
	})
	if err != nil {
		logger.Error("discord send document failed", "error", err, "channelID", chatID)
		return err
	}

	logger.Info("discord document sent", "channelID", chatID, "bytes", len(data))
	return nil
}

func (d *discord) SendWithButtons(chatID string, message string, buttons []controller.Button) error {
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.Label,
			Style:    discordgo.SecondaryButton,
			CustomID: b.CallbackID,
		})
	}

	_, err := d.session.ChannelMessageSendComplex(chatID, &discordgo.MessageSend{
		Content:    message,
		Components: []discordgo.MessageComponent{row},
	})
	if err != nil {
		logger.Error("discord send buttons failed", "error", err, "channelID", chatID)
	}
	return err
}
