package controller

import (
	"context"
	"time"

	"github.com/bowerhall/dossier/internal/alerts"
	"github.com/bowerhall/dossier/internal/layout"
	"github.com/bowerhall/dossier/internal/ledger"
	"github.com/bowerhall/dossier/internal/session"
	"github.com/bowerhall/dossier/internal/storage"
)

// Transport is the outbound half of a chat platform. The bot package
// implements it; the controller calls it to answer users.
type Transport interface {
	Platform() string
	Send(chatID string, message string) error
	SendTyping(chatID string) error
	SendDocument(chatID string, data []byte, filename, caption string) error
	SendWithButtons(chatID string, message string, buttons []Button) error
}

type Button struct {
	Label      string
	CallbackID string
}

// ImageEvent describes one inbound image. Seq is the platform message id,
// strictly increasing per conversation. Fetch downloads the bytes from the
// platform when called.
type ImageEvent struct {
	Seq     int64
	Caption string
	Sender  string
	Fetch   func(ctx context.Context) ([]byte, error)
}

type Controller struct {
	sessions   *session.Store
	store      storage.Store
	ledger     *ledger.Ledger
	template   layout.Template
	transports map[string]Transport
	operators  map[string]string
	alerter    *alerts.Alerter
	backend    string
	dataDir    string
	startedAt  time.Time
}

func New(sessions *session.Store, store storage.Store, led *ledger.Ledger, template layout.Template) *Controller {
	return &Controller{
		sessions:   sessions,
		store:      store,
		ledger:     led,
		template:   template,
		transports: make(map[string]Transport),
		operators:  make(map[string]string),
		startedAt:  time.Now(),
	}
}

func (c *Controller) RegisterTransport(t Transport) {
	c.transports[t.Platform()] = t
}

// SetOperator grants a sender id the privileged commands on one platform.
func (c *Controller) SetOperator(platform, senderID string) {
	if senderID != "" {
		c.operators[platform] = senderID
	}
}

func (c *Controller) SetAlerter(alerter *alerts.Alerter) {
	c.alerter = alerter
}

// SetBackendInfo names the storage backend and data directory for the
// operator status report.
func (c *Controller) SetBackendInfo(backend, dataDir string) {
	c.backend = backend
	c.dataDir = dataDir
}
