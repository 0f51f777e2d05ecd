package alerts

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bowerhall/dossier/internal/logger"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarn:
		return "warn"
	default:
		return "info"
	}
}

func (s Severity) badge() string {
	switch s {
	case SeverityCritical:
		return "🚨"
	case SeverityWarn:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// NotifyFunc delivers one alert message; main wires it to the operator's
// chat. A nil Alerter or nil notify func drops alerts silently.
type NotifyFunc func(message string)

type alertKey struct {
	component string
	message   string
}

// Alerter rate-limits operator notifications: repeats of the same
// component+message pair inside the cooldown window are suppressed.
type Alerter struct {
	notify   NotifyFunc
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[alertKey]time.Time
}

func New(notify NotifyFunc, cooldown time.Duration) *Alerter {
	return &Alerter{
		notify:   notify,
		cooldown: cooldown,
		lastSent: make(map[alertKey]time.Time),
	}
}

// Alert formats and delivers one notification unless an identical one went
// out inside the cooldown window. The notify call happens outside the lock
// since it may block on a network round trip.
func (a *Alerter) Alert(severity Severity, component, message string, err error) {
	if a == nil || a.notify == nil {
		return
	}

	key := alertKey{component: component, message: message}
	now := time.Now()

	a.mu.Lock()
	if last, ok := a.lastSent[key]; ok && now.Sub(last) < a.cooldown {
		a.mu.Unlock()
		logger.Debug("alert suppressed", "component", component, "message", message)
		return
	}
	a.lastSent[key] = now
	a.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", severity.badge(), component, message)
	if err != nil {
		fmt.Fprintf(&b, "\n\nError: %v", err)
	}

	a.notify(b.String())
	logger.Info("alert sent", "component", component, "severity", severity.String())
}

func (a *Alerter) Info(component, message string) {
	a.Alert(SeverityInfo, component, message, nil)
}

func (a *Alerter) Warn(component, message string, err error) {
	a.Alert(SeverityWarn, component, message, err)
}

func (a *Alerter) Critical(component, message string, err error) {
	a.Alert(SeverityCritical, component, message, err)
}
