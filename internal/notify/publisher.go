package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/scorekeeper/internal/model"
)

// Notifier receives notifications
type Notifier interface {
	Publish(n model.Notification)
}

// Publisher broadcasts notifications on a hub as JSON events named after
// the notification kind
type Publisher struct {
	hub    *Hub
	logger *slog.Logger
}

var _ Notifier = (*Publisher)(nil)

// NewPublisher creates a publisher over the hub
func NewPublisher(hub *Hub, logger *slog.Logger) *Publisher {
	return &Publisher{
		hub:    hub,
		logger: logger.With(slog.String("component", "notify")),
	}
}

// Publish logs the notification and sends it to interested clients
func (p *Publisher) Publish(n model.Notification) {
	level := slog.LevelInfo
	if n.Level == model.LevelError {
		level = slog.LevelWarn
	}
	p.logger.Log(context.Background(), level, "notification",
		slog.String("kind", string(n.Kind)),
		slog.String("title", n.Title),
		slog.String("message", n.Message),
	)

	data, err := json.Marshal(n)
	if err != nil {
		p.logger.Error("failed to encode notification",
			slog.String("kind", string(n.Kind)),
			slog.String("error", err.Error()),
		)
		return
	}
	p.hub.BroadcastEvent(string(n.Kind), string(data), n.UserID)
}

// Fanout publishes to every notifier in order
type Fanout []Notifier

// Publish forwards n to each notifier
func (f Fanout) Publish(n model.Notification) {
	for _, notifier := range f {
		notifier.Publish(n)
	}
}

// Recorder keeps published notifications in memory
type Recorder struct {
	mu            sync.Mutex
	notifications []model.Notification
}

var _ Notifier = (*Recorder)(nil)

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish records n
func (r *Recorder) Publish(n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notifications)
}

// Kinds returns the kinds of the recorded notifications in order
func (r *Recorder) Kinds() []model.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]model.NotificationKind, len(r.notifications))
	for i, n := range r.notifications {
		kinds[i] = n.Kind
	}
	return kinds
}

// OfKind returns the recorded notifications with the given kind
func (r *Recorder) OfKind(kind model.NotificationKind) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.notifications {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Reset discards recorded notifications
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}
