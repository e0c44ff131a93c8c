// Package notify turns engine status changes into desktop notifications.
package notify

import (
	"io"
	"log/slog"

	"github.com/christopherklint97/redlog/internal/delivery"
	"github.com/gen2brain/beeep"
)

const appName = "redlog"

// SendNotification shows a desktop notification.
func SendNotification(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier raises a notification for statuses the user should see even
// when the terminal is not in front: rejections, entries going to the
// offline queue and the queue being flushed.
type Notifier struct {
	send   func(title, message string) error
	logger *slog.Logger
}

func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{send: SendNotification, logger: logger}
}

// Watch subscribes to the engine's status. The returned func unsubscribes.
func (n *Notifier) Watch(engine *delivery.Engine) func() {
	first := true
	return engine.Status().Subscribe(func(s delivery.Status) {
		// Subscribe replays the current value; only react to changes.
		if first {
			first = false
			return
		}
		n.handle(s)
	})
}

func (n *Notifier) handle(s delivery.Status) {
	switch s.Kind {
	case delivery.StatusRejected, delivery.StatusQueued, delivery.StatusCleared, delivery.StatusFailed:
	default:
		return
	}
	if err := n.send(appName, s.Message); err != nil {
		n.logger.Debug("desktop notification failed", "error", err)
	}
}
