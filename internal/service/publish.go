package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/events"
)

// notifier publishes change events after successful writes. A failed publish never
// fails the write; it is logged.
type notifier struct {
	pub events.Publisher
	log *zap.Logger
}

func newNotifier(pub events.Publisher, log *zap.Logger) notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return notifier{pub: pub, log: log}
}

func (n notifier) publish(ctx context.Context, ev events.Event) {
	if n.pub == nil {
		return
	}
	// the write already happened; a canceled caller must not suppress the event
	if err := n.pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		n.log.Warn("publish event failed",
			zap.String("collection", ev.Collection),
			zap.String("action", string(ev.Action)),
			zap.Error(err))
	}
}
