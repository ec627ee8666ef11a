package eventbus

import (
	"context"

	"github.com/annel0/tome/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог шины.
// Функция неблокирующая.
func StartLoggingListener(ctx context.Context, bus EventBus) (Subscription, error) {
	logger := logging.GetComponentLogger("eventbus")

	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Trace("%s %s src=%s prio=%d coord=%s size=%dB",
			ev.ID, ev.EventType, ev.Source, ev.Priority, ev.Metadata["coord"], len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("LoggingListener: подписка на все события активирована")
	return sub, nil
}
