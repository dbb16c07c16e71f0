package worker

import (
	"github.com/spec-kit/ticket-sla-service/internal/events"
	"github.com/spec-kit/ticket-sla-service/internal/notify"
)

// StartRealtimeWorker subscribes the real-time publisher to sweep
// lifecycle events.
func StartRealtimeWorker(publisher *notify.RealtimePublisher, dispatcher events.Dispatcher) {
	if publisher == nil {
		return
	}
	publisher.RegisterHandlers(dispatcher)
}
