package observability

import "sync"

// Metrics provides basic in-memory counters for sweep and dispatch
// outcomes alongside HTTP error accounting.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

// Counter names recorded by the sweeps and the notification dispatcher.
const (
	CounterTicketsClosed       = "tickets_closed"
	CounterTicketsEscalated    = "tickets_escalated"
	CounterPushSent            = "push_sent"
	CounterPushFailed          = "push_failed"
	CounterPushTokensPruned    = "push_tokens_pruned"
	CounterEmailsSent          = "emails_sent"
	CounterEmailsFailed        = "emails_failed"
	CounterNotificationsSaved  = "notifications_saved"
	CounterNotificationsFailed = "notifications_failed"
)

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]int64)}
}

// Add increments a named counter by delta.
func (m *Metrics) Add(name string, delta int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
}

// RecordError increments the error counter for an HTTP route and code.
func (m *Metrics) RecordError(path, method, code string) {
	m.Add("http_error|"+path+"|"+method+"|"+code, 1)
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}
