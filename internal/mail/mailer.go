package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/spec-kit/ticket-sla-service/internal/observability"
)

// Outcome classifies a delivery attempt. Queued and Sent both mean
// "delivery accepted"; neither is a confirmation of receipt.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeQueued
	OutcomeNotConfigured
	OutcomeFailed
)

// Accepted reports whether the caller may treat the message as handed
// off to the email channel.
func (o Outcome) Accepted() bool {
	return o == OutcomeSent || o == OutcomeQueued
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeQueued:
		return "queued"
	case OutcomeNotConfigured:
		return "not_configured"
	default:
		return "failed"
	}
}

// EmailMessage is one rendered email ready for transport.
type EmailMessage struct {
	To           string
	ToName       string
	Subject      string
	HTML         string
	TemplateSlug string
}

type sendJob struct {
	settings Settings
	message  EmailMessage
}

// Mailer delivers templated email over SMTP. The transport is dialed
// per send from the settings snapshot the caller provides. Transport
// errors are logged and reported as an Outcome, never returned.
type Mailer struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	async   bool
	queue   chan sendJob

	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// dial is swappable for tests.
	dial func(settings Settings, message EmailMessage) error
}

// NewMailer constructs the adapter. When async is true, Start must be
// called to drain the queue and Stop must run before process exit, or
// queued sends are lost.
func NewMailer(logger *zap.Logger, metrics *observability.Metrics, async bool, queueSize int) *Mailer {
	if queueSize <= 0 {
		queueSize = 64
	}
	m := &Mailer{
		logger:  logger,
		metrics: metrics,
		async:   async,
		queue:   make(chan sendJob, queueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	m.dial = m.dialAndSend
	return m
}

// Start runs the async worker until Stop is called or ctx is
// cancelled. Sends already queued are drained before the worker exits.
func (m *Mailer) Start(ctx context.Context) {
	m.started = true
	go func() {
		defer close(m.done)
		for {
			select {
			case job := <-m.queue:
				m.deliver(job.settings, job.message)
			case <-ctx.Done():
				m.drainQueue()
				return
			case <-m.stop:
				m.drainQueue()
				return
			}
		}
	}()
}

// Stop tells the worker to drain remaining queued sends and blocks
// until the last delivery attempt finishes. No-op when Start was never
// called. Callers must not Send after Stop.
func (m *Mailer) Stop() {
	if !m.started {
		return
	}
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

func (m *Mailer) drainQueue() {
	for {
		select {
		case job := <-m.queue:
			m.deliver(job.settings, job.message)
		default:
			return
		}
	}
}

// Send delivers or enqueues one message using the given settings
// snapshot. An unconfigured snapshot is refused up front.
func (m *Mailer) Send(ctx context.Context, settings Settings, message EmailMessage) Outcome {
	if !settings.Configured() {
		m.logger.Warn("email transport not configured",
			zap.String("to", message.To),
			zap.String("template", message.TemplateSlug))
		return OutcomeNotConfigured
	}

	if m.async {
		select {
		case m.queue <- sendJob{settings: settings, message: message}:
			return OutcomeQueued
		default:
			// Queue saturated; fall through to a synchronous send rather
			// than dropping the message.
			m.logger.Warn("email queue saturated, sending synchronously",
				zap.String("to", message.To),
				zap.String("template", message.TemplateSlug))
		}
	}

	if m.deliver(settings, message) {
		return OutcomeSent
	}
	return OutcomeFailed
}

func (m *Mailer) deliver(settings Settings, message EmailMessage) bool {
	if err := m.dial(settings, message); err != nil {
		m.logger.Error("email send failed",
			zap.String("to", message.To),
			zap.String("template", message.TemplateSlug),
			zap.Error(err))
		m.metrics.Add(observability.CounterEmailsFailed, 1)
		return false
	}
	m.metrics.Add(observability.CounterEmailsSent, 1)
	return true
}

func (m *Mailer) dialAndSend(settings Settings, message EmailMessage) error {
	msg := gomail.NewMessage()
	from := settings.FromAddress
	if settings.FromName != "" {
		from = msg.FormatAddress(settings.FromAddress, settings.FromName)
	}
	msg.SetHeader("From", from)
	to := message.To
	if message.ToName != "" {
		to = msg.FormatAddress(message.To, message.ToName)
	}
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", message.Subject)
	msg.SetBody("text/html", message.HTML)

	dialer := gomail.NewDialer(settings.Host, settings.Port, settings.Username, settings.Password)
	if settings.Encryption == "ssl" {
		dialer.SSL = true
	}
	return dialer.DialAndSend(msg)
}
