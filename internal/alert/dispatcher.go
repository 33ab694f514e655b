package alert

import (
	"context"
	"log/slog"

	"github.com/skycast-app/skycast/internal/observability"
)

// Notifier delivers a notification to one sink.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher fans notifications out to its registered sinks. A failing sink
// is logged and skipped; it never blocks delivery to the others.
type Dispatcher struct {
	sinks   []registeredSink
	metrics *observability.Metrics
	logger  *slog.Logger
}

type registeredSink struct {
	name     string
	notifier Notifier
}

// NewDispatcher creates a Dispatcher with no sinks.
func NewDispatcher(metrics *observability.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{metrics: metrics, logger: logger}
}

// Register adds a named sink. Not safe for concurrent use with Dispatch;
// register all sinks during wiring.
func (d *Dispatcher) Register(name string, n Notifier) {
	d.sinks = append(d.sinks, registeredSink{name: name, notifier: n})
}

// Dispatch delivers every notification to every sink.
func (d *Dispatcher) Dispatch(ctx context.Context, notifications []Notification) {
	for _, n := range notifications {
		for _, s := range d.sinks {
			if err := s.notifier.Notify(ctx, n); err != nil {
				d.logger.Error("notification delivery failed",
					"sink", s.name, "tag", n.Tag, "error", err)
				continue
			}
			d.metrics.NotificationsSent.WithLabelValues(s.name).Inc()
		}
	}
}

// LogNotifier writes notifications to the structured log. It is the default
// sink when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed sink.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("weather alert",
		"title", n.Title,
		"body", n.Body,
		"tag", n.Tag,
		"require_interaction", n.RequireInteraction,
	)
	return nil
}
