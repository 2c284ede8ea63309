// Package notify delivers prediction reports to users and downstream systems.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/commute-weather/internal/commute"
	"github.com/i474232898/commute-weather/internal/observability"
)

// Kind classifies a notification.
type Kind string

const (
	KindReport  Kind = "report"
	KindFailure Kind = "failure"
	KindTest    Kind = "test"
)

// Message is one notification. Prediction is nil for failures.
type Message struct {
	Kind       Kind                `json:"kind"`
	Text       string              `json:"text"`
	Prediction *commute.Prediction `json:"prediction,omitempty"`
	SentAt     time.Time           `json:"sentAt"`
}

// Notifier delivers messages to one sink.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	attrs := []any{"kind", msg.Kind, "text", msg.Text}
	if msg.Prediction != nil {
		attrs = append(attrs, "period", msg.Prediction.Period, "score", msg.Prediction.Comfort.Score)
	}
	if msg.Kind == KindFailure {
		n.logger.Warn("notification", attrs...)
		return nil
	}
	n.logger.Info("notification", attrs...)
	return nil
}

// WriterNotifier prints the message text, one message per block.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "%s\n\n", msg.Text)
	return err
}

// Sink is a named notifier, the name is used as metric label.
type Sink struct {
	Name     string
	Notifier Notifier
}

// Multi fans a message out to every sink. A failing sink does not stop the others.
type Multi struct {
	sinks   []Sink
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewMulti(logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, metrics: metrics, logger: logger}
}

// Notify delivers msg to all sinks and joins their errors.
func (m *Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Notifier.Notify(ctx, msg); err != nil {
			m.metrics.Notifications.WithLabelValues(s.Name, "error").Inc()
			m.logger.Error("notification failed", "sink", s.Name, "kind", msg.Kind, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		m.metrics.Notifications.WithLabelValues(s.Name, "success").Inc()
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds a connection.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.Notifier.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
