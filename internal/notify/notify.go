// Package notify announces generated reports to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/config"
)

// EventReportGenerated is the only event type published today.
const EventReportGenerated = "report.generated"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Event is the message body written for each generated report.
type Event struct {
	Type         string    `json:"type"`
	ReportID     string    `json:"reportId"`
	AssessmentID string    `json:"assessmentId,omitempty"`
	Organization string    `json:"organization"`
	Industry     string    `json:"industry"`
	ReportType   string    `json:"reportType"`
	Percentage   float64   `json:"percentage"`
	Grade        string    `json:"grade"`
	CriticalGaps int       `json:"criticalGaps"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// ReportGenerated builds the event for a stored report.
func ReportGenerated(reportID, assessmentID string, r *analysis.Report, now time.Time) Event {
	return Event{
		Type:         EventReportGenerated,
		ReportID:     reportID,
		AssessmentID: assessmentID,
		Organization: r.Organization.Name,
		Industry:     r.Industry,
		ReportType:   r.ReportType,
		Percentage:   r.OverallScore.Percentage,
		Grade:        r.OverallScore.Grade,
		CriticalGaps: r.PriorityCount(analysis.PriorityCritical),
		OccurredAt:   now,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Breaker settings for the Kafka writer.
const (
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// KafkaPublisher writes events to a Kafka topic behind a circuit breaker,
// so an unavailable broker fails fast instead of stalling report requests.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewKafkaPublisher creates a publisher for cfg.Topic on cfg.Brokers.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireAll,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &KafkaPublisher{writer: w, logger: logger}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-publisher",
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return p
}

// Publish writes ev keyed by report ID.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.ReportID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
		Time: ev.OccurredAt,
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("type", ev.Type),
			zap.String("report_id", ev.ReportID),
			zap.Error(err))
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
