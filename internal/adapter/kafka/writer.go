package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/config"
	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// ReportEvent is the payload written to the report stream for every built
// safety report.
type ReportEvent struct {
	ID     string              `json:"id"`
	Query  string              `json:"query"`
	Report domain.SafetyReport `json:"report"`
}

// messageWriter is the subset of *kafkago.Writer used by ReportWriter.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ReportWriter produces safety reports to a Kafka topic.
// It implements safety.ReportSink.
type ReportWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewReportWriter creates a Kafka producer for the configured reports topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &ReportWriter{writer: w, logger: logger}
}

// PublishReport serializes a report and writes it synchronously. Reports for
// the same location share a partition.
func (w *ReportWriter) PublishReport(ctx context.Context, query string, report domain.SafetyReport) error {
	msg, err := serializeToMessage(uuid.NewString(), query, report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return &domain.UpstreamError{Provider: "kafka", Err: fmt.Errorf("write report: %w", err)}
	}
	w.logger.Debug("report published", "location", report.Location.Label(), "key", string(msg.Key))
	return nil
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a report into a Kafka message keyed by location label.
func serializeToMessage(id, query string, report domain.SafetyReport) (kafkago.Message, error) {
	data, err := json.Marshal(ReportEvent{ID: id, Query: query, Report: report})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize safety report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Location.Label()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "report_id", Value: []byte(id)},
			{Key: "alert_count", Value: []byte(strconv.Itoa(report.AlertCount))},
			{Key: "risk_level", Value: []byte(report.Crime.RiskLevel)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
