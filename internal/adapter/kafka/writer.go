package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/config"
	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes port reports to a Kafka topic.
// It implements pipeline.ReportSink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish sends one message per successful port in run, in a single
// WriteMessages call. Ports that failed are skipped.
func (w *Writer) Publish(ctx context.Context, run domain.MonitoringRun) error {
	msgs := make([]kafkago.Message, 0, len(run.Ports))
	for _, o := range run.Ports {
		if o.Report == nil {
			continue
		}
		msg, err := serializeToMessage(run.ID, *o.Report)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish run %s: %w", run.ID, err)
	}
	w.logger.Debug("reports published", "run_id", run.ID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PortReport into a Kafka message keyed by port.
func serializeToMessage(runID string, report domain.PortReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report for %s: %w", report.Port, err)
	}
	return kafkago.Message{
		Key:   []byte(report.Port),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "port", Value: []byte(report.Port)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "generated_at", Value: []byte(report.Timestamp.UTC().Format(time.RFC3339))},
			{Key: "potential_congestion", Value: []byte(strconv.FormatBool(report.CapacityAnalysis.PotentialCongestion))},
		},
	}, nil
}
