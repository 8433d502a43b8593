package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/couchcryptid/port-traffic-monitor/internal/observability"
	"github.com/couchcryptid/port-traffic-monitor/internal/resilience"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// VesselSource returns the vessels around a port. It never fails; an empty
// list is a valid answer.
type VesselSource interface {
	GetVessels(ctx context.Context, port string, radiusKm int) resilience.Result
}

// ReportSink receives every completed monitoring run.
type ReportSink interface {
	Publish(ctx context.Context, run domain.MonitoringRun) error
}

// Options are the per-run analysis parameters.
type Options struct {
	Ports                   []string
	RadiusKm                int
	MaxBerths               int
	PriorityHours           float64
	ArrivalWindowHours      int
	SeriesProjections       bool
	ProjectionHorizonHours  int
	ProjectionIntervalHours int
	Concurrency             int
	Interval                time.Duration
}

// Validate rejects parameters the analyses cannot work with.
func (o Options) Validate() error {
	var errs []error
	if len(o.Ports) == 0 {
		errs = append(errs, errors.New("at least one target port is required"))
	}
	if o.RadiusKm <= 0 {
		errs = append(errs, fmt.Errorf("radius must be positive, got %d", o.RadiusKm))
	}
	if o.MaxBerths <= 0 {
		errs = append(errs, fmt.Errorf("max berths must be positive, got %d", o.MaxBerths))
	}
	if o.PriorityHours < 0 {
		errs = append(errs, fmt.Errorf("priority hours must not be negative, got %g", o.PriorityHours))
	}
	if o.ArrivalWindowHours <= 0 {
		errs = append(errs, fmt.Errorf("arrival window hours must be positive, got %d", o.ArrivalWindowHours))
	}
	if o.SeriesProjections && (o.ProjectionHorizonHours <= 0 || o.ProjectionIntervalHours <= 0) {
		errs = append(errs, fmt.Errorf("projection horizon and interval must be positive, got %d and %d",
			o.ProjectionHorizonHours, o.ProjectionIntervalHours))
	}
	if o.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", o.Concurrency))
	}
	if o.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", o.Interval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidParameters, errors.Join(errs...))
	}
	return nil
}

// Monitor runs the fetch-analyze-report cycle for every target port.
type Monitor struct {
	source  VesselSource
	sink    ReportSink
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	latest  atomic.Pointer[domain.MonitoringRun]
}

// New creates a Monitor. sink may be nil.
func New(source VesselSource, sink ReportSink, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Monitor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Ports = slices.Clone(opts.Ports)
	return &Monitor{
		source:  source,
		sink:    sink,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Ports returns the monitored ports in configuration order.
func (m *Monitor) Ports() []string {
	return slices.Clone(m.opts.Ports)
}

// Latest returns the most recent completed run.
func (m *Monitor) Latest() (domain.MonitoringRun, bool) {
	run := m.latest.Load()
	if run == nil {
		return domain.MonitoringRun{}, false
	}
	return *run, true
}

// CheckReadiness returns nil once a monitoring run has completed,
// or an error describing why the service is not yet ready.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("no monitoring run has completed yet")
	}
	return nil
}

// Run monitors all ports immediately, then once per interval until ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started",
		"ports", strings.Join(m.opts.Ports, ","),
		"interval", m.opts.Interval.String(),
		"concurrency", m.opts.Concurrency,
	)
	m.metrics.MonitorRunning.Set(1)
	defer m.metrics.MonitorRunning.Set(0)

	for {
		if ctx.Err() != nil {
			m.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		}
		m.MonitorAll(ctx)
		if !retry.SleepWithContext(ctx, m.opts.Interval) {
			m.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// MonitorAll analyzes every target port once, with at most Concurrency ports
// in flight. A port that fails, or that had not started when ctx was
// cancelled, gets an error outcome; the others still report.
func (m *Monitor) MonitorAll(ctx context.Context) domain.MonitoringRun {
	start := time.Now()
	run := domain.MonitoringRun{
		ID:        uuid.NewString(),
		StartedAt: domain.Now(),
		Ports:     make([]domain.PortOutcome, len(m.opts.Ports)),
	}

	var g errgroup.Group
	g.SetLimit(m.opts.Concurrency)
	for i, port := range m.opts.Ports {
		g.Go(func() error {
			run.Ports[i] = m.monitorSlot(ctx, port)
			return nil
		})
	}
	_ = g.Wait() // slots never return errors

	run.FinishedAt = domain.Now()
	m.metrics.RunDuration.Observe(time.Since(start).Seconds())
	m.latest.Store(&run)
	m.ready.Store(true)

	failed := 0
	for _, o := range run.Ports {
		if o.Report == nil {
			failed++
		}
	}
	m.logger.Info("monitoring run completed",
		"run_id", run.ID,
		"ports", len(run.Ports),
		"failed", failed,
		"duration", time.Since(start).String(),
	)

	m.publish(ctx, run, len(run.Ports)-failed)
	return run
}

func (m *Monitor) monitorSlot(ctx context.Context, port string) (outcome domain.PortOutcome) {
	outcome.Port = port
	if err := ctx.Err(); err != nil {
		outcome.Error = fmt.Sprintf("not started: %v", err)
		m.metrics.PortsMonitored.WithLabelValues("cancelled").Inc()
		return outcome
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("port pipeline panicked", "port", port, "panic", r)
			outcome.Report = nil
			outcome.Error = fmt.Sprintf("unexpected failure: %v", r)
			m.metrics.PortsMonitored.WithLabelValues("error").Inc()
		}
	}()

	report, err := m.MonitorPort(ctx, port)
	if err != nil {
		m.logger.Error("port pipeline failed", "port", port, "error", err)
		outcome.Error = err.Error()
		m.metrics.PortsMonitored.WithLabelValues("error").Inc()
		return outcome
	}
	outcome.Report = &report
	m.metrics.PortsMonitored.WithLabelValues("success").Inc()
	return outcome
}

// MonitorPort fetches vessels for one port and runs every analysis on them.
func (m *Monitor) MonitorPort(ctx context.Context, port string) (domain.PortReport, error) {
	res := m.source.GetVessels(ctx, port, m.opts.RadiusKm)
	now := domain.Now()

	predictions := domain.PredictBulk(res.Vessels, now)
	windows, err := domain.ArrivalWindows(predictions, m.opts.ArrivalWindowHours)
	if err != nil {
		return domain.PortReport{}, fmt.Errorf("arrival windows for %s: %w", port, err)
	}
	capacity, err := domain.AnalyzePortCapacity(res.Vessels, m.opts.MaxBerths, now)
	if err != nil {
		return domain.PortReport{}, fmt.Errorf("capacity for %s: %w", port, err)
	}

	report := domain.PortReport{
		Port:             port,
		Timestamp:        now,
		Source:           string(res.Source),
		Vessels:          res.Vessels,
		Predictions:      predictions,
		ArrivalWindows:   windows,
		PriorityArrivals: domain.PriorityArrivals(predictions, m.opts.PriorityHours),
		ClusterSummary:   domain.SummarizeClusters(res.Vessels, now),
		CapacityAnalysis: capacity,
		Statistics:       domain.ComputeStatistics(res.Vessels, port, m.opts.RadiusKm, now),
	}

	if m.opts.SeriesProjections {
		projection, err := domain.ProjectArrivals(predictions, m.opts.ProjectionHorizonHours, m.opts.ProjectionIntervalHours, now)
		if err != nil {
			return domain.PortReport{}, fmt.Errorf("projection for %s: %w", port, err)
		}
		report.SeriesProjection = &projection
	}

	m.metrics.VesselsPerPort.WithLabelValues(port).Set(float64(len(res.Vessels)))
	congested := 0.0
	if capacity.PotentialCongestion {
		congested = 1
	}
	m.metrics.PortCongestion.WithLabelValues(port).Set(congested)

	m.logger.Debug("port analyzed",
		"port", port,
		"source", res.Source,
		"provider", res.Provider,
		"vessels", len(res.Vessels),
		"priority", len(report.PriorityArrivals),
		"congestion", capacity.PotentialCongestion,
	)
	return report, nil
}

func (m *Monitor) publish(ctx context.Context, run domain.MonitoringRun, reports int) {
	if m.sink == nil || reports == 0 {
		return
	}
	// Publishing happens after the run even when ctx was cancelled mid-run.
	if err := m.sink.Publish(context.WithoutCancel(ctx), run); err != nil {
		m.logger.Error("publish monitoring run failed", "run_id", run.ID, "error", err)
		m.metrics.PublishErrors.Inc()
		return
	}
	m.metrics.ReportsPublished.Add(float64(reports))
}
