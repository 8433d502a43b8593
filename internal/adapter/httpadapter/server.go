package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunReader exposes the monitor state served by the read API.
type RunReader interface {
	sharedobs.ReadinessChecker
	Ports() []string
	Latest() (domain.MonitoringRun, bool)
}

// Server exposes health, readiness, metrics and the read API over the latest
// monitoring run.
type Server struct {
	httpServer *http.Server
	monitor    RunReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /api routes.
func NewServer(addr string, monitor RunReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		monitor: monitor,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(monitor))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/ports", s.handlePorts)
	mux.HandleFunc("GET /api/ports/{port}", s.handlePort)
	mux.HandleFunc("GET /api/runs/latest", s.handleLatestRun)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type portStatus struct {
	Port                string `json:"port"`
	Status              string `json:"status"`
	Source              string `json:"source,omitempty"`
	Vessels             int    `json:"vessels"`
	PotentialCongestion bool   `json:"potential_congestion"`
	Error               string `json:"error,omitempty"`
}

type portsResponse struct {
	RunID      string       `json:"run_id,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Ports      []portStatus `json:"ports"`
}

const (
	statusPending = "pending"
	statusOK      = "ok"
	statusError   = "error"
)

func (s *Server) handlePorts(w http.ResponseWriter, _ *http.Request) {
	run, ok := s.monitor.Latest()

	var resp portsResponse
	if ok {
		resp.RunID = run.ID
		resp.FinishedAt = &run.FinishedAt
	}
	for _, port := range s.monitor.Ports() {
		st := portStatus{Port: port, Status: statusPending}
		if outcome, found := run.Outcome(port); found {
			st = summarize(outcome)
		}
		resp.Ports = append(resp.Ports, st)
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func summarize(o domain.PortOutcome) portStatus {
	if o.Report == nil {
		return portStatus{Port: o.Port, Status: statusError, Error: o.Error}
	}
	return portStatus{
		Port:                o.Port,
		Status:              statusOK,
		Source:              o.Report.Source,
		Vessels:             len(o.Report.Vessels),
		PotentialCongestion: o.Report.CapacityAnalysis.PotentialCongestion,
	}
}

func (s *Server) handlePort(w http.ResponseWriter, r *http.Request) {
	port := r.PathValue("port")
	if !slices.ContainsFunc(s.monitor.Ports(), func(p string) bool { return strings.EqualFold(p, port) }) {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown port: " + port})
		return
	}

	run, ok := s.monitor.Latest()
	if !ok {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errNoRun})
		return
	}
	outcome, found := run.Outcome(port)
	if !found {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errNoRun})
		return
	}
	if outcome.Report == nil {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, outcome)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, outcome.Report)
}

const errNoRun = "no monitoring run has completed yet"

func (s *Server) handleLatestRun(w http.ResponseWriter, _ *http.Request) {
	run, ok := s.monitor.Latest()
	if !ok {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errNoRun})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, run)
}
