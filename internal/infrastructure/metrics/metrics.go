package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Jobs
	JobsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "testbrain_jobs_created_total",
			Help: "Total number of generation jobs created",
		},
	)
	JobStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testbrain_job_status_changes_total",
			Help: "Number of job status transitions",
		},
		[]string{"from", "to"},
	)
	ActiveJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "testbrain_jobs_active",
			Help: "Current number of pending or running jobs",
		},
	)

	// Batch generation
	BatchUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testbrain_batch_units_total",
			Help: "Work units finished by outcome",
		},
		[]string{"outcome"}, // ok|llm_error|parse_error|timeout|cancelled
	)
	GeneratedRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "testbrain_generated_records_total",
			Help: "Test case records merged into documents",
		},
	)
	BatchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "testbrain_batch_duration_seconds",
			Help:    "Histogram of batch generation durations in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s..512s
		},
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testbrain_llm_requests_total",
			Help: "Number of LLM requests by provider and model",
		},
		[]string{"provider", "model"},
	)
	LLMDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "testbrain_llm_duration_seconds",
			Help:    "Duration of LLM completion calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"provider"},
	)
	Embeddings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testbrain_embeddings_total",
			Help: "Embedding requests by engine",
		},
		[]string{"engine"},
	)

	// Validation
	ValidationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testbrain_validation_runs_total",
			Help: "Number of API document validation runs by result",
		},
		[]string{"result"}, // pass|fail
	)
	ValidationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "testbrain_validation_duration_seconds",
			Help:    "Duration of API document validation",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DB / file storage ops
	DBOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testbrain_db_ops_total",
			Help: "Storage operations performed",
		},
		[]string{"store", "op"},
	)

	// Websockets
	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "testbrain_ws_connections",
			Help: "Current number of open websocket connections",
		},
	)

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testbrain_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testbrain_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		// Jobs
		JobsCreated,
		JobStatusChanges,
		ActiveJobs,
		// Batch
		BatchUnits,
		GeneratedRecords,
		BatchDurationSeconds,
		// LLM
		LLMRequests,
		LLMDurationSeconds,
		Embeddings,
		// Validation
		ValidationRuns,
		ValidationDurationSeconds,
		// DB
		DBOps,
		// WS
		WebsocketConnections,
		// HTTP
		HTTPRequests,
		// Errors
		Errors,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer serves /metrics on addr until ctx is cancelled.
func StartMetricsServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Jobs
func IncJobsCreated() {
	JobsCreated.Inc()
}

func IncJobStatusChange(from, to string) {
	JobStatusChanges.WithLabelValues(from, to).Inc()
}

func SetActiveJobs(n int) {
	ActiveJobs.Set(float64(n))
}

// Batch
func IncBatchUnit(outcome string) {
	BatchUnits.WithLabelValues(outcome).Inc()
}

func AddGeneratedRecords(n int) {
	GeneratedRecords.Add(float64(n))
}

func ObserveBatchDuration(d time.Duration) {
	BatchDurationSeconds.Observe(d.Seconds())
}

// LLM
func IncLLMRequest(provider, model string) {
	LLMRequests.WithLabelValues(provider, model).Inc()
}

func ObserveLLMDuration(provider string, d time.Duration) {
	LLMDurationSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

func IncEmbedding(engine string) {
	Embeddings.WithLabelValues(engine).Inc()
}

// Validation
func IncValidationRun(result string) {
	ValidationRuns.WithLabelValues(result).Inc()
}

func ObserveValidationDuration(d time.Duration) {
	ValidationDurationSeconds.Observe(d.Seconds())
}

// DB / file ops
func IncDBOp(store, op string) {
	DBOps.WithLabelValues(store, op).Inc()
}

// Websocket
func IncWSConnections() {
	WebsocketConnections.Inc()
}

func DecWSConnections() {
	WebsocketConnections.Dec()
}

// HTTP
func IncHTTPRequest(route string, code int) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
