package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "britcoin"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"

	// Mine attempt outcomes
	OutcomeMined   = "mined"
	OutcomeNoProof = "no_proof"
	OutcomeError   = "error"

	// Store operations
	OpLoadAll = "load_all"
	OpAppend  = "append"

	Store    = "store"
	Consumer = "consumer"
)

// Error types for errors_total.
const (
	ErrTypePersistence = "persistence"
	ErrTypeAnnounce    = "announce"
	ErrTypeEmptyChain  = "empty_chain"
	ErrTypeAudit       = "audit"
)

// Labels holds constant labels applied to all metrics. They distinguish
// ledger nodes that share a Prometheus.
type Labels struct {
	Node          string // Node name (e.g., "britcoin-0")
	Environment   string // Deployment environment (e.g., "production", "staging", "development")
	Region        string // Cloud region (e.g., "us-east-1", "eu-west-1")
	CloudProvider string // Cloud provider (e.g., "aws", "oci", "gcp")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Node != "" {
		labels["node"] = l.Node
	}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	if l.Region != "" {
		labels["region"] = l.Region
	}
	if l.CloudProvider != "" {
		labels["cloud_provider"] = l.CloudProvider
	}
	return labels
}

// Metrics is safe to use through a nil pointer, in which case every method
// is a no-op.
type Metrics struct {
	// Chain state
	chainHeight     prometheus.Gauge
	persistedHeight prometheus.Gauge
	pending         prometheus.Gauge

	// Mining
	mineAttempts *prometheus.CounterVec
	mineDuration prometheus.Histogram

	// Store calls
	storeCalls    *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec

	// Announcements
	announcements *prometheus.CounterVec

	// Mine request consumer
	messagesProcessed         *prometheus.CounterVec
	messageProcessingDuration prometheus.Histogram

	errors *prometheus.CounterVec
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}
	return newMetrics(reg)
}

// Buckets cover 1ms to 10s: a store insert to a slow ClickHouse merge.
var latencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		chainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "chain_height",
			Help:      "Number of blocks in the chain, genesis included",
		}),
		persistedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "persisted_height",
			Help:      "Number of blocks in the ledger store at the last audit",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pending_transactions",
			Help:      "Transactions waiting for the next mined block",
		}),
		mineAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "mine_attempts_total",
			Help:      "Mining attempts by outcome",
		}, []string{"outcome"}),
		mineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "mine_duration_seconds",
			Help:      "Time for one mining attempt including persistence",
			Buckets:   latencyBuckets,
		}),
		storeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Store,
			Name:      "calls_total",
			Help:      "Ledger store calls by operation and status",
		}, []string{"op", "status"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Store,
			Name:      "duration_seconds",
			Help:      "Ledger store call duration in seconds",
			Buckets:   latencyBuckets,
		}, []string{"op"}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "announcements_total",
			Help:      "Mined block announcements by status",
		}, []string{"status"}),
		messagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Consumer,
			Name:      "messages_processed_total",
			Help:      "Mine request messages handled by status",
		}, []string{"status"}),
		messageProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Consumer,
			Name:      "message_processing_duration_seconds",
			Help:      "Time to handle one mine request message, commit included",
			Buckets:   latencyBuckets,
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total errors by type",
		}, []string{"type"}),
	}

	err := errors.Join(
		reg.Register(m.chainHeight),
		reg.Register(m.persistedHeight),
		reg.Register(m.pending),
		reg.Register(m.mineAttempts),
		reg.Register(m.mineDuration),
		reg.Register(m.storeCalls),
		reg.Register(m.storeDuration),
		reg.Register(m.announcements),
		reg.Register(m.messagesProcessed),
		reg.Register(m.messageProcessingDuration),
		reg.Register(m.errors),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateChainMetrics sets the chain height and pending queue gauges.
func (m *Metrics) UpdateChainMetrics(height, pending int) {
	if m == nil {
		return
	}
	m.chainHeight.Set(float64(height))
	m.pending.Set(float64(pending))
}

// SetPersistedHeight records the block count found by the last audit.
func (m *Metrics) SetPersistedHeight(height int) {
	if m == nil {
		return
	}
	m.persistedHeight.Set(float64(height))
}

// RecordMineAttempt records one mining attempt and its duration.
func (m *Metrics) RecordMineAttempt(outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.mineAttempts.WithLabelValues(outcome).Inc()
	m.mineDuration.Observe(durationSeconds)
}

// RecordStoreCall records a ledger store call outcome.
func (m *Metrics) RecordStoreCall(op string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.storeCalls.WithLabelValues(op, status).Inc()
	m.storeDuration.WithLabelValues(op).Observe(durationSeconds)
}

// RecordAnnouncement records the outcome of publishing a mined block.
func (m *Metrics) RecordAnnouncement(err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
		m.errors.WithLabelValues(ErrTypeAnnounce).Inc()
	}
	m.announcements.WithLabelValues(status).Inc()
}

// ObserveMessage records one handled mine request message.
func (m *Metrics) ObserveMessage(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.messagesProcessed.WithLabelValues(status).Inc()
	m.messageProcessingDuration.Observe(duration.Seconds())
}

// IncError increments the error counter for the given error type.
func (m *Metrics) IncError(errType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errType).Inc()
}
