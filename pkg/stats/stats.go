package stats

import (
	"bufio"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forge"

// FundingStats collects the outcome of balance reconciliations and the RPC
// retries they needed.
type FundingStats struct {
	operations *prometheus.CounterVec
	funded     *prometheus.CounterVec
	retries    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewFundingStats registers the funding collectors with reg. A nil reg
// leaves them unregistered, which is handy in tests.
func NewFundingStats(reg prometheus.Registerer) *FundingStats {
	s := &FundingStats{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "funding_operations_total",
			Help:      "Set balance requests by chain and outcome.",
		}, []string{"chain", "outcome"}),
		funded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "funded_base_units_total",
			Help:      "Base units credited to accounts by chain.",
		}, []string{"chain"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_retries_total",
			Help:      "Retried daemon calls by chain and reason.",
		}, []string{"chain", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "funding_duration_seconds",
			Help:      "Duration of set balance requests.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"chain"}),
	}
	if reg != nil {
		reg.MustRegister(s.operations, s.funded, s.retries, s.duration)
	}
	return s
}

// ObserveFunding records one set balance request.
func (s *FundingStats) ObserveFunding(
	chain, outcome string, delta uint64, elapsed time.Duration,
) {
	if s == nil {
		return
	}
	s.operations.WithLabelValues(chain, outcome).Inc()
	if delta > 0 {
		s.funded.WithLabelValues(chain).Add(float64(delta))
	}
	s.duration.WithLabelValues(chain).Observe(elapsed.Seconds())
}

// ObserveRetry records one retried daemon call.
func (s *FundingStats) ObserveRetry(chain, reason string) {
	if s == nil {
		return
	}
	s.retries.WithLabelValues(chain, reason).Inc()
}

// DumpMetrics appends every metric family gathered by g to the file at path.
func DumpMetrics(g prometheus.Gatherer, path string) error {
	file, err := os.OpenFile(
		path,
		os.O_APPEND|os.O_CREATE|os.O_RDWR,
		0644,
	)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	metricFamily, err := g.Gather()
	if err != nil {
		return err
	}
	for _, v := range metricFamily {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}

	return writer.Flush()
}
