// Package metrics records memory activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "hopfield"

// Recorder implements hopfield.Observer.
type Recorder struct {
	registry      *prometheus.Registry
	learned       prometheus.Counter
	learnDuration prometheus.Histogram
	overlap       prometheus.Histogram
	patterns      prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		learned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patterns_learned_total",
			Help:      "Number of patterns learned by this process.",
		}),
		learnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "learn_duration_seconds",
			Help:      "Time spent updating the coupling matrix per learned pattern.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		overlap: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overlap",
			Help:      "Overlap values returned by overlap queries.",
			Buckets:   prometheus.LinearBuckets(-1, 0.25, 9),
		}),
		patterns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "patterns",
			Help:      "Number of patterns currently stored in the memory.",
		}),
	}
	r.registry.MustRegister(r.learned, r.learnDuration, r.overlap, r.patterns)
	return r
}

// ObserveLearn records one learn call.
func (r *Recorder) ObserveLearn(patterns int, d time.Duration) {
	r.learned.Inc()
	r.learnDuration.Observe(d.Seconds())
	r.patterns.Set(float64(patterns))
}

// ObserveOverlap records one overlap query.
func (r *Recorder) ObserveOverlap(v float64) {
	r.overlap.Observe(v)
}

// Row is one line of a metrics summary.
type Row struct {
	Name  string
	Value string
}

// Summary gathers the registry into name/value rows sorted by name.
// Histograms are reported as count and mean.
func (r *Recorder) Summary() ([]Row, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	var rows []Row
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			rows = append(rows, rowsFor(mf.GetName(), mf.GetType(), m)...)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func rowsFor(name string, typ dto.MetricType, m *dto.Metric) []Row {
	switch typ {
	case dto.MetricType_COUNTER:
		return []Row{{Name: name, Value: fmt.Sprintf("%g", m.GetCounter().GetValue())}}
	case dto.MetricType_GAUGE:
		return []Row{{Name: name, Value: fmt.Sprintf("%g", m.GetGauge().GetValue())}}
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		mean := 0.0
		if h.GetSampleCount() > 0 {
			mean = h.GetSampleSum() / float64(h.GetSampleCount())
		}
		return []Row{
			{Name: name + "_count", Value: fmt.Sprintf("%d", h.GetSampleCount())},
			{Name: name + "_mean", Value: fmt.Sprintf("%.6g", mean)},
		}
	default:
		return nil
	}
}
