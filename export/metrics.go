package export

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 导出指标
type Metrics struct {
	rows     prometheus.Counter
	files    prometheus.Counter
	batches  prometheus.Counter
	failures prometheus.Counter
	duration prometheus.Histogram
}

// NewMetrics 创建并注册指标，reg 为空时不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csvgrid",
			Name:      "rows_total",
			Help:      "Number of data rows written to csv files.",
		}),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csvgrid",
			Name:      "files_total",
			Help:      "Number of csv files written.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csvgrid",
			Name:      "batches_total",
			Help:      "Number of row batches fetched from data sources.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csvgrid",
			Name:      "export_failures_total",
			Help:      "Number of failed export runs.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "csvgrid",
			Name:      "export_duration_seconds",
			Help:      "Duration of export runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.rows, m.files, m.batches, m.failures, m.duration)
	}
	return m
}

func (m *Metrics) observeBatch() {
	if m != nil {
		m.batches.Inc()
	}
}

func (m *Metrics) observeFile(f CsvFile) {
	if m != nil {
		m.files.Inc()
		m.rows.Add(float64(f.RowCount))
	}
}

func (m *Metrics) observeRun(start time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.failures.Inc()
	}
	m.duration.Observe(time.Since(start).Seconds())
}
