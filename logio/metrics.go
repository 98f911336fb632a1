package logio

import "github.com/prometheus/client_golang/prometheus"

// Collector exports FileWritable statistics as Prometheus metrics labelled
// by sink path.
type Collector struct {
	sinks []*FileWritable

	writes    *prometheus.Desc
	bytes     *prometheus.Desc
	opens     *prometheus.Desc
	rotations *prometheus.Desc
	errors    *prometheus.Desc
}

// NewCollector returns a collector over sinks.
func NewCollector(sinks ...*FileWritable) *Collector {
	labels := []string{"path"}
	return &Collector{
		sinks:     sinks,
		writes:    prometheus.NewDesc("perfio_sink_writes_total", "Successful writes to the sink", labels, nil),
		bytes:     prometheus.NewDesc("perfio_sink_bytes_written_total", "Bytes written to the sink", labels, nil),
		opens:     prometheus.NewDesc("perfio_sink_opens_total", "Times the sink handle was opened", labels, nil),
		rotations: prometheus.NewDesc("perfio_sink_rotations_total", "Completed rotations", labels, nil),
		errors:    prometheus.NewDesc("perfio_sink_errors_total", "Failed sink operations", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.writes
	ch <- c.bytes
	ch <- c.opens
	ch <- c.rotations
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.sinks {
		st := s.Stats()
		path := s.Path()
		ch <- prometheus.MustNewConstMetric(c.writes, prometheus.CounterValue, float64(st.Writes), path)
		ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.CounterValue, float64(st.BytesWritten), path)
		ch <- prometheus.MustNewConstMetric(c.opens, prometheus.CounterValue, float64(st.Opens), path)
		ch <- prometheus.MustNewConstMetric(c.rotations, prometheus.CounterValue, float64(st.Rotations), path)
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(st.Errors), path)
	}
}
