package blockstream

import "github.com/prometheus/client_golang/prometheus"

const (
	metricsNamespace = "blockstream"

	directionEncode = "encode"
	directionDecode = "decode"
)

// Metrics counts blocks, bytes and stream outcomes. It implements
// prometheus.Collector and is safe for use by concurrent streams.
type Metrics struct {
	blocks          *prometheus.CounterVec
	plainBytes      *prometheus.CounterVec
	compressedBytes *prometheus.CounterVec
	streams         *prometheus.CounterVec
}

// NewMetrics creates an unregistered set of stream metrics
func NewMetrics() *Metrics {
	return &Metrics{
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "blocks_total",
			Help:      "Number of blocks processed",
		}, []string{"direction", "codec"}),
		plainBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "plain_bytes_total",
			Help:      "Number of uncompressed bytes processed",
		}, []string{"direction", "codec"}),
		compressedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compressed_bytes_total",
			Help:      "Number of compressed bytes processed, including block framing",
		}, []string{"direction", "codec"}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "streams_total",
			Help:      "Number of finished streams, by outcome",
		}, []string{"direction", "codec", "status"}),
	}
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.blocks.Describe(ch)
	m.plainBytes.Describe(ch)
	m.compressedBytes.Describe(ch)
	m.streams.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.blocks.Collect(ch)
	m.plainBytes.Collect(ch)
	m.compressedBytes.Collect(ch)
	m.streams.Collect(ch)
}

func (m *Metrics) observeBlock(direction, codec string, plain, compressed int) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(direction, codec).Inc()
	m.plainBytes.WithLabelValues(direction, codec).Add(float64(plain))
	m.compressedBytes.WithLabelValues(direction, codec).Add(float64(compressed))
}

func (m *Metrics) observeStream(direction, codec string, status Status) {
	if m == nil {
		return
	}
	m.streams.WithLabelValues(direction, codec, status.String()).Inc()
}
