package blockstream

import "fmt"

const (
	// DefaultChunkSize is the plaintext size of a block unless configured otherwise
	DefaultChunkSize = 8 << 10

	// MaxChunkSize is the largest supported chunk size
	MaxChunkSize = 4 << 20
)

type config struct {
	chunkSize int
	dict      []byte
	metrics   *Metrics

	// index of the buffer that receives the first block
	startIndex int
}

// Option sets additional parameters on a Writer or Reader
type Option func(*config)

// WithChunkSize sets the plaintext size of a block. Writer and Reader of the
// same stream must use the same chunk size.
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunkSize = n
	}
}

// WithDictionary seeds the stream with a dictionary the first block may refer
// to. Writer and Reader of the same stream must use the same dictionary.
func WithDictionary(dict []byte) Option {
	return func(c *config) {
		c.dict = append([]byte(nil), dict...)
	}
}

// WithMetrics reports block and stream counters to m
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

func newConfig(opts []Option) (config, error) {
	c := config{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&c)
	}
	if c.chunkSize < 1 || c.chunkSize > MaxChunkSize {
		return c, fmt.Errorf("%w: %d", ErrInvalidChunkSize, c.chunkSize)
	}
	return c, nil
}
