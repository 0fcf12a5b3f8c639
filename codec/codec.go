// Package codec selects a blockstream.Codec by type or by name
package codec

import (
	"fmt"
	"strings"

	"github.com/andybalholm/blockstream"
	"github.com/andybalholm/blockstream/brotli"
	"github.com/andybalholm/blockstream/flate"
	"github.com/andybalholm/blockstream/lz4"
	"github.com/andybalholm/blockstream/snappy"
	"github.com/andybalholm/blockstream/zstd"
)

// Type denotes the type of codec
type Type int

// Enumeration of supported codecs
const (
	TypeLZ4    Type = iota // LZ4 with linked blocks (default, hence allocated the value 0)
	TypeFlate              // DEFLATE with the previous block as preset dictionary
	TypeZSTD               // ZStandard, independent blocks
	TypeSnappy             // Snappy, independent blocks
	TypeBrotli             // Brotli, independent blocks

	MaxType = TypeBrotli
)

// DefaultLevel selects the default compression level of a codec
const DefaultLevel = -1

var typeNames = [...]string{
	TypeLZ4:    "lz4",
	TypeFlate:  "flate",
	TypeZSTD:   "zstd",
	TypeSnappy: "snappy",
	TypeBrotli: "brotli",
}

// String returns the name of the codec type
func (t Type) String() string {
	if t < 0 || t > MaxType {
		return "unknown"
	}
	return typeNames[t]
}

// Names returns the names of all supported codecs
func Names() []string {
	return append([]string(nil), typeNames[:]...)
}

// ParseType returns the Type for a codec name. The match is case-insensitive
// and an empty name selects LZ4.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return TypeLZ4, nil
	}
	for t, n := range typeNames {
		if n == name {
			return Type(t), nil
		}
	}
	return TypeLZ4, fmt.Errorf("unsupported codec: %q", name)
}

// New creates a codec of type t. A level of DefaultLevel selects the default
// level of the codec; other levels are clamped to its valid range. Snappy has
// no levels.
func New(t Type, level int) (blockstream.Codec, error) {
	switch t {
	case TypeLZ4:
		if level == DefaultLevel {
			return lz4.New(), nil
		}
		return lz4.New(lz4.WithCompressionLevel(level)), nil
	case TypeFlate:
		if level == DefaultLevel {
			return flate.New(), nil
		}
		return flate.New(flate.WithCompressionLevel(level)), nil
	case TypeZSTD:
		if level == DefaultLevel {
			return zstd.New(), nil
		}
		return zstd.New(zstd.WithCompressionLevel(level)), nil
	case TypeSnappy:
		return snappy.New(), nil
	case TypeBrotli:
		if level == DefaultLevel {
			return brotli.New(), nil
		}
		return brotli.New(brotli.WithCompressionLevel(level)), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %v", t)
	}
}

// NewByString creates a codec from its name, using the default level
func NewByString(name string) (blockstream.Codec, error) {
	t, err := ParseType(name)
	if err != nil {
		return nil, err
	}
	return New(t, DefaultLevel)
}
