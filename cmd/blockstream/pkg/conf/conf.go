// Package conf holds the configuration keys of the blockstream CLI. Every key
// doubles as a flag name and can be set through the environment, e.g.
// BLOCKSTREAM_STREAM_CHUNK_SIZE for stream.chunk_size.
package conf

const (
	// EnvPrefix is prepended to all environment variables
	EnvPrefix = "blockstream"

	ConfigFile = "config" // ConfigFile : path to an optional YAML configuration file

	loggingKey  = "log"
	LogLevel    = loggingKey + ".level"    // LogLevel : minimum level of log messages
	LogEncoding = loggingKey + ".encoding" // LogEncoding : log output format (logfmt, json, plain)

	codecKey   = "codec"
	CodecName  = codecKey + ".name"  // CodecName : block codec (lz4, flate, zstd, snappy, brotli)
	CodecLevel = codecKey + ".level" // CodecLevel : compression level, -1 for the codec's default

	streamKey       = "stream"
	StreamChunkSize = streamKey + ".chunk_size" // StreamChunkSize : plaintext bytes per block
	StreamDict      = streamKey + ".dict"       // StreamDict : file holding a seed dictionary
	StreamTimeout   = streamKey + ".timeout"    // StreamTimeout : deadline for a single command, 0 for none
)

const (
	DefaultLogLevel    = "warn"
	DefaultLogEncoding = "logfmt"

	DefaultCodecName  = "lz4"
	DefaultCodecLevel = -1
)
