package wbundle

import (
	"image/png"

	"github.com/rs/zerolog"
)

type config struct {
	key          []byte
	scope        CipherScope
	maxDimension int
	format       Format
	pngLevel     png.CompressionLevel
	limits       Limits
	logger       zerolog.Logger
	entryCodecs  bool
}

func defaultConfig() config {
	return config{
		scope:        ScopeBuffer,
		maxDimension: DefaultMaxDimension,
		format:       FormatPNG,
		pngLevel:     png.BestCompression,
		limits:       defaultLimits(),
		logger:       zerolog.Nop(),
	}
}

// Option configures a Bundle.
type Option func(*config)

// WithKey sets the XOR key. A nil or empty key disables the cipher.
// The key is copied.
func WithKey(key []byte) Option {
	return func(c *config) {
		if len(key) == 0 {
			c.key = nil
			return
		}
		c.key = append([]byte(nil), key...)
	}
}

func WithKeyString(key string) Option {
	return WithKey([]byte(key))
}

func WithCipherScope(s CipherScope) Option {
	return func(c *config) { c.scope = s }
}

// WithMaxDimension caps canvas width and height on encode. Values <= 0 keep
// the default.
func WithMaxDimension(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDimension = n
		}
	}
}

func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithPNGCompression sets the deflate level used for FormatPNG.
func WithPNGCompression(level png.CompressionLevel) Option {
	return func(c *config) { c.pngLevel = level }
}

// WithLimits sets decode limits. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(c *config) { c.limits = l }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithEntryCodecs makes Read expand entries whose type tag ends in a codec
// suffix written by WithCompression. Without it Read returns stored bytes
// and the type tag stays advisory.
func WithEntryCodecs() Option {
	return func(c *config) { c.entryCodecs = true }
}

type entryConfig struct {
	name        string
	typ         string
	typSet      bool
	compression Compression
}

// EntryOption configures a single Add.
type EntryOption func(*entryConfig)

// WithType sets the advisory type tag. It defaults to the name's extension
// without the leading dot.
func WithType(t string) EntryOption {
	return func(c *entryConfig) {
		c.typ = t
		c.typSet = true
	}
}

// WithName overrides the entry name used by AddFile.
func WithName(name string) EntryOption {
	return func(c *entryConfig) { c.name = name }
}

// WithCompression stores the entry compressed with comp.
func WithCompression(comp Compression) EntryOption {
	return func(c *entryConfig) { c.compression = comp }
}
