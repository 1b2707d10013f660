package hl7v2

import "github.com/DNAi-inc/DNHealth-sub002/internal/logger"

// DefaultMaxLineLength is the longest serialized segment line emitted before
// continuation splitting kicks in, when a continuation character is set.
const DefaultMaxLineLength = 32767

// Option configures a parser or serializer.
type Option func(*Options)

// Options holds all codec configuration.
type Options struct {
	// Tolerant switches the parser from fail-fast to best-effort: every
	// recoverable structural problem is recorded as a Warning and the
	// offending segment skipped instead of aborting the message.
	Tolerant bool

	// DetectGroups layers best-effort segment-group detection over the
	// flat segment list after parsing.
	DetectGroups bool

	// Normalize makes the serializer trim trailing fully-empty fields.
	// Off by default: the serializer then reproduces the exact trailing
	// field presence the text arrived with.
	Normalize bool

	// MaxLineLength is the serializer's continuation-splitting threshold.
	// Only consulted when the message declares a continuation character.
	MaxLineLength int

	// Logger receives tolerant-mode diagnostics. Nil keeps the codec
	// silent.
	Logger *logger.Logger

	// Metrics, when set, records parse/serialize counts and timings.
	Metrics *Metrics
}

// DefaultOptions returns the default configuration: strict, no group
// detection, exact (non-normalized) serialization, silent.
func DefaultOptions() *Options {
	return &Options{
		MaxLineLength: DefaultMaxLineLength,
	}
}

// Apply runs every option against o and returns o.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTolerant enables best-effort parsing with warning accumulation.
func WithTolerant(enable bool) Option {
	return func(o *Options) {
		o.Tolerant = enable
	}
}

// WithGroupDetection enables best-effort segment-group detection.
func WithGroupDetection(enable bool) Option {
	return func(o *Options) {
		o.DetectGroups = enable
	}
}

// WithNormalize makes the serializer trim trailing fully-empty fields.
// Header segments keep their encoding-character field regardless.
func WithNormalize(enable bool) Option {
	return func(o *Options) {
		o.Normalize = enable
	}
}

// WithMaxLineLength sets the continuation-splitting threshold. Values below
// 1 are ignored.
func WithMaxLineLength(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxLineLength = n
		}
	}
}

// WithLogger routes tolerant-mode diagnostics to l.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics records codec activity into m.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}
