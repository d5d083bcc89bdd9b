package regvm

import (
	"go.uber.org/zap"

	"github.com/KromDaniel/regvm/pkg/ast"
)

// Option configures compilation and matching.
type Option func(*config)

type config struct {
	options   ast.MatchingOptions
	stepLimit int
	logger    *zap.Logger
	verbose   bool
	tracing   bool
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithOptions replaces every matching option at once.
func WithOptions(o ast.MatchingOptions) Option {
	return func(c *config) { c.options = o }
}

// WithSemanticLevel selects grapheme-cluster or Unicode-scalar characters.
func WithSemanticLevel(level ast.SemanticLevel) Option {
	return func(c *config) { c.options.SemanticLevel = level }
}

// WithCaseInsensitive enables case-insensitive matching.
func WithCaseInsensitive(on bool) Option {
	return func(c *config) { c.options.CaseInsensitive = on }
}

// WithStrictASCII restricts builtin classes to ASCII.
func WithStrictASCII(on bool) Option {
	return func(c *config) { c.options.StrictASCII = on }
}

// WithDotMatchesNewline lets "." match newlines.
func WithDotMatchesNewline(on bool) Option {
	return func(c *config) { c.options.DotMatchesNewline = on }
}

// WithMultiline makes ^ and $ match at line boundaries.
func WithMultiline(on bool) Option {
	return func(c *config) { c.options.Multiline = on }
}

// WithStepLimit aborts a match call with ErrStepLimit after n VM cycles.
// Zero, the default, means unlimited.
func WithStepLimit(n int) Option {
	return func(c *config) { c.stepLimit = n }
}

// WithLogger sets the logger for verbose compile output and tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithVerbose logs compile decisions.
func WithVerbose(on bool) Option {
	return func(c *config) { c.verbose = on }
}

// WithTracing logs every VM cycle at debug level. It needs WithLogger.
func WithTracing(on bool) Option {
	return func(c *config) { c.tracing = on }
}
