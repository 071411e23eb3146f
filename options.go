package covermatch

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/covermatch/covermatch/label"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	scoring          ScoringConfig
	bands            Bands
	fuzzyCutoff      float64
	reloadLimiter    *rate.Limiter
}

// Option configures Engine constructor behavior.
type Option func(*options)

// WithLogger configures structured logging. If nil is passed, logging is
// disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel enables JSON logging to stderr at the given level.
// Shorthand for WithLogger(NewJSONLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewJSONLogger(level)
	}
}

// WithMetricsCollector configures metrics collection. If nil is passed,
// NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithScoring overrides the default scoring weights. The axis weight
// vectors always come from this configuration; the RiskWeight and JobWeight
// penalties apply to queries that keep the package defaults, while a weight
// set explicitly on a Query wins over the engine configuration.
func WithScoring(sc ScoringConfig) Option {
	return func(o *options) {
		o.scoring = sc
	}
}

// WithBands overrides the default candidate band configuration.
func WithBands(b Bands) Option {
	return func(o *options) {
		o.bands = b
	}
}

// WithFuzzyCutoff sets the minimum similarity ratio for fuzzy label
// resolution of job and risk text. Values outside (0, 1] fall back to
// the default cutoff.
func WithFuzzyCutoff(cutoff float64) Option {
	return func(o *options) {
		if cutoff <= 0 || cutoff > 1 {
			cutoff = label.DefaultFuzzyCutoff
		}
		o.fuzzyCutoff = cutoff
	}
}

// WithReloadLimit rate-limits Reload to at most one call per minInterval.
// Calls arriving faster return ErrReloadThrottled without touching the
// current generation. A zero or negative interval disables the limit.
func WithReloadLimit(minInterval time.Duration) Option {
	return func(o *options) {
		if minInterval <= 0 {
			o.reloadLimiter = nil

			return
		}
		o.reloadLimiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
}

func applyOptions(optFns ...Option) options {
	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		scoring:          DefaultScoring,
		bands:            DefaultBands,
		fuzzyCutoff:      label.DefaultFuzzyCutoff,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}
