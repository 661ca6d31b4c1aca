package covdata

import (
	"github.com/go-playground/validator/v10"

	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
	"github.com/gocoverage/covdata/pkg/covdata/sqlitestore"
)

// SuffixKind selects how a CoverageData's on-disk filename is
// suffixed, standing in for Python's suffix parameter that accepts
// None, True, or a literal string.
type SuffixKind int

const (
	// SuffixNone writes directly to the base filename.
	SuffixNone SuffixKind = iota
	// SuffixAuto appends "<hostname>.<pid>.<6-hex-random>".
	SuffixAuto
	// SuffixLiteral appends a caller-supplied string.
	SuffixLiteral
)

// Suffix selects the parallel-mode filename suffix.
type Suffix struct {
	Kind  SuffixKind
	Value string
}

// config holds the validated construction parameters for a
// CoverageData, assembled from functional Options.
type config struct {
	Basename string `validate:"required"`
	Suffix   Suffix
	NoDisk   bool
	Warn     func(string)
	Debug    func(string)
	Metrics  *sqlitestore.Metrics
}

// Option configures a CoverageData at construction time.
type Option func(*config)

// WithBasename overrides the default base filename (".coverage").
func WithBasename(basename string) Option {
	return func(c *config) { c.Basename = basename }
}

// WithSuffix sets the parallel-mode filename suffix.
func WithSuffix(suffix Suffix) Option {
	return func(c *config) { c.Suffix = suffix }
}

// WithNoDisk keeps all data in memory; no file is ever written.
func WithNoDisk(noDisk bool) Option {
	return func(c *config) { c.NoDisk = noDisk }
}

// WithWarn installs a non-fatal warning callback.
func WithWarn(warn func(string)) Option {
	return func(c *config) { c.Warn = warn }
}

// WithDebug installs a debug-trace callback.
func WithDebug(debug func(string)) Option {
	return func(c *config) { c.Debug = debug }
}

// WithMetrics installs a prometheus collector set; when nil (the
// default), no metrics are recorded.
func WithMetrics(m *sqlitestore.Metrics) Option {
	return func(c *config) { c.Metrics = m }
}

var validate = validator.New()

func newConfig(opts ...Option) (config, error) {
	c := config{Basename: ".coverage"}
	for _, opt := range opts {
		opt(&c)
	}
	if err := validate.Struct(c); err != nil {
		return config{}, covdataerrors.NewConfigError("invalid covdata options: %s", err)
	}
	return c, nil
}
