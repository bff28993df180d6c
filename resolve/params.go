package resolve

import (
	"errors"
	"fmt"

	"git.arvados.org/tiletyper.git/scheme"
)

// Params are the subtyping and quality-control thresholds.
type Params struct {
	// Mean in-band tile frequency below which missing tiles are
	// blamed on coverage rather than the scheme (FASTQ).
	LowCoverageThreshold float64 `mapstructure:"low_coverage_threshold" json:"low_coverage_threshold"`
	MaxMissingFraction   float64 `mapstructure:"max_missing_fraction" json:"max_missing_fraction"`
	MinAmbiguousTiles    int     `mapstructure:"min_ambiguous_tiles" json:"min_ambiguous_tiles"`
	// Missing fraction below which a partial subtype is reported as
	// intermediate.
	MaxIntermediateFraction float64 `mapstructure:"max_intermediate_fraction" json:"max_intermediate_fraction"`
	MinFreq                 int     `mapstructure:"min_freq" json:"min_freq"`
	MaxFreq                 int     `mapstructure:"max_freq" json:"max_freq"`
	LowCoverageWarning      float64 `mapstructure:"low_coverage_warning" json:"low_coverage_warning"`
	MaxDegenerateKmers      int     `mapstructure:"max_degenerate_kmers" json:"max_degenerate_kmers"`
}

// DefaultParams returns the default thresholds.
func DefaultParams() Params {
	return Params{
		LowCoverageThreshold:    20,
		MaxMissingFraction:      0.05,
		MinAmbiguousTiles:       3,
		MaxIntermediateFraction: 0.05,
		MinFreq:                 8,
		MaxFreq:                 1000,
		LowCoverageWarning:      20,
		MaxDegenerateKmers:      scheme.DefaultMaxDegenerateKmers,
	}
}

// ApplyBuiltin overrides thresholds the built-in scheme b sets.
func (p *Params) ApplyBuiltin(b *scheme.Builtin) {
	if b == nil {
		return
	}
	if b.LowCoverageThreshold > 0 {
		p.LowCoverageThreshold = b.LowCoverageThreshold
	}
}

// ErrInvalidParams is returned by Validate.
var ErrInvalidParams = errors.New("invalid subtyping parameters")

// Validate checks parameter ranges.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		val  float64
	}{
		{"max_missing_fraction", p.MaxMissingFraction},
		{"max_intermediate_fraction", p.MaxIntermediateFraction},
	} {
		if f.val < 0 || f.val > 1 {
			return fmt.Errorf("%w: %s=%v is not in [0,1]", ErrInvalidParams, f.name, f.val)
		}
	}
	for _, f := range []struct {
		name string
		val  int
	}{
		{"min_ambiguous_tiles", p.MinAmbiguousTiles},
		{"min_freq", p.MinFreq},
		{"max_freq", p.MaxFreq},
		{"max_degenerate_kmers", p.MaxDegenerateKmers},
	} {
		if f.val < 1 {
			return fmt.Errorf("%w: %s=%d must be a positive integer", ErrInvalidParams, f.name, f.val)
		}
	}
	if p.LowCoverageThreshold < 0 || p.LowCoverageWarning < 0 {
		return fmt.Errorf("%w: coverage thresholds must not be negative", ErrInvalidParams)
	}
	if p.MinFreq > p.MaxFreq {
		return fmt.Errorf("%w: min_freq=%d > max_freq=%d", ErrInvalidParams, p.MinFreq, p.MaxFreq)
	}
	return nil
}
