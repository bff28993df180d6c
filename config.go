package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"git.arvados.org/tiletyper.git/resolve"
	"git.arvados.org/tiletyper.git/scheme"
	"github.com/spf13/viper"
)

const envPrefix = "TILETYPER"

// paramFlags registers one flag per subtyping parameter, named after
// its config key with dashes. Values are read back by loadParams.
func paramFlags(flags *flag.FlagSet) {
	p := resolve.DefaultParams()
	flags.Float64Var(&p.LowCoverageThreshold, "low-coverage-threshold", p.LowCoverageThreshold, "mean in-band tile frequency below which missing tiles are attributed to low coverage")
	flags.Float64Var(&p.MaxMissingFraction, "max-missing-fraction", p.MaxMissingFraction, "maximum fraction of expected tiles that may be missing")
	flags.IntVar(&p.MinAmbiguousTiles, "min-ambiguous-tiles", p.MinAmbiguousTiles, "number of unobserved reference positions that makes a result ambiguous")
	flags.Float64Var(&p.MaxIntermediateFraction, "max-intermediate-fraction", p.MaxIntermediateFraction, "maximum missing fraction for reporting an intermediate subtype")
	flags.IntVar(&p.MinFreq, "min-freq", p.MinFreq, "minimum k-mer frequency of a usable FASTQ tile hit")
	flags.IntVar(&p.MaxFreq, "max-freq", p.MaxFreq, "maximum k-mer frequency of a usable FASTQ tile hit")
	flags.Float64Var(&p.LowCoverageWarning, "low-coverage-warning", p.LowCoverageWarning, "average tile coverage below which a FASTQ result gets a warning")
	flags.IntVar(&p.MaxDegenerateKmers, "max-degenerate-kmers", p.MaxDegenerateKmers, "maximum number of concrete tile sequences after IUPAC expansion")
}

// loadParams layers, lowest to highest: defaults, built-in scheme
// overrides, the config file, TILETYPER_* environment variables, and
// flags given on the command line.
func loadParams(b *scheme.Builtin, configFile string, flags *flag.FlagSet) (resolve.Params, error) {
	base := resolve.DefaultParams()
	base.ApplyBuiltin(b)

	v := viper.New()
	v.SetDefault("low_coverage_threshold", base.LowCoverageThreshold)
	v.SetDefault("max_missing_fraction", base.MaxMissingFraction)
	v.SetDefault("min_ambiguous_tiles", base.MinAmbiguousTiles)
	v.SetDefault("max_intermediate_fraction", base.MaxIntermediateFraction)
	v.SetDefault("min_freq", base.MinFreq)
	v.SetDefault("max_freq", base.MaxFreq)
	v.SetDefault("low_coverage_warning", base.LowCoverageWarning)
	v.SetDefault("max_degenerate_kmers", base.MaxDegenerateKmers)

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return base, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return base, fmt.Errorf("config file %s: %w", configFile, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if flags != nil {
		flags.Visit(func(f *flag.Flag) {
			key := strings.Replace(f.Name, "-", "_", -1)
			if isParamKey(key) {
				v.Set(key, f.Value.String())
			}
		})
	}

	var p resolve.Params
	if err := v.Unmarshal(&p); err != nil {
		return base, fmt.Errorf("%w: %s", resolve.ErrInvalidParams, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func isParamKey(key string) bool {
	switch key {
	case "low_coverage_threshold", "max_missing_fraction", "min_ambiguous_tiles",
		"max_intermediate_fraction", "min_freq", "max_freq",
		"low_coverage_warning", "max_degenerate_kmers":
		return true
	}
	return false
}

// defaultSchemeDir is where built-in scheme files are looked up when
// -scheme-dir is not given.
func defaultSchemeDir() string {
	if dir := os.Getenv(envPrefix + "_SCHEME_DIR"); dir != "" {
		return dir
	}
	return "schemes"
}
