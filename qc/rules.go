package qc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"git.arvados.org/tiletyper.git/resolve"
	"git.arvados.org/tiletyper.git/scheme"
)

// DefaultRules returns the QC rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		RuleFunc(missingTiles),
		RuleFunc(mixedSubtype),
		RuleFunc(ambiguousTiles),
		RuleFunc(missingDownstream),
		RuleFunc(intermediateSubtype),
		RuleFunc(lowCoverage),
	}
}

func missingTiles(c *Context) (string, string) {
	res, p := c.Result, c.Params
	if res.Consistent {
		if c.PMissing <= p.MaxMissingFraction {
			return "", ""
		}
		msg := missingMessage(c.PMissing, p.MaxMissingFraction)
		if res.Fastq {
			msg += " " + coverageAdvice(c)
		}
		return Fail, "MISSING_TILES_ERROR_1: " + msg
	}
	var msgs []string
	for i, call := range res.Calls {
		if pm := c.PMissingByCall[i]; pm > p.MaxMissingFraction {
			msgs = append(msgs, fmt.Sprintf("%s: %s", call, missingMessage(pm, p.MaxMissingFraction)))
		}
	}
	if len(msgs) == 0 {
		return "", ""
	}
	return Fail, "MISSING_TILES_ERROR_1: " + strings.Join(msgs, " | ")
}

func missingMessage(pm, max float64) string {
	return fmt.Sprintf("%.2f%% missing tiles; more than %.2f%% missing tiles threshold.", pm*100, max*100)
}

// coverageAdvice tells apart too little data from a scheme that does
// not fit the sample, by the mean frequency of in-band tiles.
func coverageAdvice(c *Context) string {
	mean := resolve.MeanFrequency(c.Evidence.Usable())
	threshold := c.Params.LowCoverageThreshold
	if mean < threshold {
		return fmt.Sprintf("Low coverage depth (%.1f < %.1f expected); you may need more WGS data.", mean, threshold)
	}
	return fmt.Sprintf("Okay coverage depth (%.1f >= %.1f expected), but this may be the wrong serovar or species for scheme %q.", mean, threshold, c.Result.Scheme)
}

func mixedSubtype(c *Context) (string, string) {
	res := c.Result
	if !res.Consistent {
		inconsistent := append([]string(nil), res.InconsistentSubtypes...)
		scheme.SortSubtypes(inconsistent)
		return Fail, fmt.Sprintf("MIXED_SAMPLE_ERROR_2: Mixed subtypes found: %s.", strings.Join(inconsistent, "; "))
	}
	if len(c.Conflicts) > 0 {
		return Fail, fmt.Sprintf("MIXED_SAMPLE_ERROR_2: Mixed sample: positive and negative tiles both observed at reference positions %s for subtype %s.", joinInts(c.Conflicts), res.Subtype)
	}
	return "", ""
}

func ambiguousTiles(c *Context) (string, string) {
	if c.PMissing > c.Params.MaxMissingFraction {
		return "", ""
	}
	observed := c.Evidence.ObservedPositions()
	missing := map[int]bool{}
	for _, label := range strings.Split(c.Result.AllSubtypes, "; ") {
		sc := c.Evidence.Model.Counts(label)
		if sc == nil {
			continue
		}
		for _, rp := range sc.RefPositions {
			if !observed[rp] {
				missing[rp] = true
			}
		}
	}
	if len(missing) < c.Params.MinAmbiguousTiles {
		return "", ""
	}
	positions := make([]int, 0, len(missing))
	for rp := range missing {
		positions = append(positions, rp)
	}
	sort.Ints(positions)
	return Fail, fmt.Sprintf("AMBIGUOUS_RESULTS_ERROR_3: %d reference positions of subtypes %s have no tile observations (%s); at least %d makes the result ambiguous.",
		len(positions), c.Result.AllSubtypes, joinInts(positions), c.Params.MinAmbiguousTiles)
}

func missingDownstream(c *Context) (string, string) {
	if len(c.Result.NonPresentSubtypes) == 0 {
		return "", ""
	}
	return Fail, fmt.Sprintf("UNCONFIDENT_RESULTS_ERROR_4: No tiles observed for downstream subtypes %s of %s; the sample may belong to an unresolved subtype.",
		strings.Join(c.Result.NonPresentSubtypes, ", "), c.Result.Subtype)
}

func intermediateSubtype(c *Context) (string, string) {
	res := c.Result
	if !res.Consistent || len(c.Conflicts) > 0 || len(res.Calls) != 1 {
		return "", ""
	}
	if c.PMissing > c.Params.MaxIntermediateFraction || res.NSubtypeMatching >= res.NSubtypeExpected[0] {
		return "", ""
	}
	call := res.Calls[0]
	negative := false
	for _, r := range c.Evidence.Negative() {
		if r.Subtype == call {
			negative = true
			break
		}
	}
	if !negative {
		return "", ""
	}
	return Warning, fmt.Sprintf("INTERMEDIATE_TYPE_WARNING_5: %d/%d positive tiles of subtype %s observed, together with negative tiles of %s; the sample may be an intermediate type.",
		res.NSubtypeMatching, res.NSubtypeExpected[0], call, call)
}

func lowCoverage(c *Context) (string, string) {
	res := c.Result
	if !res.Fastq || !res.Consistent || len(res.Calls) == 0 {
		return "", ""
	}
	if res.AvgTileCoverage >= c.Params.LowCoverageWarning {
		return "", ""
	}
	return Warning, fmt.Sprintf("LOW_COVERAGE_WARNING_6: Low coverage for all tiles (%.3f < %.1f expected).", res.AvgTileCoverage, c.Params.LowCoverageWarning)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
