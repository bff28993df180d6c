package resolve

import (
	"sort"
	"strconv"
	"strings"

	"git.arvados.org/tiletyper.git/scheme"
)

// Result is the subtype call for one sample.
type Result struct {
	Sample        string `json:"sample"`
	Scheme        string `json:"scheme"`
	SchemeVersion string `json:"scheme_version"`
	FilePath      string `json:"file_path"`
	Fastq         bool   `json:"is_fastq"`

	// Calls are the most specific subtypes supported by positive
	// tiles; more than one only for a mixed sample.
	Calls                []string `json:"-"`
	Subtype              string   `json:"subtype"`
	AllSubtypes          string   `json:"all_subtypes"`
	TilesMatchingSubtype string   `json:"tiles_matching_subtype"`
	Consistent           bool     `json:"are_subtypes_consistent"`
	InconsistentSubtypes []string `json:"inconsistent_subtypes"`

	NAllMatching      int   `json:"n_tiles_matching_all"`
	NAllExpected      []int `json:"n_tiles_matching_all_expected"`
	NPositiveMatching int   `json:"n_tiles_matching_positive"`
	NPositiveExpected []int `json:"n_tiles_matching_positive_expected"`
	NSubtypeMatching  int   `json:"n_tiles_matching_subtype"`
	NSubtypeExpected  []int `json:"n_tiles_matching_subtype_expected"`

	// Mean frequency over all FASTQ rows, in band or not.
	AvgTileCoverage    float64  `json:"avg_tile_coverage"`
	NonPresentSubtypes []string `json:"non_present_subtypes"`

	QCStatus  string `json:"qc_status"`
	QCMessage string `json:"qc_message"`
}

// JoinCounts renders parallel expected counts as a ;-joined string.
func JoinCounts(counts []int) string {
	parts := make([]string, len(counts))
	for i, n := range counts {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ";")
}

// Resolve computes the subtype call and its supporting statistics. QC
// fields are left empty.
func Resolve(ev *Evidence) *Result {
	res := &Result{
		Scheme:        ev.Model.Name,
		SchemeVersion: ev.Model.Version,
		Fastq:         ev.Fastq,
		Consistent:    true,
	}
	if ev.Fastq {
		res.AvgTileCoverage = MeanFrequency(ev.Rows)
	}
	pos := ev.Positive()
	if len(pos) == 0 {
		return res
	}

	maxDepth := 0
	for _, r := range pos {
		if d := r.Tile.Subtype.Depth(); d > maxDepth {
			maxDepth = d
		}
	}
	var highest []Row
	for _, r := range pos {
		if r.Tile.Subtype.Depth() == maxDepth {
			highest = append(highest, r)
		}
	}

	res.Calls = uniqueSubtypes(highest)
	scheme.SortSubtypes(res.Calls)
	res.Subtype = strings.Join(res.Calls, "; ")

	all := uniqueSubtypes(pos)
	scheme.SortSubtypesByDepth(all)
	res.AllSubtypes = strings.Join(all, "; ")

	var names []string
	seen := map[string]bool{}
	for _, r := range highest {
		if !seen[r.Tile.Name] {
			seen[r.Tile.Name] = true
			names = append(names, r.Tile.Name)
		}
	}
	sort.Strings(names)
	res.TilesMatchingSubtype = strings.Join(names, "; ")

	res.InconsistentSubtypes = inconsistentSubtypes(pos)
	res.Consistent = len(res.InconsistentSubtypes) == 0

	res.NAllMatching = DistinctTiles(ev.Usable())
	res.NPositiveMatching = DistinctTiles(pos)
	res.NSubtypeMatching = DistinctTiles(highest)
	for _, call := range res.Calls {
		sc := ev.Model.Counts(call)
		res.NAllExpected = append(res.NAllExpected, sc.Total())
		res.NPositiveExpected = append(res.NPositiveExpected, sc.AllPositive)
		res.NSubtypeExpected = append(res.NSubtypeExpected, sc.Positive())
	}
	res.NonPresentSubtypes = nonPresentSubtypes(ev, res.Calls)
	return res
}

func uniqueSubtypes(rows []Row) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range rows {
		if !seen[r.Subtype] {
			seen[r.Subtype] = true
			out = append(out, r.Subtype)
		}
	}
	return out
}

// inconsistentSubtypes returns the subtypes involved in any pair
// where neither is a prefix of the other, most frequently observed
// first.
func inconsistentSubtypes(pos []Row) []string {
	freq := map[string]int{}
	parsed := map[string]scheme.Subtype{}
	var labels []string
	for _, r := range pos {
		if freq[r.Subtype] == 0 {
			labels = append(labels, r.Subtype)
			parsed[r.Subtype] = r.Tile.Subtype
		}
		freq[r.Subtype]++
	}
	bad := map[string]bool{}
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			if !parsed[labels[i]].Consistent(parsed[labels[j]]) {
				bad[labels[i]] = true
				bad[labels[j]] = true
			}
		}
	}
	var out []string
	for _, l := range labels {
		if bad[l] {
			out = append(out, l)
		}
	}
	scheme.SortSubtypes(out)
	sort.SliceStable(out, func(i, j int) bool {
		return freq[out[i]] > freq[out[j]]
	})
	return out
}

// nonPresentSubtypes returns the direct children of the calls that no
// usable row is labeled with.
func nonPresentSubtypes(ev *Evidence, calls []string) []string {
	present := map[string]bool{}
	for _, r := range ev.Usable() {
		present[r.Subtype] = true
	}
	var out []string
	for _, call := range calls {
		for _, child := range ev.Model.Children(call) {
			if !present[child] {
				out = append(out, child)
			}
		}
	}
	return out
}
