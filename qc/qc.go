// Package qc judges a subtype call against its hit evidence and
// reduces a fixed list of rules to a PASS/WARNING/FAIL verdict.
package qc

import (
	"fmt"
	"sort"
	"strings"

	"git.arvados.org/tiletyper.git/resolve"
	"git.arvados.org/tiletyper.git/scheme"
)

const (
	Pass    = "PASS"
	Warning = "WARNING"
	Fail    = "FAIL"
)

// Rule inspects one aspect of a result. An empty status means the
// rule has nothing to report.
type Rule interface {
	Check(c *Context) (status, message string)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(c *Context) (string, string)

func (f RuleFunc) Check(c *Context) (string, string) { return f(c) }

// Context is what rules see. The derived fields are computed once by
// NewContext.
type Context struct {
	Result   *resolve.Result
	Evidence *resolve.Evidence
	Params   resolve.Params

	// Missing fraction of expected tiles; the maximum over the
	// components of an inconsistent call.
	PMissing float64
	// Per-call missing fractions, parallel to Result.Calls.
	PMissingByCall []float64
	// Reference positions with both positive and negative evidence
	// within the call's prefix set, ascending.
	Conflicts []int
}

// NewContext derives the shared rule inputs for res.
func NewContext(res *resolve.Result, ev *resolve.Evidence) *Context {
	c := &Context{Result: res, Evidence: ev, Params: ev.Params}
	for i, call := range res.Calls {
		expected := res.NAllExpected[i]
		observed := res.NAllMatching
		if !res.Consistent {
			observed = observedForComponent(ev, call)
		}
		p := 0.0
		if expected > 0 {
			p = float64(expected-observed) / float64(expected)
		}
		c.PMissingByCall = append(c.PMissingByCall, p)
		if i == 0 || p > c.PMissing {
			c.PMissing = p
		}
	}
	if res.Consistent && len(res.Calls) == 1 {
		c.Conflicts = conflictingPositions(ev, res.Calls[0])
	}
	return c
}

// observedForComponent counts the positive tiles on the lineage of
// call plus all negative tiles observed.
func observedForComponent(ev *resolve.Evidence, call string) int {
	st := scheme.MustParseSubtype(call)
	var rows []resolve.Row
	for _, r := range ev.Positive() {
		if r.Tile.Subtype.IsPrefixOf(st) {
			rows = append(rows, r)
		}
	}
	rows = append(rows, ev.Negative()...)
	return resolve.DistinctTiles(rows)
}

func conflictingPositions(ev *resolve.Evidence, call string) []int {
	st := scheme.MustParseSubtype(call)
	pos := map[int]bool{}
	for _, r := range ev.Positive() {
		if r.Tile.Subtype.IsPrefixOf(st) {
			pos[r.Tile.RefPos] = true
		}
	}
	seen := map[int]bool{}
	var out []int
	for _, r := range ev.Negative() {
		rp := r.Tile.RefPos
		if pos[rp] && !seen[rp] && r.Tile.Subtype.IsPrefixOf(st) {
			seen[rp] = true
			out = append(out, rp)
		}
	}
	sort.Ints(out)
	return out
}

// Evaluate folds the outcomes of rules, in order, into one verdict.
// FAIL is absorbing; messages are joined with " | ".
func Evaluate(c *Context, rules []Rule) (string, string) {
	status := Pass
	var msgs []string
	for _, rule := range rules {
		st, msg := rule.Check(c)
		switch st {
		case "":
			continue
		case Fail:
			status = Fail
		case Warning:
			if status == Pass {
				status = Warning
			}
		}
		if msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return status, strings.Join(msgs, " | ")
}

// Apply sets the QC fields of res using DefaultRules.
func Apply(res *resolve.Result, ev *resolve.Evidence) {
	res.QCStatus, res.QCMessage = Verdict(res, ev, DefaultRules())
}

// Verdict is like Apply with an explicit rule list, and returns the
// verdict instead of storing it.
func Verdict(res *resolve.Result, ev *resolve.Evidence, rules []Rule) (string, string) {
	if len(ev.Rows) == 0 {
		return Fail, fmt.Sprintf("NO_TARGETS_FOUND: No tiles of scheme %s found in the input. | NO_SUBTYPE_RESULT: No subtype result!", res.Scheme)
	}
	if len(res.Calls) == 0 {
		msg := "NO_SUBTYPE_RESULT: No subtype result!"
		if ev.Fastq {
			msg += fmt.Sprintf(" No positive tile observed with frequency in [%d, %d].", ev.Params.MinFreq, ev.Params.MaxFreq)
		}
		return Fail, msg
	}
	return Evaluate(NewContext(res, ev), rules)
}

// InputError is the verdict for a sample whose input could not be
// scanned.
func InputError(res *resolve.Result, err error) {
	res.QCStatus = Fail
	res.QCMessage = "INPUT_ERROR: " + err.Error()
}
