// Package hgvs describes how one tile sequence differs from another,
// in HGVS-like notation relative to the first.
package hgvs

import (
	"fmt"
	"time"

	"git.arvados.org/tiletyper.git/scheme"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Variant replaces Ref, starting at 1-based Position, with Alt. An
// insertion has an empty Ref and goes before Position.
type Variant struct {
	Position int
	Ref      string
	Alt      string
}

func (v *Variant) String() string {
	end := v.Position + len(v.Ref) - 1
	switch {
	case v.Ref == "":
		return fmt.Sprintf("%d_%dins%s", v.Position-1, v.Position, v.Alt)
	case v.Alt == "" && end == v.Position:
		return fmt.Sprintf("%ddel", v.Position)
	case v.Alt == "":
		return fmt.Sprintf("%d_%ddel", v.Position, end)
	case len(v.Ref) == 1 && len(v.Alt) == 1:
		return fmt.Sprintf("%d%s>%s", v.Position, v.Ref, v.Alt)
	case end == v.Position:
		return fmt.Sprintf("%ddelins%s", v.Position, v.Alt)
	default:
		return fmt.Sprintf("%d_%ddelins%s", v.Position, end, v.Alt)
	}
}

// Diff returns the variants that turn a into b.
//
// Sequences of equal length are compared column by column, and IUPAC
// codes sharing a nucleotide (R and G, N and anything) are not
// variants. Otherwise the sequences are aligned with a bisect diff; a
// zero timeout means no deadline, and timedOut reports whether the
// deadline cut the alignment short.
func Diff(a, b string, timeout time.Duration) (variants []Variant, timedOut bool) {
	if len(a) == len(b) {
		return substitutions(a, b), false
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupEfficiency(dmp.DiffBisect(a, b, deadline))
	timedOut = timeout > 0 && time.Now().After(deadline)

	// Deletions and insertions between two equal runs collapse into
	// one variant.
	pos := 1
	pending := Variant{Position: pos}
	flush := func() {
		if pending.Ref != "" || pending.Alt != "" {
			variants = append(variants, pending)
		}
		pending = Variant{Position: pos}
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += len(d.Text)
			pending.Position = pos
		case diffmatchpatch.DiffDelete:
			pending.Ref += d.Text
			pos += len(d.Text)
		case diffmatchpatch.DiffInsert:
			pending.Alt += d.Text
		}
	}
	flush()
	return variants, timedOut
}

func substitutions(a, b string) []Variant {
	var variants []Variant
	for i := 0; i < len(a); i++ {
		if scheme.Overlap(a[i], b[i]) {
			continue
		}
		start := i
		for i < len(a) && !scheme.Overlap(a[i], b[i]) {
			i++
		}
		variants = append(variants, Variant{Position: start + 1, Ref: a[start:i], Alt: b[start:i]})
	}
	return variants
}
