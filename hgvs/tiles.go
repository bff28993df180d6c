package hgvs

import (
	"sort"
	"time"

	"git.arvados.org/tiletyper.git/scheme"
)

// TilePair is a positive tile and a negative tile sharing a reference
// position, with the variants distinguishing them.
type TilePair struct {
	RefPos   int
	Positive *scheme.Tile
	Negative *scheme.Tile
	Variants []Variant
	TimedOut bool
}

// TilePairs describes, for every reference position that has both a
// positive and a negative tile, how the negative tile differs from the
// positive one. Pairs are ordered by position, then tile names.
func TilePairs(model *scheme.Model, timeout time.Duration) []TilePair {
	pos := map[int][]*scheme.Tile{}
	neg := map[int][]*scheme.Tile{}
	for i := range model.Tiles {
		t := &model.Tiles[i]
		if t.Positive {
			pos[t.RefPos] = append(pos[t.RefPos], t)
		} else {
			neg[t.RefPos] = append(neg[t.RefPos], t)
		}
	}
	var pairs []TilePair
	for rp, ptiles := range pos {
		for _, p := range ptiles {
			for _, n := range neg[rp] {
				vars, timedOut := Diff(p.Seq, n.Seq, timeout)
				pairs = append(pairs, TilePair{
					RefPos:   rp,
					Positive: p,
					Negative: n,
					Variants: vars,
					TimedOut: timedOut,
				})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		switch {
		case a.RefPos != b.RefPos:
			return a.RefPos < b.RefPos
		case a.Positive.Name != b.Positive.Name:
			return a.Positive.Name < b.Positive.Name
		default:
			return a.Negative.Name < b.Negative.Name
		}
	})
	return pairs
}
