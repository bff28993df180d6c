package scheme

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
)

// SubtypeCounts holds the expected tile counts for one subtype.
type SubtypeCounts struct {
	Subtype Subtype
	// Indexes of positive tiles labeled exactly Subtype.
	PositiveTiles []int
	// Positive tiles labeled Subtype or any of its prefixes.
	AllPositive int
	// Negative tiles labeled with subtypes that are not prefixes of
	// Subtype.
	Negative int
	// Distinct reference positions of PositiveTiles, ascending.
	RefPositions []int
}

// Positive is the number of positive tiles labeled exactly Subtype.
func (sc *SubtypeCounts) Positive() int {
	return len(sc.PositiveTiles)
}

// Total is the number of tiles expected to match a sample of this
// subtype.
func (sc *SubtypeCounts) Total() int {
	return sc.AllPositive + sc.Negative
}

// Model is the compiled, read-only form of a scheme. It is safe for
// concurrent use once built.
type Model struct {
	Name    string
	Version string
	Tiles   []Tile

	byName   map[string]int
	counts   map[string]*SubtypeCounts
	subtypes []string
	variants int
}

func newModel(cfg Config, tiles []Tile) (*Model, error) {
	if len(tiles) == 0 {
		return nil, ErrEmptyTiles
	}
	m := &Model{
		Name:    cfg.Name,
		Version: cfg.Version,
		Tiles:   tiles,
		byName:  make(map[string]int, len(tiles)),
	}
	for i, t := range tiles {
		if _, dup := m.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tile %q", ErrMalformed, t.Name)
		}
		m.byName[t.Name] = i
	}

	// Gate on the expansion size before anything is materialized.
	for _, t := range tiles {
		m.variants += 2 * ExpansionSize(t.Seq, cfg.MaxDegenerateKmers)
		if m.variants > cfg.MaxDegenerateKmers {
			return nil, fmt.Errorf("%w: more than %d concrete tile variants (tile %s)", ErrBudgetExceeded, cfg.MaxDegenerateKmers, t.Name)
		}
	}

	warnTileLengths(cfg.Logger, tiles)
	m.countSubtypes()
	if len(m.subtypes) == 0 {
		return nil, fmt.Errorf("%w: no positive tiles", ErrEmptyTiles)
	}
	return m, nil
}

func (m *Model) countSubtypes() {
	positive := map[string][]int{}
	negative := map[string]int{}
	parsed := map[string]Subtype{}
	for i, t := range m.Tiles {
		label := t.Subtype.String()
		parsed[label] = t.Subtype
		if t.Positive {
			positive[label] = append(positive[label], i)
		} else {
			negative[label]++
		}
	}
	m.counts = make(map[string]*SubtypeCounts, len(positive))
	for label, idxs := range positive {
		st := parsed[label]
		sc := &SubtypeCounts{Subtype: st, PositiveTiles: idxs}
		for _, prefix := range st.Prefixes() {
			sc.AllPositive += len(positive[prefix.String()])
		}
		for neglabel, n := range negative {
			if !parsed[neglabel].IsPrefixOf(st) {
				sc.Negative += n
			}
		}
		seen := map[int]bool{}
		for _, idx := range idxs {
			if pos := m.Tiles[idx].RefPos; !seen[pos] {
				seen[pos] = true
				sc.RefPositions = append(sc.RefPositions, pos)
			}
		}
		sort.Ints(sc.RefPositions)
		m.counts[label] = sc
		m.subtypes = append(m.subtypes, label)
	}
	SortSubtypes(m.subtypes)
}

func warnTileLengths(logger logrus.FieldLogger, tiles []Tile) {
	hist := map[int]int{}
	for _, t := range tiles {
		hist[len(t.Seq)]++
	}
	modal := 0
	for l, n := range hist {
		if n > hist[modal] || (n == hist[modal] && l < modal) {
			modal = l
		}
	}
	for _, t := range tiles {
		if len(t.Seq) != modal {
			logger.Warnf("tile %s length %d differs from the modal tile length %d", t.Name, len(t.Seq), modal)
		}
	}
}

// Counts returns the expected counts for the given subtype label, or
// nil if no positive tile is labeled with it.
func (m *Model) Counts(label string) *SubtypeCounts {
	return m.counts[label]
}

// Subtypes returns all subtype labels with at least one positive tile,
// in numeric order.
func (m *Model) Subtypes() []string {
	return append([]string(nil), m.subtypes...)
}

// Children returns the scheme subtypes one level below label.
func (m *Model) Children(label string) []string {
	parent, err := ParseSubtype(label)
	if err != nil {
		return nil
	}
	var out []string
	for _, l := range m.subtypes {
		st := m.counts[l].Subtype
		if len(st) == len(parent)+1 && parent.IsPrefixOf(st) {
			out = append(out, l)
		}
	}
	return out
}

// TileIndex returns the index of the named tile.
func (m *Model) TileIndex(name string) (int, bool) {
	idx, ok := m.byName[name]
	return idx, ok
}

// Tile returns the tile at idx. An out-of-range index is a
// programming error.
func (m *Model) Tile(idx int) *Tile {
	if idx < 0 || idx >= len(m.Tiles) {
		panic(fmt.Sprintf("tile index %d outside scheme %s (%d tiles)", idx, m.Name, len(m.Tiles)))
	}
	return &m.Tiles[idx]
}

// Variants is the number of concrete tile sequences, counting reverse
// complements, the scheme expands to.
func (m *Model) Variants() int {
	return m.variants
}

// WriteFasta writes the tiles back out in scheme FASTA form.
func (m *Model) WriteFasta(w io.Writer) error {
	bufw := bufio.NewWriter(w)
	for _, t := range m.Tiles {
		if _, err := fmt.Fprintf(bufw, ">%s\n%s\n", t.Name, t.Seq); err != nil {
			return err
		}
	}
	return bufw.Flush()
}
