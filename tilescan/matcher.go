package tilescan

import (
	"git.arvados.org/tiletyper.git/scheme"
	"github.com/sirupsen/logrus"
)

// label ties an automaton pattern back to the tile it was expanded
// from.
type label struct {
	tile    int32
	revcomp bool
}

// Matcher is an Aho-Corasick automaton over every concrete variant
// (forward and reverse complement) of a scheme's tiles. The goto
// function is fully resolved at build time, so scanning never follows
// failure links. A Matcher is read-only after NewMatcher returns and
// can be shared by concurrent scans.
type Matcher struct {
	Model  *scheme.Model
	Logger logrus.FieldLogger

	delta    [][4]int32 // state × base → state
	terminal []int32    // state → pattern id ending here, or -1
	dict     []int32    // state → nearest terminal state on the failure chain, or -1

	patterns []string  // pattern id → concrete sequence
	labels   [][]label // pattern id → tiles carrying this sequence
}

var baseCode = func() [256]int8 {
	var r [256]int8
	for i := range r {
		r[i] = -1
	}
	for i, b := range []byte("ACGT") {
		r[b] = int8(i)
		r[b+'a'-'A'] = int8(i)
	}
	return r
}()

// NewMatcher expands every tile of model and builds the automaton.
func NewMatcher(model *scheme.Model, logger logrus.FieldLogger) (*Matcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := &Matcher{
		Model:  model,
		Logger: logger,
	}
	m.newState()
	rc := make([]byte, 0, 64)
	for i, t := range model.Tiles {
		tile := int32(i)
		// a tile may expand to the same string twice (palindromes,
		// or a variant equal to another's reverse complement); keep
		// only the first orientation for each string
		seen := map[string]bool{}
		err := scheme.ExpandIUPAC(t.Seq, func(variant []byte) {
			if !isACGT(variant) {
				// masked bases match nothing
				return
			}
			if !seen[string(variant)] {
				seen[string(variant)] = true
				m.insert(variant, label{tile: tile})
			}
			rc = append(rc[:0], variant...)
			revcomp(rc, variant)
			if !seen[string(rc)] {
				seen[string(rc)] = true
				m.insert(rc, label{tile: tile, revcomp: true})
			}
		})
		if err != nil {
			return nil, err
		}
	}
	m.link()
	logger.Debugf("scheme %s: automaton built with %d patterns, %d states", model.Name, len(m.patterns), len(m.delta))
	return m, nil
}

func (m *Matcher) newState() int32 {
	m.delta = append(m.delta, [4]int32{-1, -1, -1, -1})
	m.terminal = append(m.terminal, -1)
	m.dict = append(m.dict, -1)
	return int32(len(m.delta) - 1)
}

func (m *Matcher) insert(pattern []byte, l label) {
	cur := int32(0)
	for _, b := range pattern {
		c := baseCode[b]
		if m.delta[cur][c] < 0 {
			next := m.newState()
			m.delta[cur][c] = next
		}
		cur = m.delta[cur][c]
	}
	if m.terminal[cur] < 0 {
		m.terminal[cur] = int32(len(m.patterns))
		m.patterns = append(m.patterns, string(pattern))
		m.labels = append(m.labels, nil)
	}
	pid := m.terminal[cur]
	m.labels[pid] = append(m.labels[pid], l)
}

// link computes failure links breadth-first, folds them into the goto
// table and derives dictionary links. The failure links themselves
// are discarded.
func (m *Matcher) link() {
	fail := make([]int32, len(m.delta))
	queue := make([]int32, 0, len(m.delta))
	for c := 0; c < 4; c++ {
		if child := m.delta[0][c]; child < 0 {
			m.delta[0][c] = 0
		} else {
			fail[child] = 0
			queue = append(queue, child)
		}
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for c := 0; c < 4; c++ {
			u := m.delta[s][c]
			if u < 0 {
				m.delta[s][c] = m.delta[fail[s]][c]
				continue
			}
			f := m.delta[fail[s]][c]
			fail[u] = f
			if m.terminal[f] >= 0 {
				m.dict[u] = f
			} else {
				m.dict[u] = m.dict[f]
			}
			queue = append(queue, u)
		}
	}
}

// scan runs the automaton over seq, calling fn with the pattern id and
// the index of its last base for every occurrence. Bases other than
// ACGT reset the automaton.
func (m *Matcher) scan(seq []byte, fn func(pid int32, end int)) {
	state := int32(0)
	for i, b := range seq {
		c := baseCode[b]
		if c < 0 {
			state = 0
			continue
		}
		state = m.delta[state][c]
		if pid := m.terminal[state]; pid >= 0 {
			fn(pid, i)
		}
		for s := m.dict[state]; s >= 0; s = m.dict[s] {
			fn(m.terminal[s], i)
		}
	}
}

// Patterns is the number of distinct concrete sequences in the
// automaton.
func (m *Matcher) Patterns() int {
	return len(m.patterns)
}

func isACGT(seq []byte) bool {
	for _, b := range seq {
		if baseCode[b] < 0 {
			return false
		}
	}
	return true
}

// revcomp writes the reverse complement of an ACGT sequence into dst.
func revcomp(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		switch src[n-1-i] {
		case 'A':
			dst[i] = 'T'
		case 'C':
			dst[i] = 'G'
		case 'G':
			dst[i] = 'C'
		case 'T':
			dst[i] = 'A'
		}
	}
}
