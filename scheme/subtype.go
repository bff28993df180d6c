package scheme

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Subtype is a node in a hierarchical lineage tree, e.g. 2.1.1.2.
// The dotted string is only its I/O form.
type Subtype []int

var subtypeRe = regexp.MustCompile(`^\d+(\.\d+)*$`)

// ParseSubtype parses a dotted-integer subtype label.
func ParseSubtype(s string) (Subtype, error) {
	if !subtypeRe.MatchString(s) {
		return nil, fmt.Errorf("%w: invalid subtype %q", ErrMalformed, s)
	}
	parts := strings.Split(s, ".")
	st := make(Subtype, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid subtype %q: %s", ErrMalformed, s, err)
		}
		st[i] = n
	}
	return st, nil
}

// MustParseSubtype is like ParseSubtype but panics on error.
func MustParseSubtype(s string) Subtype {
	st, err := ParseSubtype(s)
	if err != nil {
		panic(err)
	}
	return st
}

func (st Subtype) String() string {
	parts := make([]string, len(st))
	for i, n := range st {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Depth is the number of dots in the dotted form, so 1.1.1 is deeper
// than 1.1.
func (st Subtype) Depth() int {
	return len(st) - 1
}

// IsPrefixOf reports whether st is an ancestor of (or equal to) other.
func (st Subtype) IsPrefixOf(other Subtype) bool {
	if len(st) > len(other) {
		return false
	}
	for i := range st {
		if st[i] != other[i] {
			return false
		}
	}
	return true
}

// Consistent reports whether one of st, other is a prefix of the
// other.
func (st Subtype) Consistent(other Subtype) bool {
	n := len(st)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if st[i] != other[i] {
			return false
		}
	}
	return true
}

// Compare orders subtypes numerically, position by position; a prefix
// sorts before its descendants.
func (st Subtype) Compare(other Subtype) int {
	for i := 0; i < len(st) && i < len(other); i++ {
		switch {
		case st[i] < other[i]:
			return -1
		case st[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(st) < len(other):
		return -1
	case len(st) > len(other):
		return 1
	}
	return 0
}

// Prefixes returns every ancestor of st, shortest first, ending with
// st itself.
func (st Subtype) Prefixes() []Subtype {
	out := make([]Subtype, len(st))
	for i := range st {
		out[i] = st[:i+1]
	}
	return out
}

// SortSubtypes sorts dotted subtype labels in numeric order.
func SortSubtypes(labels []string) {
	sortLabels(labels, false)
}

// SortSubtypesByDepth sorts dotted subtype labels by depth, then in
// numeric order.
func SortSubtypesByDepth(labels []string) {
	sortLabels(labels, true)
}

func sortLabels(labels []string, byDepth bool) {
	parsed := make(map[string]Subtype, len(labels))
	for _, l := range labels {
		parsed[l] = MustParseSubtype(l)
	}
	sort.SliceStable(labels, func(i, j int) bool {
		a, b := parsed[labels[i]], parsed[labels[j]]
		if byDepth && len(a) != len(b) {
			return len(a) < len(b)
		}
		return a.Compare(b) < 0
	})
}
