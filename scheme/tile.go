package scheme

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Tile is a named signature sequence. Its presence (Positive) or
// absence (negative tile present) reports a subtype.
type Tile struct {
	Name     string
	RefPos   int
	Subtype  Subtype
	Positive bool
	// Canonical sequence, upper-case, over ACGTRYSWKMBDHVNX.
	Seq string
}

var tileNameRe = regexp.MustCompile(`^(negative)?(\d+)-(\d+(\.\d+)*)$`)

// ParseTileName splits a header of the form <refpos>-<subtype> or
// negative<refpos>-<subtype>.
func ParseTileName(name string) (refpos int, st Subtype, positive bool, err error) {
	m := tileNameRe.FindStringSubmatch(name)
	if m == nil {
		err = fmt.Errorf("%w: bad tile header %q", ErrMalformed, name)
		return
	}
	dash := strings.LastIndexByte(name, '-')
	token := name[:dash]
	positive = !strings.HasPrefix(token, "negative")
	refpos, err = strconv.Atoi(strings.TrimPrefix(token, "negative"))
	if err != nil {
		err = fmt.Errorf("%w: bad reference position in %q: %s", ErrMalformed, name, err)
		return
	}
	st, err = ParseSubtype(name[dash+1:])
	return
}
