package scheme

import (
	"fmt"
	"strings"
)

// Concrete alternatives for each letter of the extended alphabet. X is
// an opaque masked base: it expands to itself and matches nothing.
var iupacAlternatives = [256]string{
	'A': "A",
	'C': "C",
	'G': "G",
	'T': "T",
	'R': "AG",
	'Y': "CT",
	'S': "CG",
	'W': "AT",
	'K': "GT",
	'M': "AC",
	'B': "CGT",
	'D': "AGT",
	'H': "ACT",
	'V': "ACG",
	'N': "ACGT",
	'X': "X",
}

var complement = [256]byte{
	'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C',
	'R': 'Y', 'Y': 'R',
	'S': 'S', 'W': 'W',
	'K': 'M', 'M': 'K',
	'B': 'V', 'V': 'B',
	'D': 'H', 'H': 'D',
	'N': 'N', 'X': 'X',
}

// IsIUPAC reports whether b is an upper-case letter of the extended
// IUPAC alphabet ACGTRYSWKMBDHVNX.
func IsIUPAC(b byte) bool {
	return iupacAlternatives[b] != ""
}

// Overlap reports whether IUPAC codes a and b, in either case, share
// a concrete nucleotide. Any other byte overlaps only itself.
func Overlap(a, b byte) bool {
	a, b = upper(a), upper(b)
	alts := iupacAlternatives[a]
	if alts == "" || alts == "X" || iupacAlternatives[b] == "" {
		return a == b
	}
	return strings.ContainsAny(alts, iupacAlternatives[b])
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// ExpansionSize returns the number of concrete sequences seq expands
// to. The product saturates at limit+1 so callers can gate on it
// without overflow; limit <= 0 disables saturation.
func ExpansionSize(seq string, limit int) int {
	n := 1
	for i := 0; i < len(seq); i++ {
		n *= len(iupacAlternatives[seq[i]])
		if limit > 0 && n > limit {
			return limit + 1
		}
	}
	return n
}

// ExpandIUPAC calls fn once for every concrete sequence seq expands
// to. The slice passed to fn is reused between calls.
func ExpandIUPAC(seq string, fn func([]byte)) error {
	alts := make([]string, len(seq))
	for i := 0; i < len(seq); i++ {
		alts[i] = iupacAlternatives[seq[i]]
		if alts[i] == "" {
			return fmt.Errorf("%w: invalid base %q in %q", ErrMalformed, seq[i], seq)
		}
	}
	idx := make([]int, len(seq))
	buf := make([]byte, len(seq))
	for i := range buf {
		buf[i] = alts[i][0]
	}
	for {
		fn(buf)
		// odometer increment, rightmost base first
		i := len(seq) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(alts[i]) {
				buf[i] = alts[i][idx[i]]
				break
			}
			idx[i] = 0
			buf[i] = alts[i][0]
		}
		if i < 0 {
			return nil
		}
	}
}

// ReverseComplement returns the reverse complement of an upper-case
// sequence over the extended alphabet.
func ReverseComplement(seq string) (string, error) {
	out := make([]byte, len(seq))
	if !reverseComplement(out, []byte(seq)) {
		return "", fmt.Errorf("%w: cannot reverse-complement %q", ErrMalformed, seq)
	}
	return string(out), nil
}

// reverseComplement writes the reverse complement of src into dst,
// which must have the same length. It returns false if src contains a
// letter outside the extended alphabet.
func reverseComplement(dst, src []byte) bool {
	n := len(src)
	for i := 0; i < n; i++ {
		c := complement[src[n-1-i]]
		if c == 0 {
			return false
		}
		dst[i] = c
	}
	return true
}
