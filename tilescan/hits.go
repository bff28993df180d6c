package tilescan

// HitTable is the per-sample result of a scan. Rows refer to tiles by
// their index in the scheme model.
type HitTable interface {
	Len() int
	Tile(row int) int
	Sequence(row int) string
	// Frequency is 1 for every FASTA row.
	Frequency(row int) int
	IsFastq() bool
}

// Stats summarizes the scanned input.
type Stats struct {
	Records int
	Bases   int64
	// Characters outside the IUPAC alphabet. They are never reported
	// as hits.
	NonNucleotide int
}

// FastaHits holds one row per tile occurrence, in scan order (contig
// order, then match position).
type FastaHits struct {
	Tiles   []int
	Seqs    []string // matched sequence, as it appears in the contig
	Revcomp []bool
	Contigs []string
	Index   []int // 0-based start of the match in the contig
	Stats
}

func (h *FastaHits) Len() int                { return len(h.Tiles) }
func (h *FastaHits) Tile(row int) int        { return h.Tiles[row] }
func (h *FastaHits) Sequence(row int) string { return h.Seqs[row] }
func (h *FastaHits) Frequency(row int) int   { return 1 }
func (h *FastaHits) IsFastq() bool           { return false }

func (h *FastaHits) add(tile int, seq string, revcomp bool, contig string, index int) {
	h.Tiles = append(h.Tiles, tile)
	h.Seqs = append(h.Seqs, seq)
	h.Revcomp = append(h.Revcomp, revcomp)
	h.Contigs = append(h.Contigs, contig)
	h.Index = append(h.Index, index)
}

// FastqHits holds one row per (tile, canonical sequence) with the
// number of times it was seen in either orientation.
type FastqHits struct {
	Tiles []int
	Seqs  []string // forward-orientation tile variant
	Freqs []int
	Stats
}

func (h *FastqHits) Len() int                { return len(h.Tiles) }
func (h *FastqHits) Tile(row int) int        { return h.Tiles[row] }
func (h *FastqHits) Sequence(row int) string { return h.Seqs[row] }
func (h *FastqHits) Frequency(row int) int   { return h.Freqs[row] }
func (h *FastqHits) IsFastq() bool           { return true }
