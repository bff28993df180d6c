package resolve

import (
	"git.arvados.org/tiletyper.git/scheme"
	"git.arvados.org/tiletyper.git/tilescan"
)

// Row is a hit table row enriched with its tile's scheme labels.
type Row struct {
	Tile      *scheme.Tile
	Subtype   string
	Sequence  string
	Frequency int
	// Frequency within [MinFreq, MaxFreq]. Always true for FASTA.
	InBand bool
}

// Evidence is an enriched hit table together with the scheme and
// thresholds it is judged against.
type Evidence struct {
	Model  *scheme.Model
	Params Params
	Fastq  bool
	Rows   []Row
}

// Enrich attaches reference position, subtype, polarity and (for
// FASTQ) the frequency band to every row of table.
func Enrich(model *scheme.Model, table tilescan.HitTable, params Params) *Evidence {
	ev := &Evidence{
		Model:  model,
		Params: params,
		Fastq:  table.IsFastq(),
		Rows:   make([]Row, table.Len()),
	}
	for i := range ev.Rows {
		tile := model.Tile(table.Tile(i))
		freq := table.Frequency(i)
		ev.Rows[i] = Row{
			Tile:      tile,
			Subtype:   tile.Subtype.String(),
			Sequence:  table.Sequence(i),
			Frequency: freq,
			InBand:    !ev.Fastq || (freq >= params.MinFreq && freq <= params.MaxFreq),
		}
	}
	return ev
}

// Usable returns the rows that count as observations: every FASTA row,
// and in-band FASTQ rows.
func (ev *Evidence) Usable() []Row {
	var out []Row
	for _, r := range ev.Rows {
		if r.InBand {
			out = append(out, r)
		}
	}
	return out
}

// Positive returns usable rows of positive tiles.
func (ev *Evidence) Positive() []Row {
	var out []Row
	for _, r := range ev.Rows {
		if r.InBand && r.Tile.Positive {
			out = append(out, r)
		}
	}
	return out
}

// Negative returns usable rows of negative tiles.
func (ev *Evidence) Negative() []Row {
	var out []Row
	for _, r := range ev.Rows {
		if r.InBand && !r.Tile.Positive {
			out = append(out, r)
		}
	}
	return out
}

// ObservedPositions returns the reference positions with at least one
// usable positive or negative row.
func (ev *Evidence) ObservedPositions() map[int]bool {
	seen := map[int]bool{}
	for _, r := range ev.Rows {
		if r.InBand {
			seen[r.Tile.RefPos] = true
		}
	}
	return seen
}

// DistinctTiles counts distinct tiles among rows.
func DistinctTiles(rows []Row) int {
	seen := map[string]bool{}
	for _, r := range rows {
		seen[r.Tile.Name] = true
	}
	return len(seen)
}

// MeanFrequency is the mean frequency over rows, or 0 if rows is
// empty.
func MeanFrequency(rows []Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	total := 0
	for _, r := range rows {
		total += r.Frequency
	}
	return float64(total) / float64(len(rows))
}
