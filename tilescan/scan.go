package tilescan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"git.arvados.org/tiletyper.git/scheme"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound         = errors.New("input not found")
	ErrUnreadableFormat = errors.New("unreadable input")
	ErrTruncatedRecord  = errors.New("truncated record")
)

// openSeqs opens a FASTA/FASTQ file, decompressing it if needed. "-"
// is stdin.
func openSeqs(path string) (*fastx.Reader, error) {
	if path != "-" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		} else if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnreadableFormat, err)
		}
	}
	rdr, err := fastx.NewReader(seq.Unlimit, path, fastx.DefaultIDRegexp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrUnreadableFormat, path, err)
	}
	return rdr, nil
}

func readerFromIO(label string, r io.Reader) (*fastx.Reader, error) {
	rdr, err := fastx.NewReaderFromIO(seq.Unlimit, r, fastx.DefaultIDRegexp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrUnreadableFormat, label, err)
	}
	return rdr, nil
}

// ScanFasta scans every contig of a FASTA file and returns one row per
// tile occurrence.
func (m *Matcher) ScanFasta(ctx context.Context, path string) (*FastaHits, error) {
	rdr, err := openSeqs(path)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return m.scanFasta(ctx, path, rdr)
}

// ScanFastaReader is like ScanFasta but reads from r. label identifies
// the input in log messages.
func (m *Matcher) ScanFastaReader(ctx context.Context, label string, r io.Reader) (*FastaHits, error) {
	rdr, err := readerFromIO(label, r)
	if err != nil {
		return nil, err
	}
	return m.scanFasta(ctx, label, rdr)
}

func (m *Matcher) scanFasta(ctx context.Context, label string, rdr *fastx.Reader) (*FastaHits, error) {
	hits := &FastaHits{}
	var buf []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrUnreadableFormat, label, err)
		}
		contig := string(rec.ID)
		buf = append(buf[:0], rec.Seq.Seq...)
		if bad := foldUpper(buf); bad > 0 {
			m.Logger.WithFields(logrus.Fields{
				"input":  label,
				"record": contig,
			}).Warnf("ignoring %d non-nucleotide characters", bad)
			hits.NonNucleotide += bad
		}
		hits.Records++
		hits.Bases += int64(len(buf))
		m.scan(buf, func(pid int32, end int) {
			pat := m.patterns[pid]
			start := end - len(pat) + 1
			for _, l := range m.labels[pid] {
				hits.add(int(l.tile), pat, l.revcomp, contig, start)
			}
		})
	}
	return hits, nil
}

// ScanFastq scans the reads of one sample, possibly split over several
// files (e.g. paired ends), and returns per-tile frequencies.
func (m *Matcher) ScanFastq(ctx context.Context, paths ...string) (*FastqHits, error) {
	counts := make([]int, len(m.patterns))
	var stats Stats
	for _, path := range paths {
		rdr, err := openSeqs(path)
		if err != nil {
			return nil, err
		}
		err = m.countFastq(ctx, path, rdr, counts, &stats)
		rdr.Close()
		if err != nil {
			return nil, err
		}
	}
	return m.collapse(counts, stats), nil
}

// ScanFastqReaders is like ScanFastq but reads from the given streams.
func (m *Matcher) ScanFastqReaders(ctx context.Context, label string, rs ...io.Reader) (*FastqHits, error) {
	counts := make([]int, len(m.patterns))
	var stats Stats
	for _, r := range rs {
		rdr, err := readerFromIO(label, r)
		if err != nil {
			return nil, err
		}
		if err := m.countFastq(ctx, label, rdr, counts, &stats); err != nil {
			return nil, err
		}
	}
	return m.collapse(counts, stats), nil
}

func (m *Matcher) countFastq(ctx context.Context, label string, rdr *fastx.Reader, counts []int, stats *Stats) error {
	var buf []byte
	bad := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%w: %s: record %d: %s", ErrTruncatedRecord, label, stats.Records+1, err)
		}
		buf = append(buf[:0], rec.Seq.Seq...)
		bad += foldUpper(buf)
		stats.Records++
		stats.Bases += int64(len(buf))
		m.scan(buf, func(pid int32, end int) {
			counts[pid]++
		})
	}
	if bad > 0 {
		m.Logger.WithField("input", label).Warnf("ignoring %d non-nucleotide characters", bad)
		stats.NonNucleotide += bad
	}
	return nil
}

// collapse folds pattern counts onto (tile, forward sequence) rows, so
// both orientations of a k-mer count toward the same row.
func (m *Matcher) collapse(counts []int, stats Stats) *FastqHits {
	type key struct {
		tile int
		seq  string
	}
	freq := map[key]int{}
	for pid, n := range counts {
		if n == 0 {
			continue
		}
		pat := m.patterns[pid]
		for _, l := range m.labels[pid] {
			fwd := pat
			if l.revcomp {
				buf := make([]byte, len(pat))
				revcomp(buf, []byte(pat))
				fwd = string(buf)
			}
			freq[key{int(l.tile), fwd}] += n
		}
	}
	keys := make([]key, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].tile != keys[j].tile {
			return keys[i].tile < keys[j].tile
		}
		return keys[i].seq < keys[j].seq
	})
	hits := &FastqHits{Stats: stats}
	for _, k := range keys {
		hits.Tiles = append(hits.Tiles, k.tile)
		hits.Seqs = append(hits.Seqs, k.seq)
		hits.Freqs = append(hits.Freqs, freq[k])
	}
	return hits
}

// foldUpper upper-cases buf in place and returns the number of
// characters outside the IUPAC alphabet.
func foldUpper(buf []byte) int {
	bad := 0
	for i, b := range buf {
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
			buf[i] = b
		}
		if !scheme.IsIUPAC(b) || b == 'X' {
			bad++
		}
	}
	return bad
}
