package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"git.arvados.org/tiletyper.git/resolve"
	"git.arvados.org/tiletyper.git/tilescan"
	"github.com/shenwei356/xopen"
)

var summaryColumns = []string{
	"sample", "scheme", "scheme_version", "subtype", "all_subtypes",
	"tiles_matching_subtype", "are_subtypes_consistent", "inconsistent_subtypes",
	"n_tiles_matching_all", "n_tiles_matching_all_expected",
	"n_tiles_matching_positive", "n_tiles_matching_positive_expected",
	"n_tiles_matching_subtype", "n_tiles_matching_subtype_expected",
	"file_path", "avg_tile_coverage", "qc_status", "qc_message",
}

// writeTo calls fn with a writer for path: stdout if path is "-",
// otherwise a file, gzip-compressed if path ends in .gz.
func writeTo(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "-" {
		bufw := bufio.NewWriter(stdout)
		if err := fn(bufw); err != nil {
			return err
		}
		return bufw.Flush()
	}
	w, err := xopen.Wopen(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := fn(w); err != nil {
		w.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func summaryRow(res *resolve.Result) []string {
	coverage := ""
	if res.Fastq {
		coverage = strconv.FormatFloat(res.AvgTileCoverage, 'f', 3, 64)
	}
	return []string{
		res.Sample,
		res.Scheme,
		res.SchemeVersion,
		res.Subtype,
		res.AllSubtypes,
		res.TilesMatchingSubtype,
		strconv.FormatBool(res.Consistent),
		strings.Join(res.InconsistentSubtypes, "; "),
		strconv.Itoa(res.NAllMatching),
		resolve.JoinCounts(res.NAllExpected),
		strconv.Itoa(res.NPositiveMatching),
		resolve.JoinCounts(res.NPositiveExpected),
		strconv.Itoa(res.NSubtypeMatching),
		resolve.JoinCounts(res.NSubtypeExpected),
		res.FilePath,
		coverage,
		res.QCStatus,
		res.QCMessage,
	}
}

func writeSummary(w io.Writer, reports []*report) error {
	if _, err := fmt.Fprintln(w, strings.Join(summaryColumns, "\t")); err != nil {
		return err
	}
	for _, rpt := range reports {
		if _, err := fmt.Fprintln(w, strings.Join(summaryRow(rpt.Result), "\t")); err != nil {
			return err
		}
	}
	return nil
}

// writeHits writes one row per hit. FASTA and FASTQ samples have
// different trailing columns; a batch with both gets all of them.
func writeHits(w io.Writer, reports []*report) error {
	var hasFasta, hasFastq bool
	for _, rpt := range reports {
		if rpt.Evidence == nil {
			continue
		}
		if rpt.Evidence.Fastq {
			hasFastq = true
		} else {
			hasFasta = true
		}
	}
	cols := []string{"sample", "tile_name", "refposition", "subtype", "is_pos_tile", "seq"}
	if hasFastq {
		cols = append(cols, "freq", "is_freq_in_band")
	}
	if hasFasta {
		cols = append(cols, "is_revcomp", "contig_id", "match_index")
	}
	if _, err := fmt.Fprintln(w, strings.Join(cols, "\t")); err != nil {
		return err
	}
	for _, rpt := range reports {
		if rpt.Evidence == nil {
			continue
		}
		fasta, _ := rpt.Hits.(*tilescan.FastaHits)
		for i, row := range rpt.Evidence.Rows {
			rec := []string{
				rpt.Name,
				row.Tile.Name,
				strconv.Itoa(row.Tile.RefPos),
				row.Subtype,
				strconv.FormatBool(row.Tile.Positive),
				row.Sequence,
			}
			if hasFastq {
				if fasta == nil {
					rec = append(rec, strconv.Itoa(row.Frequency), strconv.FormatBool(row.InBand))
				} else {
					rec = append(rec, "", "")
				}
			}
			if hasFasta {
				if fasta != nil {
					rec = append(rec, strconv.FormatBool(fasta.Revcomp[i]), fasta.Contigs[i], strconv.Itoa(fasta.Index[i]))
				} else {
					rec = append(rec, "", "", "")
				}
			}
			if _, err := fmt.Fprintln(w, strings.Join(rec, "\t")); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w io.Writer, reports []*report) error {
	results := make([]*resolve.Result, len(reports))
	for i, rpt := range reports {
		results[i] = rpt.Result
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
