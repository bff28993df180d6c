package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"git.arvados.org/tiletyper.git/tilescan"
)

// sample is one unit of work: a FASTA assembly, or the FASTQ file(s)
// of one read set.
type sample struct {
	Name  string
	Paths []string
	Fastq bool
	// Err is set when the input cannot be scanned at all; the sample
	// still gets a (failed) result row.
	Err error
}

var (
	fastaSuffixes = []string{".fasta", ".fas", ".fna", ".fa"}
	fastqSuffixes = []string{".fastqsanger", ".fastq", ".fq"}
	pairedNameRe  = regexp.MustCompile(`^(.+?)_R?([12])(_001)?$`)
)

// seqFormat classifies a file name by its extension, ignoring a
// trailing .gz. base is the name with both extensions removed.
func seqFormat(path string) (base string, fastq, ok bool) {
	name := strings.TrimSuffix(filepath.Base(path), ".gz")
	for _, sfx := range fastaSuffixes {
		if strings.HasSuffix(name, sfx) {
			return strings.TrimSuffix(name, sfx), false, true
		}
	}
	for _, sfx := range fastqSuffixes {
		if strings.HasSuffix(name, sfx) {
			return strings.TrimSuffix(name, sfx), true, true
		}
	}
	return name, false, false
}

// listSamples expands directories (non-recursively) into the sequence
// files they contain, then groups FASTQ files named <name>_R1/<name>_R2
// (or _1/_2) into a single sample. Explicit pairs come first.
func listSamples(paths []string, pairs [][2]string) ([]sample, error) {
	var samples []sample
	for _, pair := range pairs {
		name := commonSampleName(pair[0], pair[1])
		samples = append(samples, sample{Name: name, Paths: []string{pair[0], pair[1]}, Fastq: true})
	}

	var files []string
	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil || !fi.IsDir() {
			// Missing files are reported per sample by the scanner.
			files = append(files, path)
			continue
		}
		d, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: open failed: %s", path, err)
		}
		names, err := d.Readdirnames(0)
		d.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: readdir failed: %s", path, err)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, _, ok := seqFormat(name); ok {
				files = append(files, filepath.Join(path, name))
			}
		}
	}

	type mate struct {
		idx  int // position in samples
		read string
	}
	mates := map[string]mate{}
	for _, file := range files {
		base, fastq, ok := seqFormat(file)
		if !ok {
			samples = append(samples, sample{
				Name:  base,
				Paths: []string{file},
				Err:   fmt.Errorf("%w: %s: unrecognized file extension (expected one of %s)", tilescan.ErrUnreadableFormat, file, strings.Join(append(append([]string(nil), fastaSuffixes...), fastqSuffixes...), " ")),
			})
			continue
		}
		if !fastq {
			samples = append(samples, sample{Name: base, Paths: []string{file}})
			continue
		}
		m := pairedNameRe.FindStringSubmatch(base)
		if m == nil {
			samples = append(samples, sample{Name: base, Paths: []string{file}, Fastq: true})
			continue
		}
		key := filepath.Join(filepath.Dir(file), m[1])
		if prev, ok := mates[key]; ok && prev.read != m[2] {
			s := &samples[prev.idx]
			s.Name = m[1]
			if m[2] == "1" {
				s.Paths = []string{file, s.Paths[0]}
			} else {
				s.Paths = append(s.Paths, file)
			}
			delete(mates, key)
			continue
		}
		mates[key] = mate{idx: len(samples), read: m[2]}
		samples = append(samples, sample{Name: base, Paths: []string{file}, Fastq: true})
	}
	return samples, nil
}

// commonSampleName names a read pair after the longest common prefix
// of the two file names, without trailing separators.
func commonSampleName(r1, r2 string) string {
	a, _, _ := seqFormat(r1)
	b, _, _ := seqFormat(r2)
	if m := pairedNameRe.FindStringSubmatch(a); m != nil {
		return m[1]
	}
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	name := strings.TrimRight(a[:n], "_.-")
	if name == "" {
		return a
	}
	return name
}

// pairFlag collects -paired R1,R2 arguments.
type pairFlag [][2]string

func (pf *pairFlag) String() string {
	var s []string
	for _, p := range *pf {
		s = append(s, p[0]+","+p[1])
	}
	return strings.Join(s, " ")
}

func (pf *pairFlag) Set(v string) error {
	parts := strings.Split(v, ",")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("expected R1,R2 file pair, got %q", v)
	}
	*pf = append(*pf, [2]string{parts[0], parts[1]})
	return nil
}
