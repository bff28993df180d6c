package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"git.arvados.org/tiletyper.git/scheme"
	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

// exportNumpy writes a sample × tile matrix of hit counts (FASTA
// occurrences or FASTQ k-mer frequencies, saturating at 65535) in
// .npy format.
type exportNumpy struct{}

func (cmd *exportNumpy) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	schemeArg := flags.String("scheme", "heidelberg", "built-in scheme `name` or scheme FASTA `file`")
	schemeDir := flags.String("scheme-dir", defaultSchemeDir(), "`dir`ectory holding built-in scheme files")
	configFile := flags.String("config", "", "subtyping parameters `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	labelsFilename := flags.String("labels", "", "write column labels (one tile per line) to `file`")
	samplesFilename := flags.String("samples", "", "write row labels (one sample per line) to `file`")
	inBandOnly := flags.Bool("in-band", false, "count only FASTQ tiles whose frequency is within [min-freq, max-freq]")
	threads := flags.Int("threads", 1, "number of samples to process concurrently")
	var pairs pairFlag
	flags.Var(&pairs, "paired", "paired-end reads `R1,R2` of one sample (may be repeated)")
	paramFlags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() == 0 && len(pairs) == 0 {
		fmt.Fprintf(stderr, "usage: %s [options] {file.fasta|reads.fastq|dir}...\n", prog)
		return 2
	} else if *threads < 1 {
		err = fmt.Errorf("invalid -threads %d", *threads)
		return 2
	}

	schemePath, builtin, err := scheme.Resolve(*schemeArg, *schemeDir)
	if err != nil {
		return 1
	}
	params, err := loadParams(builtin, *configFile, flags)
	if err != nil {
		return 2
	}
	matcher, err := loadMatcher(schemePath, builtin, params)
	if err != nil {
		return 1
	}
	samples, err := listSamples(flags.Args(), pairs)
	if err != nil {
		return 1
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	reports, err := runBatch(ctx, matcher, params, samples, *threads)
	if err != nil {
		return 1
	}

	model := matcher.Model
	rows, cols := len(reports), len(model.Tiles)
	out := make([]uint16, rows*cols)
	for row, rpt := range reports {
		if rpt.Evidence == nil {
			log.WithField("sample", rpt.Name).Warnf("no hits exported: %s", rpt.Result.QCMessage)
			continue
		}
		for _, r := range rpt.Evidence.Rows {
			if *inBandOnly && !r.InBand {
				continue
			}
			idx, _ := model.TileIndex(r.Tile.Name)
			cell := &out[row*cols+idx]
			if sum := int(*cell) + r.Frequency; sum > 65535 {
				*cell = 65535
			} else {
				*cell = uint16(sum)
			}
		}
	}

	err = writeTo(*outputFilename, stdout, func(w io.Writer) error {
		npw, err := gonpy.NewWriter(nopCloser{w})
		if err != nil {
			return err
		}
		npw.Shape = []int{rows, cols}
		return npw.WriteUint16(out)
	})
	if err != nil {
		return 1
	}
	if *labelsFilename != "" {
		err = writeTo(*labelsFilename, stdout, func(w io.Writer) error {
			for i, t := range model.Tiles {
				_, err := fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", i, t.Name, t.RefPos, t.Subtype, strconv.FormatBool(t.Positive))
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return 1
		}
	}
	if *samplesFilename != "" {
		err = writeTo(*samplesFilename, stdout, func(w io.Writer) error {
			for i, rpt := range reports {
				_, err := fmt.Fprintf(w, "%d\t%s\t%s\n", i, rpt.Name, strings.Join(rpt.Paths, ","))
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return 1
		}
	}
	return 0
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
