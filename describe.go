package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"git.arvados.org/tiletyper.git/hgvs"
	"git.arvados.org/tiletyper.git/resolve"
	"git.arvados.org/tiletyper.git/scheme"
)

// describeScheme prints the expected tile counts of every subtype in
// a scheme, and the variants distinguishing each positive tile from
// the negative tiles at the same reference position.
type describeScheme struct{}

func (cmd *describeScheme) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	maxDegenerate := flags.Int("max-degenerate-kmers", resolve.DefaultParams().MaxDegenerateKmers, "maximum number of concrete tile sequences after IUPAC expansion")
	outputFilename := flags.String("o", "-", "output `file`")
	fastaFilename := flags.String("fasta", "", "also write the loaded tiles as scheme FASTA to `file`")
	snps := flags.Bool("snps", true, "list variants between positive and negative tiles")
	timeout := flags.Duration("timeout", 0, "per-pair diff timeout (examples: \"1s\", \"1ms\")")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() > 0 {
		err = fmt.Errorf("usage: %s [options]", prog)
		return 2
	}

	path, builtin, err := scheme.Resolve(*schemeArg, *schemeDir)
	if err != nil {
		return 1
	}
	cfg := scheme.Config{MaxDegenerateKmers: *maxDegenerate}
	if builtin != nil {
		cfg.Name, cfg.Version = builtin.Name, builtin.Version
	}
	model, err := scheme.LoadFile(path, cfg)
	if err != nil {
		return 1
	}

	err = writeTo(*outputFilename, stdout, func(w io.Writer) error {
		fmt.Fprintf(w, "# scheme %s version %s: %d tiles, %d concrete sequences\n", model.Name, model.Version, len(model.Tiles), model.Variants())
		fmt.Fprintln(w, "subtype\tn_tiles_matching_all_expected\tn_tiles_matching_positive_expected\tn_tiles_matching_subtype_expected\trefpositions")
		for _, label := range model.Subtypes() {
			sc := model.Counts(label)
			var pos []string
			for _, rp := range sc.RefPositions {
				pos = append(pos, fmt.Sprint(rp))
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", label, sc.Total(), sc.AllPositive, sc.Positive(), strings.Join(pos, ","))
		}
		if !*snps {
			return nil
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "refposition\tpositive_tile\tnegative_tile\tvariants")
		for _, pair := range hgvs.TilePairs(model, *timeout) {
			var vars []string
			for _, v := range pair.Variants {
				vars = append(vars, v.String())
			}
			if pair.TimedOut {
				vars = append(vars, "(timed out)")
			}
			_, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", pair.RefPos, pair.Positive.Name, pair.Negative.Name, strings.Join(vars, ","))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 1
	}
	if *fastaFilename != "" {
		err = writeTo(*fastaFilename, stdout, model.WriteFasta)
		if err != nil {
			return 1
		}
	}
	return 0
}
