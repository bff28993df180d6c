package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"git.arvados.org/arvados.git/sdk/go/arvados"
	"git.arvados.org/tiletyper.git/qc"
	"git.arvados.org/tiletyper.git/resolve"
	"git.arvados.org/tiletyper.git/scheme"
	"git.arvados.org/tiletyper.git/tilescan"
	log "github.com/sirupsen/logrus"
)

type subtyper struct {
	schemeArg   string
	schemeDir   string
	configFile  string
	outputFile  string
	tilesFile   string
	jsonFile    string
	projectUUID string
	threads     int
	pairs       pairFlag
}

func (cmd *subtyper) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [options] {file.fasta|reads.fastq|dir}...\n", prog)
		flags.PrintDefaults()
	}
	flags.StringVar(&cmd.schemeArg, "scheme", "heidelberg", "built-in scheme `name` ("+strings.Join(scheme.BuiltinNames(), ", ")+") or scheme FASTA `file`")
	flags.StringVar(&cmd.schemeDir, "scheme-dir", defaultSchemeDir(), "`dir`ectory holding built-in scheme files")
	flags.StringVar(&cmd.configFile, "config", "", "subtyping parameters `file` (yaml, json or toml)")
	flags.StringVar(&cmd.outputFile, "o", "-", "summary table output `file`")
	flags.StringVar(&cmd.tilesFile, "tiles", "", "write per-hit table to `file`")
	flags.StringVar(&cmd.jsonFile, "json", "", "write results as JSON to `file`")
	flags.StringVar(&cmd.projectUUID, "project", "", "run in an arvados container, saving output to project `UUID`")
	flags.IntVar(&cmd.threads, "threads", 1, "number of samples to process concurrently")
	flags.Var(&cmd.pairs, "paired", "paired-end reads `R1,R2` of one sample (may be repeated)")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error)")
	priority := flags.Int("priority", 500, "container request priority")
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	paramFlags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() == 0 && len(cmd.pairs) == 0 {
		flags.Usage()
		return 2
	} else if cmd.threads < 1 {
		err = fmt.Errorf("invalid -threads %d", cmd.threads)
		return 2
	}
	lvl, err := log.ParseLevel(*loglevel)
	if err != nil {
		return 2
	}
	log.SetLevel(lvl)

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	if cmd.projectUUID != "" {
		var output string
		output, err = cmd.runInContainer(flags, *priority)
		if err != nil {
			return 1
		}
		fmt.Fprintln(stdout, output)
		return 0
	}

	schemePath, builtin, err := scheme.Resolve(cmd.schemeArg, cmd.schemeDir)
	if err != nil {
		return 1
	}
	params, err := loadParams(builtin, cmd.configFile, flags)
	if err != nil {
		return 2
	}
	matcher, err := loadMatcher(schemePath, builtin, params)
	if err != nil {
		return 1
	}
	samples, err := listSamples(flags.Args(), cmd.pairs)
	if err != nil {
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	reports, err := runBatch(ctx, matcher, params, samples, cmd.threads)
	if err != nil {
		return 1
	}

	err = writeTo(cmd.outputFile, stdout, func(w io.Writer) error { return writeSummary(w, reports) })
	if err != nil {
		return 1
	}
	if cmd.tilesFile != "" {
		err = writeTo(cmd.tilesFile, stdout, func(w io.Writer) error { return writeHits(w, reports) })
		if err != nil {
			return 1
		}
	}
	if cmd.jsonFile != "" {
		err = writeTo(cmd.jsonFile, stdout, func(w io.Writer) error { return writeJSON(w, reports) })
		if err != nil {
			return 1
		}
	}
	return 0
}

// runInContainer resubmits this command, with inputs translated to
// collection mounts, as an arvados container request.
func (cmd *subtyper) runInContainer(flags *flag.FlagSet, priority int) (string, error) {
	runner, err := cmd.containerRunner(flags, priority)
	if err != nil {
		return "", err
	}
	runner.Client = arvados.NewClientFromEnv()
	return runner.Run()
}

func (cmd *subtyper) containerRunner(flags *flag.FlagSet, priority int) (*arvadosContainerRunner, error) {
	if cmd.outputFile != "-" || cmd.tilesFile != "" || cmd.jsonFile != "" {
		return nil, errors.New("cannot specify output files in container mode: results are written to the container output collection")
	}
	runner := &arvadosContainerRunner{
		Name:        "tiletyper subtype",
		ProjectUUID: cmd.projectUUID,
		RAM:         8000000000,
		VCPUs:       cmd.threads,
		Priority:    priority,
	}
	schemeArg := cmd.schemeArg
	args := []string{"subtype", "-threads", fmt.Sprint(cmd.threads)}
	if _, isBuiltin := scheme.LookupBuiltin(schemeArg); isBuiltin {
		schemeDir := cmd.schemeDir
		if err := runner.TranslatePaths(&schemeDir); err != nil {
			return nil, err
		}
		args = append(args, "-scheme-dir", schemeDir)
	} else if err := runner.TranslatePaths(&schemeArg); err != nil {
		return nil, err
	}
	args = append(args, "-scheme", schemeArg)
	if cmd.configFile != "" {
		configFile := cmd.configFile
		if err := runner.TranslatePaths(&configFile); err != nil {
			return nil, err
		}
		args = append(args, "-config", configFile)
	}
	flags.Visit(func(f *flag.Flag) {
		if isParamKey(strings.Replace(f.Name, "-", "_", -1)) {
			args = append(args, "-"+f.Name+"="+f.Value.String())
		}
	})
	for _, pair := range cmd.pairs {
		r1, r2 := pair[0], pair[1]
		if err := runner.TranslatePaths(&r1, &r2); err != nil {
			return nil, err
		}
		args = append(args, "-paired", r1+","+r2)
	}
	args = append(args,
		"-o", containerOutput+"/summary.tsv",
		"-tiles", containerOutput+"/tiles.tsv",
		"-json", containerOutput+"/results.json")
	inputs := flags.Args()
	for i := range inputs {
		if err := runner.TranslatePaths(&inputs[i]); err != nil {
			return nil, err
		}
	}
	runner.Args = append(args, inputs...)
	return runner, nil
}

func loadMatcher(path string, builtin *scheme.Builtin, params resolve.Params) (*tilescan.Matcher, error) {
	cfg := scheme.Config{
		MaxDegenerateKmers: params.MaxDegenerateKmers,
		Logger:             log.StandardLogger(),
	}
	if builtin != nil {
		cfg.Name, cfg.Version = builtin.Name, builtin.Version
	}
	log.Printf("scheme %s load starting", path)
	model, err := scheme.LoadFile(path, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("scheme %s version %s: %d tiles, %d subtypes, %d concrete sequences", model.Name, model.Version, len(model.Tiles), len(model.Subtypes()), model.Variants())
	return tilescan.NewMatcher(model, log.StandardLogger())
}

// report is everything known about one sample after analysis.
type report struct {
	sample
	Result   *resolve.Result
	Evidence *resolve.Evidence // nil if the input could not be scanned
	Hits     tilescan.HitTable
}

// analyze scans, resolves and judges one sample. Input errors are
// turned into a failed result; only cancellation is returned as an
// error.
func analyze(ctx context.Context, m *tilescan.Matcher, params resolve.Params, s sample) (*report, error) {
	rpt := &report{sample: s}
	fail := func(err error) *report {
		rpt.Result = &resolve.Result{
			Scheme:        m.Model.Name,
			SchemeVersion: m.Model.Version,
			Fastq:         s.Fastq,
			Consistent:    true,
		}
		qc.InputError(rpt.Result, err)
		rpt.fill()
		log.WithField("sample", s.Name).Warn(rpt.Result.QCMessage)
		return rpt
	}
	if s.Err != nil {
		return fail(s.Err), nil
	}
	hits, err := scanSample(ctx, m, s)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	} else if err != nil {
		return fail(err), nil
	}
	rpt.Hits = hits
	rpt.Evidence = resolve.Enrich(m.Model, hits, params)
	rpt.Result = resolve.Resolve(rpt.Evidence)
	qc.Apply(rpt.Result, rpt.Evidence)
	rpt.fill()
	return rpt, nil
}

func scanSample(ctx context.Context, m *tilescan.Matcher, s sample) (tilescan.HitTable, error) {
	if s.Fastq {
		hits, err := m.ScanFastq(ctx, s.Paths...)
		if err != nil {
			return nil, err
		}
		return hits, nil
	}
	hits, err := m.ScanFasta(ctx, s.Paths[0])
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (rpt *report) fill() {
	rpt.Result.Sample = rpt.Name
	rpt.Result.FilePath = strings.Join(rpt.Paths, "; ")
}

// runBatch analyzes samples with the given number of workers and
// returns the reports in the order of samples.
func runBatch(ctx context.Context, m *tilescan.Matcher, params resolve.Params, samples []sample, threads int) ([]*report, error) {
	starttime := time.Now()
	reports := make([]*report, len(samples))
	errs := make(chan error, 1)
	todo := make(chan func() error, len(samples))
	for i, s := range samples {
		i, s := i, s
		todo <- func() error {
			log.WithField("sample", s.Name).Debugf("%s starting", strings.Join(s.Paths, ", "))
			rpt, err := analyze(ctx, m, params, s)
			if err != nil {
				return err
			}
			log.WithField("sample", s.Name).Infof("%s %s", rpt.Result.Subtype, rpt.Result.QCStatus)
			reports[i] = rpt
			return nil
		}
	}
	close(todo)
	var wg sync.WaitGroup
	var finished int64
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fn := range todo {
				if len(errs) > 0 {
					return
				}
				err := fn()
				if err != nil {
					select {
					case errs <- err:
					default:
					}
					continue
				}
				done := atomic.AddInt64(&finished, 1)
				remain := int64(cap(todo)) - done
				ttl := time.Since(starttime) * time.Duration(remain) / time.Duration(done)
				eta := time.Now().Add(ttl)
				log.Printf("progress %d/%d, eta %v (%v)", done, cap(todo), eta.Format(time.RFC3339), ttl.Round(time.Second))
			}
		}()
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}
	return reports, nil
}
