package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"

	"devcleaner/internal/config"
	"devcleaner/internal/deleter"
	"devcleaner/internal/denylist"
	"devcleaner/internal/events"
	"devcleaner/internal/logging"
	"devcleaner/internal/metrics"
	"devcleaner/internal/reporter"
	"devcleaner/internal/scanner"
	"devcleaner/internal/trash"
)

// Env holds the process surroundings of a run. Zero fields take the real
// filesystem, the trash chosen by the options and the standard streams.
type Env struct {
	Fs       afero.Fs
	Trasher  trash.Trasher
	Stdout   io.Writer
	Stderr   io.Writer
	Denylist denylist.Set // already loaded from the options' path; nil to load it here
}

func (e *Env) defaults(opts config.Options) {
	if e.Fs == nil {
		e.Fs = afero.NewOsFs()
	}
	if e.Trasher == nil {
		if opts.TrashDir != "" {
			e.Trasher = trash.NewXDG(opts.TrashDir)
		} else {
			e.Trasher = trash.Default()
		}
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
}

// Result describes a finished run.
type Result struct {
	Candidates []string
	Summary    deleter.Summary      // zero for a dry run
	Sizes      []scanner.ResultItem // dry run only
	TotalSize  int64                // dry run only
}

// Run performs one cleaning run: load the denylist, scan root, then delete
// the matches (or list them for a dry run). Errors before the deletion
// phase abort the run; per-directory failures are reported in the summary.
func Run(ctx context.Context, opts config.Options, env Env) (*Result, error) {
	env.defaults(opts)

	if err := opts.Validate(env.Fs); err != nil {
		return nil, err
	}
	deny := env.Denylist
	if deny == nil {
		var err error
		if deny, err = denylist.Load(env.Fs, opts.DenylistPath); err != nil {
			return nil, err
		}
	}

	var console io.Writer
	if opts.Plain {
		console = env.Stderr
	}
	log, closer, err := logging.New(logging.Options{Level: opts.LogLevel, File: opts.LogFile, Console: console})
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	log.Info().
		Str("root", opts.Root).
		Strs("denylist", deny.Names()).
		Int("workers", opts.Workers).
		Bool("dry_run", opts.DryRun).
		Msg("starting run")

	m := metrics.New()
	rep := reporter.Start(reporter.Options{
		Plain:  opts.Plain,
		Logger: log,
		Output: env.Stderr,
		Root:   opts.Root,
	})
	sink := events.Tee(rep, m)
	stop := func() {
		rep.Close()
		rep.Wait()
	}
	// the display is gone once stopped; plain mode has logged all of this
	report := func() {
		if !opts.Plain {
			reporter.PrintScanReport(env.Stdout, env.Stderr, rep.ScanReport())
		}
	}

	paths, err := scanner.Scan(ctx, env.Fs, opts.Root, deny, scanner.Options{PruneMatched: opts.Prune}, sink)
	if err != nil {
		stop()
		return nil, fmt.Errorf("scan %s: %w", opts.Root, err)
	}
	res := &Result{Candidates: paths}

	if opts.DryRun {
		stop()
		report()
		res.Sizes, res.TotalSize = scanner.SizeAll(ctx, env.Fs, paths, opts.Workers)
		reporter.PrintCandidates(env.Stdout, opts.Root, res.Sizes, res.TotalSize)
	} else {
		d, err := deleter.New(deleter.Options{
			Workers: opts.Workers,
			Trasher: env.Trasher,
			Fs:      env.Fs,
			Sink:    sink,
		})
		if err != nil {
			stop()
			return nil, err
		}
		// no cancellation from here on: every candidate gets an outcome
		res.Summary = d.Run(paths)
		stop()
		report()
		reporter.PrintCompletion(env.Stdout, res.Summary.Removed(), res.Summary.Failed, len(rep.ScanReport().Errors))
	}

	m.Finish(time.Now())
	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			return res, fmt.Errorf("write metrics: %w", err)
		}
		log.Debug().Str("path", opts.MetricsFile).Msg("metrics written")
	}
	return res, nil
}
