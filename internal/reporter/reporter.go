package reporter

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"devcleaner/internal/events"
)

// Options configures a Reporter.
type Options struct {
	Plain  bool           // log only, no interactive display
	Logger zerolog.Logger // receives every event
	Output io.Writer      // display target; nil means os.Stderr
	Root   string         // shown in the scan header
}

// ScanReport is what the scan left behind for the final output.
type ScanReport struct {
	Scanned         int
	Matched         int
	Errors          []events.Event // ScanError events in arrival order
	NothingToDelete bool
}

// Reporter drains the event queue on one goroutine. Producers call Emit,
// which never blocks.
type Reporter struct {
	queue  *events.Queue
	log    zerolog.Logger
	prog   *tea.Program
	done   chan struct{}
	report ScanReport
}

// Start launches the consumer and, unless opts.Plain is set, the display.
func Start(opts Options) *Reporter {
	r := &Reporter{
		queue: events.NewQueue(),
		log:   opts.Logger,
		done:  make(chan struct{}),
	}

	var progDone chan struct{}
	if !opts.Plain {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		// No input: the terminal stays in cooked mode so an interrupt
		// reaches the process signal handler.
		r.prog = tea.NewProgram(newModel(opts.Root),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		)
		progDone = make(chan struct{})
		go func() {
			defer close(progDone)
			if _, err := r.prog.Run(); err != nil {
				r.log.Error().Err(err).Msg("progress display stopped")
			}
		}()
	}

	go func() {
		defer close(r.done)
		for ev := range r.queue.C() {
			r.record(ev)
			logEvent(r.log, ev)
			if r.prog != nil {
				r.prog.Send(eventMsg(ev))
			}
		}
		if r.prog != nil {
			r.prog.Send(finishMsg{})
			<-progDone
		}
	}()
	return r
}

// Emit enqueues ev.
func (r *Reporter) Emit(ev events.Event) {
	r.queue.Emit(ev)
}

// Close marks the end of input. Events emitted afterwards are dropped.
func (r *Reporter) Close() {
	r.queue.Close()
}

// Wait blocks until every queued event has been handled and the display
// has been cleared. Close must be called first.
func (r *Reporter) Wait() {
	<-r.done
}

// ScanReport returns the scan summary. It is complete once Wait returns.
func (r *Reporter) ScanReport() ScanReport {
	return r.report
}

func (r *Reporter) record(ev events.Event) {
	switch ev.Kind {
	case events.KindScanError:
		r.report.Errors = append(r.report.Errors, ev)
	case events.KindScanDone:
		r.report.Scanned, r.report.Matched = ev.Scanned, ev.Matched
	case events.KindNothingToDelete:
		r.report.NothingToDelete = true
	}
}

func logEvent(log zerolog.Logger, ev events.Event) {
	switch ev.Kind {
	case events.KindScanProgress:
		log.Debug().Int("scanned", ev.Scanned).Int("matched", ev.Matched).Msg(ev.String())
	case events.KindScanError:
		log.Warn().Err(ev.Err).Str("path", ev.Path).Msg("cannot read entry")
	case events.KindScanDone:
		log.Info().Int("scanned", ev.Scanned).Int("matched", ev.Matched).Msg(ev.String())
	case events.KindDeleteStart:
		log.Info().Int("total", ev.Total).Msg(ev.String())
	case events.KindNothingToDelete:
		log.Info().Msg(ev.String())
	case events.KindTrashFailed:
		log.Warn().Err(ev.Err).Str("path", ev.Path).Msg("trash failed, removing permanently")
	case events.KindOutcome:
		e := log.Info()
		switch ev.Outcome {
		case events.Failed:
			e = log.Error().Err(ev.Err)
		case events.Gone:
			e = log.Debug()
		}
		e.Str("path", ev.Path).
			Str("outcome", ev.Outcome.String()).
			Int("done", ev.Done).
			Int("total", ev.Total).
			Dur("took", ev.Elapsed).
			Msg(ev.String())
	case events.KindDeleteDone:
		log.Info().
			Int("removed", ev.Removed).
			Int("failed", ev.Failed).
			Int("gone", ev.Gone).
			Int("total", ev.Total).
			Dur("elapsed", ev.Elapsed).
			Msg(ev.String())
	}
}
