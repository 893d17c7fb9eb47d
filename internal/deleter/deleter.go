package deleter

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"

	"devcleaner/internal/events"
	"devcleaner/internal/trash"
)

var errNoTrasher = errors.New("deleter: trasher is required")

// Options configures a Dispatcher.
type Options struct {
	Workers int           // pool size; 0 means runtime.NumCPU()
	Trasher trash.Trasher // reversible delete, tried first
	Fs      afero.Fs      // used for the existence check and the RemoveAll fallback
	Sink    events.Sink   // receives DeleteStart, TrashFailed, Outcome and DeleteDone
}

// Failure describes a path that could be neither trashed nor removed.
type Failure struct {
	Path     string
	TrashErr error
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: trash: %v; remove: %v", f.Path, f.TrashErr, f.Err)
}

// Summary is the result of a Run.
type Summary struct {
	Total        int
	Trashed      int
	ForceDeleted int
	Failed       int
	Gone         int
	Failures     []Failure
	Elapsed      time.Duration
}

// Removed is the number of paths trashed or force-deleted.
func (s Summary) Removed() int {
	return s.Trashed + s.ForceDeleted
}

// Dispatcher removes candidate directories on a fixed-size worker pool.
type Dispatcher struct {
	workers int
	trasher trash.Trasher
	fs      afero.Fs
	sink    events.Sink
}

// New validates opts and fills in defaults.
func New(opts Options) (*Dispatcher, error) {
	if opts.Trasher == nil {
		return nil, errNoTrasher
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
		if opts.Workers < 1 {
			opts.Workers = 1
		}
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Sink == nil {
		opts.Sink = events.Discard
	}
	return &Dispatcher{
		workers: opts.Workers,
		trasher: opts.Trasher,
		fs:      opts.Fs,
		sink:    opts.Sink,
	}, nil
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int { return d.workers }

type result struct {
	outcome  events.Outcome
	trashErr error
	err      error
}

// Run processes every path and returns once all of them are done. Individual
// failures never stop the run. Paths are processed in no particular order.
func (d *Dispatcher) Run(paths []string) Summary {
	total := len(paths)
	if total == 0 {
		d.sink.Emit(events.Event{Kind: events.KindNothingToDelete})
		return Summary{}
	}

	start := time.Now()
	d.sink.Emit(events.Event{Kind: events.KindDeleteStart, Total: total})

	var (
		wg        sync.WaitGroup
		processed atomic.Int64
		removed   atomic.Int64
		mu        sync.Mutex
		sum       = Summary{Total: total}
	)

	work := func(path string) {
		began := time.Now()
		res := d.remove(path)
		if res.outcome.Removed() {
			removed.Add(1)
		}

		mu.Lock()
		switch res.outcome {
		case events.Trashed:
			sum.Trashed++
		case events.ForceDeleted:
			sum.ForceDeleted++
		case events.Gone:
			sum.Gone++
		default:
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{Path: path, TrashErr: res.trashErr, Err: res.err})
		}
		mu.Unlock()

		ev := events.Event{
			Kind:    events.KindOutcome,
			Path:    path,
			Outcome: res.outcome,
			Err:     res.err,
			Done:    int(processed.Add(1)),
			Total:   total,
			Removed: int(removed.Load()),
			Elapsed: time.Since(began),
		}
		if res.outcome == events.ForceDeleted {
			ev.Err = res.trashErr
		}
		d.sink.Emit(ev)
	}

	pool, err := ants.NewPool(d.workers)
	if err != nil {
		// cannot happen for a positive size; degrade to inline processing
		for _, p := range paths {
			work(p)
		}
	} else {
		defer pool.Release()
		for _, p := range paths {
			p := p
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				work(p)
			}); err != nil {
				wg.Done()
				work(p)
			}
		}
		wg.Wait()
	}

	sum.Elapsed = time.Since(start)
	d.sink.Emit(events.Event{
		Kind:    events.KindDeleteDone,
		Total:   total,
		Removed: int(removed.Load()),
		Failed:  sum.Failed,
		Gone:    sum.Gone,
		Elapsed: sum.Elapsed,
	})
	return sum
}

// remove trashes path, falling back to a permanent recursive delete. A path
// that no longer exists was removed with an ancestor candidate and is Gone.
func (d *Dispatcher) remove(path string) result {
	if d.missing(path) {
		return result{outcome: events.Gone}
	}

	trashErr := d.trasher.Trash(path)
	if trashErr == nil {
		return result{outcome: events.Trashed}
	}
	if errors.Is(trashErr, fs.ErrNotExist) || d.missing(path) {
		return result{outcome: events.Gone}
	}
	d.sink.Emit(events.Event{Kind: events.KindTrashFailed, Path: path, Err: trashErr})

	if err := d.fs.RemoveAll(path); err != nil {
		return result{outcome: events.Failed, trashErr: trashErr, err: err}
	}
	return result{outcome: events.ForceDeleted, trashErr: trashErr}
}

// missing reports whether path has disappeared, e.g. with an ancestor that
// another worker removed while the trash attempt was running.
func (d *Dispatcher) missing(path string) bool {
	var err error
	if ls, ok := d.fs.(afero.Lstater); ok {
		_, _, err = ls.LstatIfPossible(path)
	} else {
		_, err = d.fs.Stat(path)
	}
	return errors.Is(err, fs.ErrNotExist)
}
