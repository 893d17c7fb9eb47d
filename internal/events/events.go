package events

import (
	"fmt"
	"time"
)

// Kind identifies what an Event reports.
type Kind int

const (
	KindScanProgress Kind = iota
	KindScanError
	KindScanDone
	KindDeleteStart
	KindNothingToDelete
	KindTrashFailed
	KindOutcome
	KindDeleteDone
)

// Outcome is the final result of processing one candidate path.
type Outcome int

const (
	OutcomeNone Outcome = iota
	Trashed
	ForceDeleted
	Failed
	Gone // removed together with an ancestor before its own turn
)

func (o Outcome) String() string {
	switch o {
	case Trashed:
		return "trashed"
	case ForceDeleted:
		return "force-deleted"
	case Failed:
		return "failed"
	case Gone:
		return "gone"
	default:
		return "none"
	}
}

// Removed reports whether the outcome counts as a successful removal.
func (o Outcome) Removed() bool {
	return o == Trashed || o == ForceDeleted
}

// Event is a status message sent from the scanner and the deletion workers
// to the reporter. Only the fields relevant to Kind are set.
type Event struct {
	Kind    Kind
	Path    string
	Err     error
	Outcome Outcome

	// scan counters
	Scanned int
	Matched int

	// deletion counters
	Done    int
	Total   int
	Removed int
	Failed  int
	Gone    int
	Elapsed time.Duration
}

func (e Event) String() string {
	switch e.Kind {
	case KindScanProgress:
		return fmt.Sprintf("Scanned: %d | Matched: %d", e.Scanned, e.Matched)
	case KindScanError:
		return fmt.Sprintf("scan error at %s: %v", e.Path, e.Err)
	case KindScanDone:
		return fmt.Sprintf("Scan complete. Directories to delete: %d", e.Matched)
	case KindDeleteStart:
		return fmt.Sprintf("Deleting %d directories...", e.Total)
	case KindNothingToDelete:
		return "No directories to delete."
	case KindTrashFailed:
		return fmt.Sprintf("could not trash '%s': %v", e.Path, e.Err)
	case KindOutcome:
		switch e.Outcome {
		case Trashed:
			return fmt.Sprintf("Removed folder: %s", e.Path)
		case ForceDeleted:
			return fmt.Sprintf("Force-deleted folder: %s", e.Path)
		case Gone:
			return fmt.Sprintf("Already gone: %s", e.Path)
		default:
			return fmt.Sprintf("could not force-delete '%s': %v", e.Path, e.Err)
		}
	case KindDeleteDone:
		return fmt.Sprintf("Processing complete! Folders removed: %d", e.Removed)
	default:
		return ""
	}
}

// Sink receives events. Implementations must be safe for concurrent use and
// must not block the caller for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Tee returns a Sink that forwards every event to each of sinks in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ev Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(ev)
			}
		}
	})
}
