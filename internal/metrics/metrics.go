package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"devcleaner/internal/events"
)

// Run holds the metrics of one cleaning run on its own registry, so several
// runs in one process (tests) never collide on the default registerer.
type Run struct {
	Registry *prometheus.Registry

	EntriesScanned   prometheus.Counter
	DirsMatched      prometheus.Counter
	ScanErrors       prometheus.Counter
	TrashFailures    prometheus.Counter
	Outcomes         *prometheus.CounterVec
	RemoveDuration   prometheus.Histogram
	RunDuration      prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// New creates and registers the run metrics.
func New() *Run {
	r := &Run{
		Registry: prometheus.NewRegistry(),
		EntriesScanned: NewCounter(
			"devcleaner_entries_scanned_total",
			"Filesystem entries visited during the scan.",
		),
		DirsMatched: NewCounter(
			"devcleaner_dirs_matched_total",
			"Directories whose name is on the denylist.",
		),
		ScanErrors: NewCounter(
			"devcleaner_scan_errors_total",
			"Entries that could not be read during the scan.",
		),
		TrashFailures: NewCounter(
			"devcleaner_trash_failures_total",
			"Directories that could not be moved to the trash.",
		),
		Outcomes: NewCounterVec(
			"devcleaner_deletions_total",
			"Processed directories by outcome.",
			[]string{"outcome"},
		),
		RemoveDuration: NewDurationHistogram(
			"devcleaner_remove_duration_seconds",
			"Time spent removing a single directory.",
		),
		RunDuration: NewGauge(
			"devcleaner_delete_phase_duration_seconds",
			"Wall time of the deletion phase.",
		),
		LastRunTimestamp: NewGauge(
			"devcleaner_last_run_timestamp",
			"Timestamp of the last run (Unix epoch seconds).",
		),
	}
	r.Registry.MustRegister(
		r.EntriesScanned,
		r.DirsMatched,
		r.ScanErrors,
		r.TrashFailures,
		r.Outcomes,
		r.RemoveDuration,
		r.RunDuration,
		r.LastRunTimestamp,
	)
	// pre-create label values so every outcome appears in the output
	for _, o := range []events.Outcome{events.Trashed, events.ForceDeleted, events.Failed, events.Gone} {
		r.Outcomes.WithLabelValues(o.String())
	}
	return r
}

// Emit updates the metrics from a run event. Run is an events.Sink.
func (r *Run) Emit(ev events.Event) {
	switch ev.Kind {
	case events.KindScanError:
		r.ScanErrors.Inc()
	case events.KindScanDone:
		r.EntriesScanned.Add(float64(ev.Scanned))
		r.DirsMatched.Add(float64(ev.Matched))
	case events.KindTrashFailed:
		r.TrashFailures.Inc()
	case events.KindOutcome:
		r.Outcomes.WithLabelValues(ev.Outcome.String()).Inc()
		if ev.Outcome != events.Gone {
			r.RemoveDuration.Observe(ev.Elapsed.Seconds())
		}
	case events.KindDeleteDone:
		r.RunDuration.Set(ev.Elapsed.Seconds())
	}
}

// Finish stamps the run time.
func (r *Run) Finish(now time.Time) {
	r.LastRunTimestamp.Set(float64(now.Unix()))
}

// WriteTextfile writes the metrics in the Prometheus text format, suitable
// for the node_exporter textfile collector.
func (r *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}
