package deleter

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"devcleaner/internal/events"
)

// fakeTrasher records calls. Paths listed in fail return that error; the
// rest are removed from disk to simulate a successful move to the trash.
// before runs ahead of every attempt when set.
type fakeTrasher struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]error
	before func(path string)
}

func (f *fakeTrasher) Trash(path string) error {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	err, failing := f.fail[path]
	f.mu.Unlock()
	if f.before != nil {
		f.before(path)
	}
	if failing {
		return err
	}
	if _, err := os.Lstat(path); err != nil {
		return err
	}
	return os.RemoveAll(path)
}

// failingFs wraps a real filesystem and fails RemoveAll for chosen paths.
type failingFs struct {
	afero.Fs
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *failingFs) RemoveAll(path string) error {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	err, failing := f.fail[path]
	f.mu.Unlock()
	if failing {
		return err
	}
	return f.Fs.RemoveAll(path)
}

type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) Emit(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
}

func (r *recorder) ofKind(k events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.evs {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

func makeDirs(t *testing.T, root string, names ...string) []string {
	t.Helper()
	var out []string
	for _, n := range names {
		p := filepath.Join(root, n)
		if err := os.MkdirAll(filepath.Join(p, "pkg"), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		out = append(out, p)
	}
	return out
}

func newDispatcher(t *testing.T, workers int, tr *fakeTrasher, fsys afero.Fs, rec *recorder) *Dispatcher {
	t.Helper()
	d, err := New(Options{Workers: workers, Trasher: tr, Fs: fsys, Sink: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestNew_RequiresTrasher(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, errNoTrasher) {
		t.Fatalf("expected errNoTrasher, got %v", err)
	}
}

func TestNew_DefaultsWorkers(t *testing.T) {
	d, err := New(Options{Trasher: &fakeTrasher{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Workers() < 1 {
		t.Fatalf("expected at least one worker, got %d", d.Workers())
	}
}

func TestRun_EmptyListDoesNothing(t *testing.T) {
	tr := &fakeTrasher{}
	fsys := &failingFs{Fs: afero.NewOsFs()}
	rec := &recorder{}

	sum := newDispatcher(t, 4, tr, fsys, rec).Run(nil)

	if len(tr.calls) != 0 || len(fsys.calls) != 0 {
		t.Fatalf("expected zero delete operations, got trash=%v remove=%v", tr.calls, fsys.calls)
	}
	if sum.Total != 0 || sum.Removed() != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(rec.ofKind(events.KindNothingToDelete)) != 1 {
		t.Fatal("expected a NothingToDelete event")
	}
	if len(rec.ofKind(events.KindDeleteStart)) != 0 {
		t.Fatal("no DeleteStart expected for an empty list")
	}
}

func TestRun_TrashesEveryPath(t *testing.T) {
	paths := makeDirs(t, t.TempDir(), "a", "b", "c", "d", "e")
	tr := &fakeTrasher{}
	rec := &recorder{}

	sum := newDispatcher(t, 3, tr, afero.NewOsFs(), rec).Run(paths)

	if sum.Trashed != 5 || sum.Removed() != 5 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("%s should be gone", p)
		}
	}

	outcomes := rec.ofKind(events.KindOutcome)
	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcome events, got %d", len(outcomes))
	}
	var done []int
	for _, ev := range outcomes {
		done = append(done, ev.Done)
		if ev.Total != 5 {
			t.Fatalf("unexpected total on event: %+v", ev)
		}
	}
	sort.Ints(done)
	for i, d := range done {
		if d != i+1 {
			t.Fatalf("Done values should be 1..5, got %v", done)
		}
	}

	final := rec.ofKind(events.KindDeleteDone)
	if len(final) != 1 || final[0].Removed != 5 {
		t.Fatalf("unexpected DeleteDone: %+v", final)
	}
}

func TestRun_FallsBackToForceDelete(t *testing.T) {
	paths := makeDirs(t, t.TempDir(), "node_modules")
	tr := &fakeTrasher{fail: map[string]error{paths[0]: errors.New("cross-device link")}}
	fsys := &failingFs{Fs: afero.NewOsFs()}
	rec := &recorder{}

	sum := newDispatcher(t, 2, tr, fsys, rec).Run(paths)

	if sum.ForceDeleted != 1 || sum.Removed() != 1 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(fsys.calls) != 1 {
		t.Fatalf("expected one RemoveAll call, got %v", fsys.calls)
	}
	if _, err := os.Stat(paths[0]); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("directory should have been removed")
	}
	if len(rec.ofKind(events.KindTrashFailed)) != 1 {
		t.Fatal("expected a TrashFailed event before the fallback")
	}
	out := rec.ofKind(events.KindOutcome)
	if len(out) != 1 || out[0].Outcome != events.ForceDeleted || out[0].Removed != 1 {
		t.Fatalf("unexpected outcome events: %+v", out)
	}
}

func TestRun_BothDeletesFail(t *testing.T) {
	paths := makeDirs(t, t.TempDir(), "stuck", "fine")
	stuck := paths[0]
	tr := &fakeTrasher{fail: map[string]error{stuck: errors.New("trash unavailable")}}
	fsys := &failingFs{Fs: afero.NewOsFs(), fail: map[string]error{stuck: fs.ErrPermission}}
	rec := &recorder{}

	sum := newDispatcher(t, 2, tr, fsys, rec).Run(paths)

	if sum.Removed() != 1 || sum.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(sum.Failures) != 1 || sum.Failures[0].Path != stuck || !errors.Is(sum.Failures[0].Err, fs.ErrPermission) {
		t.Fatalf("unexpected failures: %+v", sum.Failures)
	}
	if _, err := os.Stat(stuck); err != nil {
		t.Fatalf("failed path should remain on disk: %v", err)
	}
	final := rec.ofKind(events.KindDeleteDone)
	if len(final) != 1 || final[0].Removed != 1 || final[0].Failed != 1 {
		t.Fatalf("unexpected DeleteDone: %+v", final)
	}
}

func TestRun_NestedCandidates(t *testing.T) {
	root := t.TempDir()
	outer := filepath.Join(root, "X")
	inner := filepath.Join(outer, "lib", "X")
	if err := os.MkdirAll(inner, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// sequential: the outer directory goes first, the inner one is then gone
	sum := newDispatcher(t, 1, &fakeTrasher{}, afero.NewOsFs(), &recorder{}).Run([]string{outer, inner})
	if sum.Trashed != 1 || sum.Gone != 1 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRun_NestedCandidatesConcurrent(t *testing.T) {
	for i := 0; i < 20; i++ {
		root := t.TempDir()
		outer := filepath.Join(root, "X")
		inner := filepath.Join(outer, "lib", "X")
		if err := os.MkdirAll(inner, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}

		sum := newDispatcher(t, 4, &fakeTrasher{}, afero.NewOsFs(), &recorder{}).Run([]string{outer, inner})
		if sum.Failed != 0 {
			t.Fatalf("nested candidates must not fail: %+v", sum)
		}
		if sum.Removed() < 1 || sum.Removed()+sum.Gone != 2 {
			t.Fatalf("unexpected summary: %+v", sum)
		}
		if _, err := os.Stat(outer); !errors.Is(err, fs.ErrNotExist) {
			t.Fatal("outer directory should be gone")
		}
	}
}

func TestRun_VanishedDuringFailedTrashIsGone(t *testing.T) {
	root := t.TempDir()
	outer := filepath.Join(root, "X")
	inner := filepath.Join(outer, "lib", "X")
	if err := os.MkdirAll(inner, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// the ancestor is force-deleted by another worker mid-attempt, and the
	// trash reports something other than not-exist
	tr := &fakeTrasher{
		fail:   map[string]error{inner: errors.New("device busy")},
		before: func(string) { _ = os.RemoveAll(outer) },
	}
	fsys := &failingFs{Fs: afero.NewOsFs()}
	rec := &recorder{}

	sum := newDispatcher(t, 1, tr, fsys, rec).Run([]string{inner})

	if sum.Gone != 1 || sum.ForceDeleted != 0 || sum.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(fsys.calls) != 0 {
		t.Fatalf("no fallback expected for a vanished path, got %v", fsys.calls)
	}
	if len(rec.ofKind(events.KindTrashFailed)) != 0 {
		t.Fatal("a vanished path is not a trash failure")
	}
}
