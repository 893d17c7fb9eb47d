package scanner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"devcleaner/internal/denylist"
	"devcleaner/internal/events"
)

const defaultProgressEvery = 100

// Options defines scanning behavior.
type Options struct {
	PruneMatched  bool // stop descending at a matched directory
	ProgressEvery int  // entries between progress events; 0 means 100
}

// ResultItem represents a candidate directory and its computed size.
type ResultItem struct {
	Path string
	Size int64
	Err  error
}

// Scan walks root depth-first on a single goroutine and returns every
// directory whose basename is in deny. Entries whose name starts with a dot
// are neither visited nor descended, except root itself. Symlinks are never
// followed. Per-entry errors are reported on sink and the walk continues; the
// returned error is non-nil only when ctx is cancelled.
func Scan(ctx context.Context, fsys afero.Fs, root string, deny denylist.Set, opts Options, sink events.Sink) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if sink == nil {
		sink = events.Discard
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = defaultProgressEvery
	}

	var candidates []string
	scanned := 0

	// The root may itself be a link; links below it are never followed.
	// Reported paths keep the root as given.
	walkRoot := resolveRoot(fsys, root)

	// afero.Walk lstats every entry, so a symlink never reports IsDir.
	walkFn := func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkRoot != root {
			path = rebase(walkRoot, root, path)
		}
		if err != nil {
			sink.Emit(events.Event{Kind: events.KindScanError, Path: path, Err: err})
			return nil // continue
		}
		name := info.Name()
		if path == root {
			name = filepath.Base(root)
		} else if isHidden(name) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		scanned++
		if scanned%every == 0 {
			sink.Emit(events.Event{Kind: events.KindScanProgress, Scanned: scanned, Matched: len(candidates)})
		}

		if info.IsDir() && deny.Contains(name) {
			candidates = append(candidates, path)
			if opts.PruneMatched {
				return filepath.SkipDir
			}
		}
		return nil
	}

	if err := afero.Walk(fsys, walkRoot, walkFn); err != nil {
		return candidates, err
	}

	sink.Emit(events.Event{Kind: events.KindScanDone, Scanned: scanned, Matched: len(candidates)})
	return candidates, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

const maxRootLinks = 40

// resolveRoot follows root while it is a symbolic link. Filesystems without
// link support return root unchanged.
func resolveRoot(fsys afero.Fs, root string) string {
	ls, ok := fsys.(afero.Lstater)
	if !ok {
		return root
	}
	lr, ok := fsys.(afero.LinkReader)
	if !ok {
		return root
	}
	cur := root
	for i := 0; i < maxRootLinks; i++ {
		info, _, err := ls.LstatIfPossible(cur)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			return cur
		}
		target, err := lr.ReadlinkIfPossible(cur)
		if err != nil {
			return cur
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(cur), target)
		}
		cur = target
	}
	return cur
}

// rebase rewrites a path under from into the same path under to.
func rebase(from, to, path string) string {
	rel, err := filepath.Rel(from, path)
	if err != nil {
		return path
	}
	if rel == "." {
		return to
	}
	return filepath.Join(to, rel)
}

// SizeAll computes the size of each path with a worker pool. Results keep
// the order of paths.
func SizeAll(ctx context.Context, fsys afero.Fs, paths []string, concurrency int) ([]ResultItem, int64) {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
		if concurrency < 1 {
			concurrency = 1
		}
	}

	type job struct {
		idx  int
		path string
	}
	jobs := make(chan job)
	results := make([]ResultItem, len(paths))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for j := range jobs {
			sz, err := DirSize(fsys, j.path)
			results[j.idx] = ResultItem{Path: j.path, Size: sz, Err: err}
		}
	}

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker()
	}
	go func() {
		defer close(jobs)
		for i, p := range paths {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{idx: i, path: p}:
			}
		}
	}()
	wg.Wait()

	var total int64
	for i := range results {
		if results[i].Path == "" {
			// never dispatched because ctx was cancelled
			results[i] = ResultItem{Path: paths[i], Err: ctx.Err()}
			continue
		}
		if results[i].Err == nil {
			total += results[i].Size
		}
	}
	return results, total
}

// DirSize computes the total size in bytes of regular files under root.
// Symlinks are counted as links, not followed.
func DirSize(fsys afero.Fs, root string) (int64, error) {
	var total int64
	var firstErr error
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil // continue
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if err != nil && firstErr == nil {
		firstErr = err
	}
	return total, firstErr
}
