// Package trash moves directories to a recoverable store instead of erasing them.
package trash

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

var errNoFreeName = errors.New("trash: no free name")

const maxNameAttempts = 1000

// Trasher moves a filesystem entry to a recoverable store.
type Trasher interface {
	Trash(path string) error
}

// XDG implements the FreeDesktop.org trash layout in a chosen directory:
// the entry is renamed into Dir/files and a .trashinfo record with its
// original path is written to Dir/info. The rename fails across
// filesystems; callers fall back then.
type XDG struct {
	Dir string
	now func() time.Time
}

// NewXDG returns a trash rooted at dir.
func NewXDG(dir string) *XDG {
	return &XDG{Dir: dir, now: time.Now}
}

func (x *XDG) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	filesDir := filepath.Join(x.Dir, "files")
	infoDir := filepath.Join(x.Dir, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("create trash dir: %w", err)
		}
	}

	base := filepath.Base(abs)
	for i := 0; i < maxNameAttempts; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s.%d", base, i)
		}

		// The info file reserves the name; O_EXCL makes that atomic.
		infoPath := filepath.Join(infoDir, name+".trashinfo")
		f, err := os.OpenFile(infoPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("write trash info: %w", err)
		}
		_, werr := fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
			(&url.URL{Path: abs}).EscapedPath(), x.now().Format("2006-01-02T15:04:05"))
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = os.Remove(infoPath)
			return fmt.Errorf("write trash info: %w", werr)
		}

		dst := filepath.Join(filesDir, name)
		if _, err := os.Lstat(dst); err == nil {
			// stale entry without info file
			_ = os.Remove(infoPath)
			continue
		}
		if err := os.Rename(abs, dst); err != nil {
			_ = os.Remove(infoPath)
			return fmt.Errorf("move to trash: %w", err)
		}
		return nil
	}
	return errNoFreeName
}
