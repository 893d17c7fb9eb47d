package trash

import (
	"os"
	"path/filepath"

	"github.com/Bios-Marcel/wastebasket/v2"
)

// System is the platform trash: the FreeDesktop.org trash on Linux and BSD
// (home trash or the mount's .Trash-$uid), the Finder trash on macOS and the
// Recycle Bin on Windows.
type System struct{}

// Default returns the platform trash.
func Default() Trasher {
	return System{}
}

func (System) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// report a vanished path as not-exist rather than a trash failure
	if _, err := os.Lstat(abs); err != nil {
		return err
	}
	return wastebasket.Trash(abs)
}
