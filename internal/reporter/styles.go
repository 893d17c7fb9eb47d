package reporter

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"devcleaner/internal/scanner"
	"devcleaner/pkg/utils"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))  // purple
	headerStyle  = lipgloss.NewStyle().Bold(true)
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))  // cyan
	logStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// sizeColorStyle picks a colour by size: red for the largest directories,
// down to dark gray for small ones.
func sizeColorStyle(b int64) lipgloss.Style {
	const (
		MB = 1024 * 1024
		GB = 1024 * MB
	)
	var c string
	switch {
	case b >= 4*GB:
		c = "196" // red
	case b >= 1*GB:
		c = "208" // orange
	case b >= 256*MB:
		c = "226" // yellow
	case b >= 64*MB:
		c = "46" // green
	default:
		c = "240" // dark gray
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

func displayPath(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil && rel != "." {
		return rel
	}
	return p
}

// PrintCandidates writes the dry-run listing: one line per candidate with
// its size, then the total.
func PrintCandidates(w io.Writer, root string, items []scanner.ResultItem, total int64) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No directories to delete.")
		return
	}
	for _, it := range items {
		if it.Err != nil {
			fmt.Fprintf(w, "%8s %s %s\n", "?", displayPath(root, it.Path), errorStyle.Render(it.Err.Error()))
			continue
		}
		size := fmt.Sprintf("%8s", utils.HumanizeBytesCompact(it.Size))
		fmt.Fprintf(w, "%s %s\n", sizeColorStyle(it.Size).Render(size), displayPath(root, it.Path))
	}
	fmt.Fprintf(w, "%s %d directories, %s (dry run, nothing deleted)\n",
		headerStyle.Render("Total:"), len(items), utils.HumanizeBytes(total))
}

// PrintScanReport writes what the interactive display showed only
// transiently: unreadable entries to errOut, the scan summary and the empty
// result notice to w.
func PrintScanReport(w, errOut io.Writer, rep ScanReport) {
	for _, ev := range rep.Errors {
		fmt.Fprintln(errOut, errorStyle.Render(fmt.Sprintf("cannot read %s: %v", ev.Path, ev.Err)))
	}
	fmt.Fprintf(w, "Scan complete. Directories to delete: %d (entries scanned: %d)\n", rep.Matched, rep.Scanned)
	if rep.NothingToDelete {
		fmt.Fprintln(w, "No directories to delete.")
	}
}

// PrintCompletion writes the final line of a run.
func PrintCompletion(w io.Writer, removed, failed, scanErrors int) {
	msg := fmt.Sprintf("Processing complete! Folders removed: %d", removed)
	if failed > 0 {
		msg += fmt.Sprintf(" (failed: %d)", failed)
	}
	if scanErrors > 0 {
		msg += fmt.Sprintf(" (unreadable entries: %d)", scanErrors)
	}
	fmt.Fprintln(w, doneStyle.Render(msg))
}
