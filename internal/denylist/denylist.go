package denylist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// ReadError reports a denylist source that could not be opened, read or decoded.
type ReadError struct {
	Path string
	Line int // 0 when the error is not tied to a line
	Err  error
}

func (e *ReadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("read denylist %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("read denylist %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Set is an immutable set of folder basenames. Matching is exact and case-sensitive.
type Set map[string]struct{}

// Contains reports whether name is denylisted.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of unique entries.
func (s Set) Len() int { return len(s) }

// Names returns the entries in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load reads the denylist file at path from fsys.
func Load(fsys afero.Fs, path string) (Set, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	set, err := Parse(f)
	if err != nil {
		var re *ReadError
		if errors.As(err, &re) {
			re.Path = path
			return nil, re
		}
		return nil, &ReadError{Path: path, Err: err}
	}
	return set, nil
}

// Parse reads one folder name per line. Each line is trimmed of surrounding
// whitespace and inserted verbatim, so a blank line contributes the empty
// string, which never matches a real directory.
func Parse(r io.Reader) (Set, error) {
	set := make(Set)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if !utf8.ValidString(text) {
			return nil, &ReadError{Line: line, Err: errInvalidUTF8}
		}
		set[strings.TrimSpace(text)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, &ReadError{Line: line + 1, Err: err}
	}
	return set, nil
}
