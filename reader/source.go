package reader

import (
	"bufio"
	"io"
	"strings"
)

// source abstracts "where the next line of input comes from": a single
// REPL line, or a file being load-ed. Grounded on the teacher's
// multiRuneReader/PushInput abstraction in vm/io.go over "one of several
// input origins", simplified here to line granularity since the grammar
// (§4.2) only ever needs whole lines.
type source interface {
	// nextLine returns the next line of input. ok is false once the
	// source is exhausted; err reports a real I/O failure.
	nextLine() (line string, ok bool, err error)
}

// lineSource serves exactly one line, then reports exhaustion — modeling
// the REPL's single-line input buffer (§4.2: "a single line buffer").
type lineSource struct {
	line string
	done bool
}

func newLineSource(line string) *lineSource {
	return &lineSource{line: line}
}

func (s *lineSource) nextLine() (string, bool, error) {
	if s.done {
		return "", false, nil
	}
	s.done = true
	return s.line, true, nil
}

// fileSource serves successive lines from an open file, stripping `;`
// line comments and skipping blank lines per §4.2/§6, matching
// original_source/src/parser.cpp's FileInputReadLine.
type fileSource struct {
	sc *bufio.Scanner
}

func newFileSource(r io.Reader) *fileSource {
	return &fileSource{sc: bufio.NewScanner(r)}
}

func (s *fileSource) nextLine() (string, bool, error) {
	for s.sc.Scan() {
		line := stripComment(s.sc.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line, true, nil
	}
	if err := s.sc.Err(); err != nil {
		return "", false, err
	}
	return "", false, nil
}

// stripComment removes everything from the first `;` onward.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}
