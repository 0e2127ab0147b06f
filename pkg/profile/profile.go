package profile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/pepsig/pkg/net"
	"github.com/pkg/errors"
)

const (
	scanBufferSize = 64 * 1024
	maxLineSize    = 64 * 1024 * 1024
)

var (
	// ErrEmptyLine is returned for blank or whitespace-only input lines.
	ErrEmptyLine = errors.New("empty line")
)

// ParseError reports a failure to open or parse a profile file.
// Line is 1-based and zero when the failure is not tied to a line.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	src := e.Path
	if src == "" {
		src = "input"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", src, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", src, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Record is one protein line: the key followed by its values.
type Record struct {
	Key    Token
	Values []Token
}

// Tail returns the values after the first one.
func (r *Record) Tail() []Token {
	if len(r.Values) == 0 {
		return nil
	}
	return r.Values[1:]
}

// Dataset holds records in order of first key appearance.
type Dataset struct {
	records []*Record
	index   map[Token]int
}

func NewDataset() *Dataset {
	return &Dataset{
		index: make(map[Token]int),
	}
}

// Add inserts r. A record with an existing key replaces the earlier
// values but keeps the earlier position.
func (d *Dataset) Add(r *Record) {
	if r == nil {
		return
	}
	if i, ok := d.index[r.Key]; ok {
		slog.Debug("duplicate key, replacing values", "key", r.Key.String())
		d.records[i] = r
		return
	}
	d.index[r.Key] = len(d.records)
	d.records = append(d.records, r)
}

// Len returns the number of distinct keys.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns the records in input order. The slice must not be modified.
func (d *Dataset) Records() []*Record {
	return d.records
}

func (d *Dataset) Get(key Token) (*Record, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.records[i], true
}

// ParseLine splits a line on whitespace into a record.
func ParseLine(line string) (*Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmptyLine
	}

	r := &Record{
		Key:    ParseToken(fields[0]),
		Values: make([]Token, 0, len(fields)-1),
	}
	for _, f := range fields[1:] {
		r.Values = append(r.Values, ParseToken(f))
	}
	return r, nil
}

// Parse reads one record per line from r.
func Parse(r io.Reader) (*Dataset, error) {
	ds := NewDataset()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scanBufferSize), maxLineSize)

	n := 0
	for scanner.Scan() {
		n++
		rec, err := ParseLine(scanner.Text())
		if err != nil {
			return nil, &ParseError{Line: n, Err: err}
		}
		ds.Add(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: n + 1, Err: errors.Wrap(err, "error reading input")}
	}

	slog.Debug("parsed profiles", "lines", n, "records", ds.Len())
	return ds, nil
}

// Load parses src, fetching it over HTTP when it is an http(s) URL and
// reading it from disk otherwise.
func Load(ctx context.Context, src string) (*Dataset, error) {
	if !net.IsURL(src) {
		return ParseFile(src)
	}

	body, err := net.Open(ctx, src)
	if err != nil {
		return nil, &ParseError{Path: src, Err: err}
	}
	defer body.Close()

	ds, err := Parse(body)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = src
		}
		return nil, err
	}
	return ds, nil
}

// ParseFile opens path and parses it. A leading "~/" is expanded to the
// user home directory.
func ParseFile(path string) (*Dataset, error) {
	if path == "" {
		return nil, &ParseError{Err: errors.New("input path not specified")}
	}

	resolved, err := expandHome(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return ds, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home dir")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
