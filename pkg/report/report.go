package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mchmarny/pepsig/pkg/stats"
)

const (
	TSVFileName = "significance.tsv"
	CSVFileName = "all_significant_prots.csv"

	dirMode  = 0755
	fileMode = 0644
)

// Sink receives the final, sorted and filtered rows of a run.
type Sink interface {
	Emit(rows []*stats.ScoreResult) error
}

// WriteTSV writes rows as key, p-value (%e) and z-score (%.4f) separated by tabs.
func WriteTSV(w io.Writer, rows []*stats.ScoreResult) error {
	for i, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%e\t%.4f\n", r.Key, r.P, r.Z); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return nil
}

// WriteCSV writes rows as key, p-value and z-score with minimal quoting.
func WriteCSV(w io.Writer, rows []*stats.ScoreResult) error {
	cw := csv.NewWriter(w)
	// excel dialect line endings
	cw.UseCRLF = true

	for i, r := range rows {
		rec := []string{
			r.Key.String(),
			formatFloat(r.P),
			formatFloat(r.Z),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatFloat renders v in its shortest round-trip form, fixed point for
// decimal exponents in [-4, 16) and scientific otherwise. Whole numbers keep
// a trailing ".0" (5 is written as 5.0).
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}

	fixed := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

// FileSink writes the TSV and CSV reports into Dir.
type FileSink struct {
	Dir     string
	TSVName string
	CSVName string
}

// NewFileSink creates a sink writing the default file names into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{
		Dir:     dir,
		TSVName: TSVFileName,
		CSVName: CSVFileName,
	}
}

// Paths returns the TSV and CSV file paths.
func (s *FileSink) Paths() []string {
	return []string{
		filepath.Join(s.Dir, s.TSVName),
		filepath.Join(s.Dir, s.CSVName),
	}
}

// Emit rewrites both report files. Each report is rendered into a temp file
// next to its target first and the targets are replaced only once both have
// been written, so a failed render leaves the previous pair untouched.
func (s *FileSink) Emit(rows []*stats.ScoreResult) error {
	if s.TSVName == "" || s.CSVName == "" {
		return errors.New("report file names required")
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	paths := s.Paths()
	return commit(rows, []target{
		{path: paths[0], render: WriteTSV},
		{path: paths[1], render: WriteCSV},
	})
}

type target struct {
	path   string
	render func(io.Writer, []*stats.ScoreResult) error
}

func commit(rows []*stats.ScoreResult, targets []target) (retErr error) {
	staged := make([]string, 0, len(targets))
	defer func() {
		if retErr == nil {
			return
		}
		for _, p := range staged {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Debug("failed to remove staged report", "path", p, "error", err)
			}
		}
	}()

	for _, t := range targets {
		tmp, err := stage(t.path, rows, t.render)
		if err != nil {
			return err
		}
		staged = append(staged, tmp)
	}

	for i, t := range targets {
		if err := os.Rename(staged[i], t.path); err != nil {
			return fmt.Errorf("failed to replace %s: %w", t.path, err)
		}
	}
	return nil
}

// stage renders rows into a temp file in the directory of path and returns
// the temp file name.
func stage(path string, rows []*stats.ScoreResult, fn func(io.Writer, []*stats.ScoreResult) error) (_ string, retErr error) {
	slog.Debug("writing report", "path", path, "rows", len(rows))

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file %s: %w", tmp, cerr)
		}
		if retErr != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err := f.Chmod(fileMode); err != nil {
		return "", fmt.Errorf("failed to set mode on %s: %w", tmp, err)
	}
	if err := fn(f, rows); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return tmp, nil
}
