// Package snapshot caches the candidate table as a CSV file between runs.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"DividendSentinel/internal/model"
)

// Header is the snapshot column layout.
var Header = []string{
	"code", "sector", "dividend_yield", "company_name", "price", "source_url", "source_index_name", "run_id",
}

// Snapshot is the candidate table written by one run.
type Snapshot struct {
	RunID   string
	Rows    []model.CandidateRow
	Written time.Time
}

// Fresh reports whether the file at path exists and is younger than maxAge.
func Fresh(path string, maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return now.Sub(info.ModTime()) < maxAge
}

// Write replaces the snapshot at path. The file is written to a temporary
// name in the same directory and renamed, so readers never see a partial table.
func Write(path, runID string, rows []model.CandidateRow) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, runID, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Encode writes the header and one record per row.
func Encode(w io.Writer, runID string, rows []model.CandidateRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Code, r.Sector, formatFloat(r.DividendYield), r.CompanyName,
			formatFloat(r.Price), r.SourceURL, r.SourceIndex, runID,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read loads the snapshot at path.
func Read(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snap, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if info, err := f.Stat(); err == nil {
		snap.Written = info.ModTime()
	}
	return snap, nil
}

// Decode parses a snapshot. Unparseable numbers become null.
func Decode(r io.Reader) (*Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty snapshot")
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, h := range Header[:7] {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("snapshot column %q missing", h)
		}
	}

	snap := &Snapshot{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot row: %w", err)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		if snap.RunID == "" {
			snap.RunID = get("run_id")
		}
		snap.Rows = append(snap.Rows, model.CandidateRow{
			Code:          get("code"),
			Sector:        get("sector"),
			DividendYield: parseFloat(get("dividend_yield")),
			CompanyName:   get("company_name"),
			Price:         parseFloat(get("price")),
			SourceURL:     get("source_url"),
			SourceIndex:   get("source_index_name"),
		})
	}
	return snap, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
