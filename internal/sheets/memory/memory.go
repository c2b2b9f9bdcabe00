// Package memory keeps exported reports in process, optionally mirroring the
// latest one to a JSON file for local runs without a spreadsheet.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tripledger/internal/sheets"
)

// ReportFile is the file name written under the mirror directory.
const ReportFile = "trip_report.json"

type Store struct {
	mu      sync.Mutex
	dir     string
	reports []sheets.Report
}

var _ sheets.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// NewWithDir mirrors every written report to dir/trip_report.json.
func NewWithDir(dir string) *Store {
	return &Store{dir: dir}
}

// WriteReport stores the report and returns a synthetic reference.
func (s *Store) WriteReport(_ context.Context, r sheets.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir != "" {
		if err := writeFile(filepath.Join(s.dir, ReportFile), r); err != nil {
			return "", err
		}
	}
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Last returns the most recent report.
func (s *Store) Last() (sheets.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reports) == 0 {
		return sheets.Report{}, false
	}
	return s.reports[len(s.reports)-1], true
}

// Count returns how many reports were written.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

func writeFile(path string, r sheets.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return os.Rename(tmp, path)
}
