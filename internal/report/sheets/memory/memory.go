// Package memory is a report publisher that keeps the latest report in
// process and, when given a directory, mirrors it to report.csv.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"wealthwise/internal/report"
)

const FileName = "report.csv"

type Store struct {
	mu        sync.Mutex
	dir       string
	last      report.Report
	published int
}

func New() *Store {
	return &Store{}
}

// NewWithDir also writes every published report to dir/report.csv.
func NewWithDir(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Publish(_ context.Context, r report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir != "" {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, r); err != nil {
			return err
		}
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
		if err := os.WriteFile(filepath.Join(s.dir, FileName), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write report file: %w", err)
		}
	}
	s.last = r
	s.published++
	return nil
}

// Last returns the most recent report and whether one was published.
func (s *Store) Last() (report.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.published > 0
}

// Published counts successful publications.
func (s *Store) Published() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}
