package memory

import (
	"context"
	"fmt"
	"sync"

	"diarias/internal/report"
	ports "diarias/internal/sheets"
)

// Store keeps every written workbook in memory.
type Store struct {
	mu     sync.Mutex
	writes []report.Workbook
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store { return &Store{} }

// WriteReport records the workbook and returns a synthetic reference.
func (s *Store) WriteReport(_ context.Context, wb report.Workbook) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, wb)
	return fmt.Sprintf("mem:%d", len(s.writes)), nil
}

// Last returns the most recent workbook.
func (s *Store) Last() (report.Workbook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.writes) == 0 {
		return report.Workbook{}, false
	}
	return s.writes[len(s.writes)-1], true
}

// Count returns how many workbooks were written.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}
