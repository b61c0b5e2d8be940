// Package audit lists and exports the append-only audit trail.
package audit

import (
	"context"
	"strings"
)

// MaxExportRows caps a CSV export.
const MaxExportRows = 10000

// Service coordinates audit trail reads.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a window of entries and the total count.
func (s *Service) List(ctx context.Context, f Filters) (Page, error) {
	f = normalize(f)
	page, err := s.repo.List(ctx, f)
	if err != nil {
		return Page{}, err
	}
	if page.Logs == nil {
		page.Logs = []Entry{}
	}
	return page, nil
}

// Export returns every matching entry up to MaxExportRows.
func (s *Service) Export(ctx context.Context, f Filters) ([]Entry, error) {
	return s.repo.Export(ctx, normalize(f), MaxExportRows)
}

func normalize(f Filters) Filters {
	f.Search = strings.TrimSpace(f.Search)
	f.Action = strings.ToUpper(strings.TrimSpace(f.Action))
	return f
}
