// Package audit records and queries the append-only access log. Every read and
// write of the governance engine is mirrored here, including denied attempts.
package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"startup-dataroom/backend/internal/apperr"
	"startup-dataroom/backend/internal/audit/domain"
	auditrepo "startup-dataroom/backend/internal/audit/repository"
)

// Criteria filters the access log. Zero-value fields do not filter.
type Criteria struct {
	Action     domain.Action
	DocumentID string
	SessionID  string
	From       time.Time
	To         time.Time
}

// DocumentAccess is one row of the top-documents ranking.
type DocumentAccess struct {
	DocumentID string
	Count      int
	LastAccess time.Time
}

// Stats are aggregate access statistics computed on demand from the full log.
type Stats struct {
	TotalAccess       int
	UniqueActors      int
	ActionBreakdown   map[string]int
	DeviceBreakdown   map[string]int
	TopDocuments      []DocumentAccess
	DailyAccessCounts map[string]int // day (YYYY-MM-DD, UTC) -> count
}

// topDocumentsLimit caps the top-documents ranking.
const topDocumentsLimit = 5

// Service validates, records, and queries access log entries.
type Service struct {
	repo auditrepo.Repository
	nowF func() time.Time
}

// NewService returns an audit service backed by repo.
func NewService(repo auditrepo.Repository) *Service {
	return &Service{repo: repo, nowF: func() time.Time { return time.Now().UTC() }}
}

// Record appends one entry. It fails only on malformed input: unknown action,
// or an entry naming neither a document nor a session. Empty actors are
// recorded as anonymous; zero timestamps get the current time.
func (s *Service) Record(ctx context.Context, e *domain.Entry) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", apperr.ErrInvalidEntry)
	}
	if !domain.ValidAction(e.Action) {
		return fmt.Errorf("%w: unknown action %q", apperr.ErrInvalidEntry, e.Action)
	}
	if e.DocumentID == "" && e.SessionID == "" {
		return fmt.Errorf("%w: entry names neither document nor session", apperr.ErrInvalidEntry)
	}
	cp := *e
	if cp.Actor == "" {
		cp.Actor = domain.AnonymousActor
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = s.nowF()
	}
	return s.repo.Append(ctx, &cp)
}

// Filter returns entries matching the criteria, newest-first. Order is the
// reverse of insertion order; no re-sorting by any other key.
func (s *Service) Filter(ctx context.Context, c Criteria) ([]*domain.Entry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		if c.Action != "" && e.Action != c.Action {
			continue
		}
		if c.DocumentID != "" && e.DocumentID != c.DocumentID {
			continue
		}
		if c.SessionID != "" && e.SessionID != c.SessionID {
			continue
		}
		if !c.From.IsZero() && e.Timestamp.Before(c.From) {
			continue
		}
		if !c.To.IsZero() && e.Timestamp.After(c.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Statistics computes aggregate stats over the full log.
func (s *Service) Statistics(ctx context.Context) (*Stats, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalAccess:       len(entries),
		ActionBreakdown:   make(map[string]int),
		DeviceBreakdown:   make(map[string]int),
		DailyAccessCounts: make(map[string]int),
	}

	actors := make(map[string]struct{})
	type docAgg struct {
		count int
		last  time.Time
	}
	docs := make(map[string]*docAgg)

	for _, e := range entries {
		actors[e.Actor] = struct{}{}
		stats.ActionBreakdown[string(e.Action)]++
		if e.DeviceType != nil && *e.DeviceType != "" {
			stats.DeviceBreakdown[*e.DeviceType]++
		}
		stats.DailyAccessCounts[e.Timestamp.UTC().Format("2006-01-02")]++
		if e.DocumentID != "" {
			agg, ok := docs[e.DocumentID]
			if !ok {
				agg = &docAgg{}
				docs[e.DocumentID] = agg
			}
			agg.count++
			if e.Timestamp.After(agg.last) {
				agg.last = e.Timestamp
			}
		}
	}
	stats.UniqueActors = len(actors)

	top := make([]DocumentAccess, 0, len(docs))
	for id, agg := range docs {
		top = append(top, DocumentAccess{DocumentID: id, Count: agg.count, LastAccess: agg.last})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].LastAccess.After(top[j].LastAccess)
	})
	if len(top) > topDocumentsLimit {
		top = top[:topDocumentsLimit]
	}
	stats.TopDocuments = top

	return stats, nil
}

// Clear irreversibly drops all entries. Callers must gate this behind explicit
// authorization; it is never invoked implicitly.
func (s *Service) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
