package requisition

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifelink/internal/bloodtype"
	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
)

// InMemoryStore is the development and test implementation of Store. The
// mutex makes TransitionStatus a true compare-and-set.
type InMemoryStore struct {
	mu           sync.RWMutex
	requisitions map[domain.RequisitionID]Requisition
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requisitions: make(map[domain.RequisitionID]Requisition)}
}

func (s *InMemoryStore) Create(_ context.Context, r *Requisition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requisitions[r.ID]; exists {
		return sentinel.ErrDuplicate
	}
	s.requisitions[r.ID] = *r
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.RequisitionID) (*Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requisitions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := r
	return &copied, nil
}

func (s *InMemoryStore) ListByRequester(_ context.Context, requesterID domain.RequesterID, offset, limit int) ([]Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Requisition
	for _, r := range s.requisitions {
		if r.RequesterID == requesterID {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return paginate(out, offset, limit), nil
}

func (s *InMemoryStore) ListActiveCompatible(_ context.Context, groups []bloodtype.Group, location string, offset, limit int) ([]Requisition, error) {
	wanted := make(map[bloodtype.Group]bool, len(groups))
	for _, g := range groups {
		wanted[g] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Requisition
	for _, r := range s.requisitions {
		if r.Status != StatusActive || !wanted[r.BloodGroup] {
			continue
		}
		if location != "" && !r.Location.Matches(location) {
			continue
		}
		out = append(out, r)
	}
	sortNewestFirst(out)
	return paginate(out, offset, limit), nil
}

func (s *InMemoryStore) ListExpiredActive(_ context.Context, now time.Time) ([]Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Requisition
	for _, r := range s.requisitions {
		if r.Status == StatusActive && r.RequiredBy.Before(now) {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) TransitionStatus(_ context.Context, id domain.RequisitionID, from, to Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requisitions[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = at
	s.requisitions[id] = r
	return true, nil
}

func (s *InMemoryStore) SetWillingDonors(ctx context.Context, id domain.RequisitionID, recount RecountFunc, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requisitions[id]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	count, err := recount(ctx)
	if err != nil {
		return 0, err
	}
	r.WillingDonors = count
	r.UpdatedAt = at
	s.requisitions[id] = r
	return count, nil
}

func sortNewestFirst(rs []Requisition) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].ID.String() < rs[j].ID.String()
		}
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
}

func paginate(rs []Requisition, offset, limit int) []Requisition {
	if offset >= len(rs) {
		return nil
	}
	rs = rs[offset:]
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs
}
