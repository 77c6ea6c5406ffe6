package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
)

type pairKey struct {
	requisitionID domain.RequisitionID
	donorID       domain.DonorID
}

// InMemoryStore is the development and test implementation of Store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[pairKey]Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[pairKey]Notification)}
}

func (s *InMemoryStore) Insert(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{n.RequisitionID, n.DonorID}
	if _, exists := s.records[key]; exists {
		return sentinel.ErrDuplicate
	}
	s.records[key] = *n
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.records[pairKey{requisitionID, donorID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := n
	return &copied, nil
}

func (s *InMemoryStore) ListByRequisition(_ context.Context, requisitionID domain.RequisitionID) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.records {
		if n.RequisitionID == requisitionID {
			out = append(out, n)
		}
	}
	sortOldestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListByDonor(_ context.Context, donorID domain.DonorID, offset, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.records {
		if n.DonorID == donorID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NotifiedAt.After(out[j].NotifiedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) ListRetryEligible(_ context.Context, requisitionID domain.RequisitionID) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.records {
		if n.RequisitionID == requisitionID && n.RetryEligible {
			out = append(out, n)
		}
	}
	sortOldestFirst(out)
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, to Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{requisitionID, donorID}
	n, ok := s.records[key]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if !CanAdvance(n.Status, to) {
		return false, nil
	}
	n.Status = to
	n.RetryEligible = false
	n.UpdatedAt = at
	s.records[key] = n
	return true, nil
}

func (s *InMemoryStore) SetRetryEligible(_ context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, eligible bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{requisitionID, donorID}
	n, ok := s.records[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	n.RetryEligible = eligible
	n.UpdatedAt = at
	s.records[key] = n
	return nil
}

func sortOldestFirst(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].NotifiedAt.Equal(ns[j].NotifiedAt) {
			return ns[i].DonorID.String() < ns[j].DonorID.String()
		}
		return ns[i].NotifiedAt.Before(ns[j].NotifiedAt)
	})
}
