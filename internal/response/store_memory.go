package response

import (
	"context"
	"sort"
	"sync"

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
	records map[pairKey]Response
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[pairKey]Response)}
}

func (s *InMemoryStore) Upsert(_ context.Context, r *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[pairKey{r.RequisitionID, r.DonorID}] = *r
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[pairKey{requisitionID, donorID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := r
	return &copied, nil
}

func (s *InMemoryStore) ListByRequisition(_ context.Context, requisitionID domain.RequisitionID) ([]Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Response
	for _, r := range s.records {
		if r.RequisitionID == requisitionID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RespondedAt.Equal(out[j].RespondedAt) {
			return out[i].DonorID.String() < out[j].DonorID.String()
		}
		return out[i].RespondedAt.Before(out[j].RespondedAt)
	})
	return out, nil
}

func (s *InMemoryStore) CountWilling(_ context.Context, requisitionID domain.RequisitionID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.records {
		if r.RequisitionID == requisitionID && r.Kind == Willing {
			count++
		}
	}
	return count, nil
}
