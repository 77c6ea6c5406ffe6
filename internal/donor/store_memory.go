package donor

import (
	"context"
	"sort"
	"sync"

	"lifelink/internal/bloodtype"
	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
)

// InMemoryStore is the development and test implementation of Store.
type InMemoryStore struct {
	mu        sync.RWMutex
	profiles  map[domain.DonorID]Profile
	donations map[domain.DonorID][]Donation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles:  make(map[domain.DonorID]Profile),
		donations: make(map[domain.DonorID][]Donation),
	}
}

func (s *InMemoryStore) UpsertProfile(_ context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
	return nil
}

func (s *InMemoryStore) GetProfile(_ context.Context, id domain.DonorID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := profile
	return &copied, nil
}

func (s *InMemoryStore) FindByGroups(_ context.Context, groups []bloodtype.Group) ([]Profile, error) {
	wanted := make(map[bloodtype.Group]bool, len(groups))
	for _, g := range groups {
		wanted[g] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Profile
	for _, p := range s.profiles {
		if !p.IsBloodDonor || p.BloodGroup == nil || !wanted[*p.BloodGroup] {
			continue
		}
		out = append(out, p)
	}
	// Map iteration order is random; keep results deterministic for callers.
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) RecordDonation(_ context.Context, donation Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[donation.DonorID]
	if !ok {
		return sentinel.ErrNotFound
	}

	s.donations[donation.DonorID] = append(s.donations[donation.DonorID], donation)

	// Advance, never regress: backfilled older donations must not move the
	// derived date backwards.
	if profile.LastDonationDate == nil || donation.Date.After(*profile.LastDonationDate) {
		date := donation.Date
		profile.LastDonationDate = &date
		profile.UpdatedAt = donation.CreatedAt
		s.profiles[donation.DonorID] = profile
	}
	return nil
}

func (s *InMemoryStore) ListDonations(_ context.Context, donorID domain.DonorID) ([]Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]Donation{}, s.donations[donorID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}
