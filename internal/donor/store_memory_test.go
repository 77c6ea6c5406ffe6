package donor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"lifelink/internal/bloodtype"
	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) seedProfile(group bloodtype.Group, active bool) Profile {
	p := Profile{
		ID:           domain.NewDonorID(),
		Name:         "Donor",
		BloodGroup:   &group,
		IsBloodDonor: active,
		Location:     domain.Location{City: "Pune", State: "Maharashtra"},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(s.T(), s.store.UpsertProfile(context.Background(), p))
	return p
}

func (s *InMemoryStoreSuite) TestGetProfileNotFound() {
	_, err := s.store.GetProfile(context.Background(), domain.NewDonorID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindByGroupsFilters() {
	oneg := s.seedProfile(bloodtype.ONeg, true)
	s.seedProfile(bloodtype.APos, true)
	s.seedProfile(bloodtype.ONeg, false) // opted out

	noGroup := Profile{ID: domain.NewDonorID(), Name: "Incomplete", IsBloodDonor: true}
	s.Require().NoError(s.store.UpsertProfile(context.Background(), noGroup))

	found, err := s.store.FindByGroups(context.Background(), []bloodtype.Group{bloodtype.ONeg})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(oneg.ID, found[0].ID)
}

func (s *InMemoryStoreSuite) TestRecordDonationAdvancesDerivedDate() {
	p := s.seedProfile(bloodtype.BPos, true)
	ctx := context.Background()

	recent := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.RecordDonation(ctx, Donation{
		ID: domain.NewDonationID(), DonorID: p.ID, Date: recent, Units: 1, CreatedAt: time.Now(),
	}))

	loaded, err := s.store.GetProfile(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(loaded.LastDonationDate)
	s.True(loaded.LastDonationDate.Equal(recent))

	// Backfilling an older donation must not regress the derived date.
	s.Require().NoError(s.store.RecordDonation(ctx, Donation{
		ID: domain.NewDonationID(), DonorID: p.ID, Date: older, Units: 2, CreatedAt: time.Now(),
	}))

	loaded, err = s.store.GetProfile(ctx, p.ID)
	s.Require().NoError(err)
	s.True(loaded.LastDonationDate.Equal(recent), "last_donation_date must stay at max(donated_at)")

	donations, err := s.store.ListDonations(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(donations, 2)
	s.True(donations[0].Date.After(donations[1].Date), "ledger is most recent first")
}

func (s *InMemoryStoreSuite) TestRecordDonationUnknownDonor() {
	err := s.store.RecordDonation(context.Background(), Donation{
		ID: domain.NewDonationID(), DonorID: domain.NewDonorID(), Date: time.Now(), Units: 1,
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
