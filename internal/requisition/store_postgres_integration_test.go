//go:build integration

package requisition_test

import (
	"context"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"lifelink/internal/bloodtype"
	"lifelink/internal/platform/postgres"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/testutil/containers"
)

func newRequisition(group bloodtype.Group, city string, requiredBy time.Time) *requisition.Requisition {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &requisition.Requisition{
		ID:            domain.NewRequisitionID(),
		RequesterID:   domain.NewRequesterID(),
		PatientName:   "R. Sharma",
		HospitalName:  "City General",
		ContactNumber: "+1-555-0100",
		BloodGroup:    group,
		UnitsNeeded:   2,
		Urgency:       requisition.UrgencyHigh,
		Location:      domain.Location{City: city, State: "MH"},
		RequiredBy:    requiredBy.UTC().Truncate(time.Microsecond),
		Status:        requisition.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.EnsureSchema(ctx, pg.DB))

	store := requisition.NewPostgres(pg.DB)

	t.Run("create and get round trip", func(t *testing.T) {
		r := newRequisition(bloodtype.APos, "Pune", time.Now().Add(24*time.Hour))
		require.NoError(t, store.Create(ctx, r))

		got, err := store.Get(ctx, r.ID)
		require.NoError(t, err)
		require.Equal(t, r.PatientName, got.PatientName)
		require.Equal(t, r.BloodGroup, got.BloodGroup)
		require.Equal(t, requisition.StatusActive, got.Status)
		require.WithinDuration(t, r.RequiredBy, got.RequiredBy, time.Millisecond)
	})

	t.Run("duplicate create", func(t *testing.T) {
		r := newRequisition(bloodtype.APos, "Pune", time.Now().Add(24*time.Hour))
		require.NoError(t, store.Create(ctx, r))
		require.ErrorIs(t, store.Create(ctx, r), sentinel.ErrDuplicate)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, domain.NewRequisitionID())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("transition compare and set", func(t *testing.T) {
		r := newRequisition(bloodtype.BNeg, "Pune", time.Now().Add(24*time.Hour))
		require.NoError(t, store.Create(ctx, r))

		won, err := store.TransitionStatus(ctx, r.ID, requisition.StatusActive, requisition.StatusFulfilled, time.Now())
		require.NoError(t, err)
		require.True(t, won)

		// Second attempt loses without error.
		won, err = store.TransitionStatus(ctx, r.ID, requisition.StatusActive, requisition.StatusCancelled, time.Now())
		require.NoError(t, err)
		require.False(t, won)

		got, err := store.Get(ctx, r.ID)
		require.NoError(t, err)
		require.Equal(t, requisition.StatusFulfilled, got.Status)
	})

	t.Run("transition missing requisition", func(t *testing.T) {
		_, err := store.TransitionStatus(ctx, domain.NewRequisitionID(), requisition.StatusActive, requisition.StatusExpired, time.Now())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list active compatible filters by group and location", func(t *testing.T) {
		match := newRequisition(bloodtype.ABPos, "Nagpur", time.Now().Add(24*time.Hour))
		require.NoError(t, store.Create(ctx, match))

		elsewhere := newRequisition(bloodtype.ABPos, "Chennai", time.Now().Add(24*time.Hour))
		elsewhere.Location.State = "TN"
		require.NoError(t, store.Create(ctx, elsewhere))

		out, err := store.ListActiveCompatible(ctx, []bloodtype.Group{bloodtype.ABPos}, "Nagpur", 0, 10)
		require.NoError(t, err)
		require.Len(t, out, 1)
		require.Equal(t, match.ID, out[0].ID)
	})

	t.Run("list expired active", func(t *testing.T) {
		overdue := newRequisition(bloodtype.OPos, "Pune", time.Now().Add(-time.Hour))
		require.NoError(t, store.Create(ctx, overdue))

		out, err := store.ListExpiredActive(ctx, time.Now())
		require.NoError(t, err)

		found := false
		for _, r := range out {
			require.Equal(t, requisition.StatusActive, r.Status)
			if r.ID == overdue.ID {
				found = true
			}
		}
		require.True(t, found)
	})

	t.Run("set willing donors", func(t *testing.T) {
		r := newRequisition(bloodtype.ANeg, "Pune", time.Now().Add(24*time.Hour))
		require.NoError(t, store.Create(ctx, r))

		recount := func(context.Context) (int, error) { return 3, nil }
		n, err := store.SetWillingDonors(ctx, r.ID, recount, time.Now())
		require.NoError(t, err)
		require.Equal(t, 3, n)
		got, err := store.Get(ctx, r.ID)
		require.NoError(t, err)
		require.Equal(t, 3, got.WillingDonors)

		_, err = store.SetWillingDonors(ctx, domain.NewRequisitionID(), recount, time.Now())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
