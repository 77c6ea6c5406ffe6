//go:build integration

package notify_test

import (
	"context"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"lifelink/internal/bloodtype"
	"lifelink/internal/notify"
	"lifelink/internal/platform/postgres"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.EnsureSchema(ctx, pg.DB))

	// Notifications reference a requisition row.
	reqStore := requisition.NewPostgres(pg.DB)
	now := time.Now().UTC().Truncate(time.Microsecond)
	r := &requisition.Requisition{
		ID:            domain.NewRequisitionID(),
		RequesterID:   domain.NewRequesterID(),
		PatientName:   "R. Sharma",
		HospitalName:  "City General",
		ContactNumber: "+1-555-0100",
		BloodGroup:    bloodtype.APos,
		UnitsNeeded:   1,
		Urgency:       requisition.UrgencyMedium,
		Location:      domain.Location{City: "Pune", State: "MH"},
		RequiredBy:    now.Add(24 * time.Hour),
		Status:        requisition.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, reqStore.Create(ctx, r))

	store := notify.NewPostgresStore(pg.DB)
	donorID := domain.NewDonorID()

	t.Run("insert is unique per pair", func(t *testing.T) {
		n := &notify.Notification{
			RequisitionID: r.ID,
			DonorID:       donorID,
			Message:       "2 unit(s) of A+ blood needed at City General",
			Status:        notify.StatusSent,
			NotifiedAt:    now,
			UpdatedAt:     now,
		}
		require.NoError(t, store.Insert(ctx, n))
		require.ErrorIs(t, store.Insert(ctx, n), sentinel.ErrDuplicate)

		got, err := store.Get(ctx, r.ID, donorID)
		require.NoError(t, err)
		require.Equal(t, n.Message, got.Message)
	})

	t.Run("status advances monotonically", func(t *testing.T) {
		advanced, err := store.UpdateStatus(ctx, r.ID, donorID, notify.StatusRead, time.Now())
		require.NoError(t, err)
		require.True(t, advanced)

		// READ never regresses to DELIVERED.
		advanced, err = store.UpdateStatus(ctx, r.ID, donorID, notify.StatusDelivered, time.Now())
		require.NoError(t, err)
		require.False(t, advanced)

		got, err := store.Get(ctx, r.ID, donorID)
		require.NoError(t, err)
		require.Equal(t, notify.StatusRead, got.Status)
	})

	t.Run("retry flag round trip", func(t *testing.T) {
		other := domain.NewDonorID()
		require.NoError(t, store.Insert(ctx, &notify.Notification{
			RequisitionID: r.ID,
			DonorID:       other,
			Status:        notify.StatusSent,
			RetryEligible: true,
			NotifiedAt:    now,
			UpdatedAt:     now,
		}))

		pending, err := store.ListRetryEligible(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, other, pending[0].DonorID)

		require.NoError(t, store.SetRetryEligible(ctx, r.ID, other, false, time.Now()))
		pending, err = store.ListRetryEligible(ctx, r.ID)
		require.NoError(t, err)
		require.Empty(t, pending)
	})

	t.Run("update missing pair", func(t *testing.T) {
		_, err := store.UpdateStatus(ctx, r.ID, domain.NewDonorID(), notify.StatusDelivered, time.Now())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
