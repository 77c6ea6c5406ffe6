package response

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"lifelink/internal/bloodtype"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// allowAll treats the given donors as notified.
type allowAll struct {
	mu     sync.Mutex
	donors map[domain.DonorID]bool
}

func newAllowAll(ids ...domain.DonorID) *allowAll {
	m := make(map[domain.DonorID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return &allowAll{donors: m}
}

func (a *allowAll) WasNotified(_ context.Context, _ domain.RequisitionID, donorID domain.DonorID) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.donors[donorID], nil
}

type AggregatorSuite struct {
	suite.Suite
	reqStore *requisition.InMemoryStore
	reqSvc   *requisition.Service
	store    *InMemoryStore
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.reqStore = requisition.NewInMemoryStore()
	svc, err := requisition.New(s.reqStore, nil)
	s.Require().NoError(err)
	s.reqSvc = svc
	s.store = NewInMemoryStore()
}

func (s *AggregatorSuite) newRequisition(units int) *requisition.Requisition {
	r, err := s.reqSvc.Create(context.Background(), requisition.CreateInput{
		RequesterID:   domain.NewRequesterID(),
		PatientName:   "R. Sharma",
		HospitalName:  "City General",
		ContactNumber: "+1-555-0100",
		BloodGroup:    bloodtype.APos,
		UnitsNeeded:   units,
		Location:      domain.Location{City: "Pune"},
		RequiredBy:    time.Now().Add(24 * time.Hour),
	})
	s.Require().NoError(err)
	return r
}

func (s *AggregatorSuite) newAggregator(notified ...domain.DonorID) *Aggregator {
	agg, err := New(s.store, s.reqSvc, newAllowAll(notified...))
	s.Require().NoError(err)
	return agg
}

func (s *AggregatorSuite) TestRecordWilling() {
	r := s.newRequisition(2)
	donorID := domain.NewDonorID()
	agg := s.newAggregator(donorID)

	ack, err := agg.Record(context.Background(), r.ID, donorID, Willing, "can be there in an hour")
	s.Require().NoError(err)
	s.Equal(1, ack.WillingDonors)
	s.False(ack.Fulfilled)

	stored, err := s.reqStore.Get(context.Background(), r.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.WillingDonors)
	s.Equal(requisition.StatusActive, stored.Status)
}

func (s *AggregatorSuite) TestRecordReachesThreshold() {
	r := s.newRequisition(2)
	donorA, donorB := domain.NewDonorID(), domain.NewDonorID()
	agg := s.newAggregator(donorA, donorB)

	_, err := agg.Record(context.Background(), r.ID, donorA, Willing, "")
	s.Require().NoError(err)

	ack, err := agg.Record(context.Background(), r.ID, donorB, Willing, "")
	s.Require().NoError(err)
	s.Equal(2, ack.WillingDonors)
	s.True(ack.Fulfilled)

	stored, err := s.reqStore.Get(context.Background(), r.ID)
	s.Require().NoError(err)
	s.Equal(requisition.StatusFulfilled, stored.Status)
}

func (s *AggregatorSuite) TestRecordOverwritesPreviousAnswer() {
	r := s.newRequisition(2)
	donorID := domain.NewDonorID()
	agg := s.newAggregator(donorID)

	_, err := agg.Record(context.Background(), r.ID, donorID, Willing, "")
	s.Require().NoError(err)

	// Changing the answer drops the willing count back to zero.
	ack, err := agg.Record(context.Background(), r.ID, donorID, NotAvailable, "out of town")
	s.Require().NoError(err)
	s.Equal(0, ack.WillingDonors)

	// Flipping back counts once, never twice.
	ack, err = agg.Record(context.Background(), r.ID, donorID, Willing, "")
	s.Require().NoError(err)
	s.Equal(1, ack.WillingDonors)
}

func (s *AggregatorSuite) TestRecordWithoutNotification() {
	r := s.newRequisition(1)
	agg := s.newAggregator() // no donors notified

	_, err := agg.Record(context.Background(), r.ID, domain.NewDonorID(), Willing, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotNotified))
}

func (s *AggregatorSuite) TestRecordAgainstCancelled() {
	r := s.newRequisition(1)
	s.Require().NoError(s.reqSvc.Cancel(context.Background(), r.ID, r.RequesterID))

	donorID := domain.NewDonorID()
	agg := s.newAggregator(donorID)

	_, err := agg.Record(context.Background(), r.ID, donorID, Willing, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRequisitionNotActive))
}

func (s *AggregatorSuite) TestRecordAgainstFulfilledIsQuietAck() {
	r := s.newRequisition(1)
	donorA, donorB := domain.NewDonorID(), domain.NewDonorID()
	agg := s.newAggregator(donorA, donorB)

	ack, err := agg.Record(context.Background(), r.ID, donorA, Willing, "")
	s.Require().NoError(err)
	s.True(ack.Fulfilled)

	// A second donor answering moments later is acknowledged, not bounced,
	// and the stored counter still reflects their row.
	ack, err = agg.Record(context.Background(), r.ID, donorB, Willing, "")
	s.Require().NoError(err)
	s.False(ack.Fulfilled)
	s.Equal(2, ack.WillingDonors)

	stored, err := s.reqStore.Get(context.Background(), r.ID)
	s.Require().NoError(err)
	s.Equal(requisition.StatusFulfilled, stored.Status)
	s.Equal(2, stored.WillingDonors)
}

func (s *AggregatorSuite) TestRecordInvalidKind() {
	r := s.newRequisition(1)
	donorID := domain.NewDonorID()
	agg := s.newAggregator(donorID)

	_, err := agg.Record(context.Background(), r.ID, donorID, Kind("MAYBE"), "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// TestConcurrentWillingResponses has many notified donors answer WILLING at
// once against a requisition needing one unit. Exactly one response may
// observe the fulfillment; the requisition must end FULFILLED with a count
// equal to the willing rows.
func TestConcurrentWillingResponses(t *testing.T) {
	reqStore := requisition.NewInMemoryStore()
	reqSvc, err := requisition.New(reqStore, nil)
	require.NoError(t, err)

	r, err := reqSvc.Create(context.Background(), requisition.CreateInput{
		RequesterID:   domain.NewRequesterID(),
		PatientName:   "R. Sharma",
		HospitalName:  "City General",
		ContactNumber: "+1-555-0100",
		BloodGroup:    bloodtype.BPos,
		UnitsNeeded:   1,
		Location:      domain.Location{City: "Pune"},
		RequiredBy:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	donors := make([]domain.DonorID, 12)
	for i := range donors {
		donors[i] = domain.NewDonorID()
	}
	respStore := NewInMemoryStore()
	agg, err := New(respStore, reqSvc, newAllowAll(donors...))
	require.NoError(t, err)

	var wg sync.WaitGroup
	fulfillments := make(chan bool, len(donors))
	for _, donorID := range donors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ack, err := agg.Record(context.Background(), r.ID, donorID, Willing, "")
			require.NoError(t, err)
			fulfillments <- ack.Fulfilled
		}()
	}
	wg.Wait()
	close(fulfillments)

	won := 0
	for fulfilled := range fulfillments {
		if fulfilled {
			won++
		}
	}
	require.Equal(t, 1, won, "exactly one response should trigger fulfillment")

	stored, err := reqStore.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, requisition.StatusFulfilled, stored.Status)

	rows, err := respStore.CountWilling(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, rows, stored.WillingDonors, "stored count must equal the willing rows")
}

// TestConcurrentResponsesCountStaysExact floods a requisition that cannot be
// fulfilled with concurrent WILLING answers and checks the stored counter
// against the response rows afterwards. A writer holding a stale count must
// never clobber a fresher one.
func TestConcurrentResponsesCountStaysExact(t *testing.T) {
	reqStore := requisition.NewInMemoryStore()
	reqSvc, err := requisition.New(reqStore, nil)
	require.NoError(t, err)

	r, err := reqSvc.Create(context.Background(), requisition.CreateInput{
		RequesterID:   domain.NewRequesterID(),
		PatientName:   "R. Sharma",
		HospitalName:  "City General",
		ContactNumber: "+1-555-0100",
		BloodGroup:    bloodtype.BPos,
		UnitsNeeded:   100,
		Location:      domain.Location{City: "Pune"},
		RequiredBy:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	donors := make([]domain.DonorID, 64)
	for i := range donors {
		donors[i] = domain.NewDonorID()
	}
	respStore := NewInMemoryStore()
	agg, err := New(respStore, reqSvc, newAllowAll(donors...))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, donorID := range donors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := agg.Record(context.Background(), r.ID, donorID, Willing, "")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	rows, err := respStore.CountWilling(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, len(donors), rows)

	stored, err := reqStore.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, requisition.StatusActive, stored.Status)
	require.Equal(t, rows, stored.WillingDonors, "stored count must equal the willing rows")
}
