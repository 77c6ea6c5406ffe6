package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lifelink/internal/bloodtype"
	"lifelink/internal/donor"
	"lifelink/internal/eligibility"
	"lifelink/internal/notify"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

type fakeFinder struct {
	candidates []donor.Candidate
	gotGroup   bloodtype.Group
	gotLoc     string
	gotLimit   int
}

func (f *fakeFinder) FindCandidates(_ context.Context, g bloodtype.Group, loc string, limit int) ([]donor.Candidate, error) {
	f.gotGroup, f.gotLoc, f.gotLimit = g, loc, limit
	return f.candidates, nil
}

type fakeRequisitions struct {
	r *requisition.Requisition
}

func (f *fakeRequisitions) Get(_ context.Context, id domain.RequisitionID) (*requisition.Requisition, error) {
	if f.r == nil || f.r.ID != id {
		return nil, dErrors.New(dErrors.CodeNotFound, "requisition not found")
	}
	return f.r, nil
}

type fakeNotifier struct {
	result     notify.Result
	gotIDs     []domain.DonorID
	gotMessage string
	retried    int
	retries    int
}

func (f *fakeNotifier) NotifyAll(_ context.Context, _ *requisition.Requisition, ids []domain.DonorID, message string) (notify.Result, error) {
	f.gotIDs = ids
	f.gotMessage = message
	return f.result, nil
}

func (f *fakeNotifier) RetryFailed(_ context.Context, _ *requisition.Requisition) (int, error) {
	f.retries++
	return f.retried, nil
}

func candidate(eligible bool) donor.Candidate {
	group := bloodtype.ONeg
	return donor.Candidate{
		Profile: donor.Profile{
			ID:           domain.NewDonorID(),
			BloodGroup:   &group,
			IsBloodDonor: true,
		},
		Eligibility: eligibility.Assessment{Eligible: eligible},
	}
}

func activeRequisition() *requisition.Requisition {
	return &requisition.Requisition{
		ID:          domain.NewRequisitionID(),
		RequesterID: domain.NewRequesterID(),
		BloodGroup:  bloodtype.APos,
		UnitsNeeded: 2,
		Location:    domain.Location{City: "Pune", State: "MH"},
		RequiredBy:  time.Now().Add(24 * time.Hour),
		Status:      requisition.StatusActive,
	}
}

func TestRunNotifiesOnlyEligible(t *testing.T) {
	eligibleA, eligibleB := candidate(true), candidate(true)
	ineligible := candidate(false)
	finder := &fakeFinder{candidates: []donor.Candidate{eligibleA, ineligible, eligibleB}}
	r := activeRequisition()
	notifier := &fakeNotifier{result: notify.Result{Notified: 2}}

	m, err := New(finder, &fakeRequisitions{r: r}, notifier, WithFanOutLimit(10))
	require.NoError(t, err)

	res, err := m.Run(context.Background(), r.ID, "")
	require.NoError(t, err)

	require.Equal(t, bloodtype.APos, finder.gotGroup)
	require.Equal(t, "Pune", finder.gotLoc)
	require.Equal(t, 10, finder.gotLimit)

	require.ElementsMatch(t,
		[]domain.DonorID{eligibleA.Profile.ID, eligibleB.Profile.ID},
		notifier.gotIDs,
	)
	// Ineligible candidates are reported, not alerted.
	require.Len(t, res.Candidates, 3)
	require.Equal(t, 2, res.Notify.Notified)
}

func TestRunNoEligibleDonors(t *testing.T) {
	finder := &fakeFinder{candidates: []donor.Candidate{candidate(false)}}
	r := activeRequisition()

	m, err := New(finder, &fakeRequisitions{r: r}, &fakeNotifier{})
	require.NoError(t, err)

	_, err = m.Run(context.Background(), r.ID, "")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNoEligibleDonors))
}

func TestRunRequisitionNotActive(t *testing.T) {
	r := activeRequisition()
	r.Status = requisition.StatusCancelled

	m, err := New(&fakeFinder{}, &fakeRequisitions{r: r}, &fakeNotifier{})
	require.NoError(t, err)

	_, err = m.Run(context.Background(), r.ID, "")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeRequisitionNotActive))
}

func TestRunMissingRequisition(t *testing.T) {
	m, err := New(&fakeFinder{}, &fakeRequisitions{}, &fakeNotifier{})
	require.NoError(t, err)

	_, err = m.Run(context.Background(), domain.NewRequisitionID(), "")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRunRetriesFailedDispatches(t *testing.T) {
	finder := &fakeFinder{candidates: []donor.Candidate{candidate(true), candidate(true)}}
	r := activeRequisition()
	notifier := &fakeNotifier{result: notify.Result{Notified: 1, Failed: 1}, retried: 1}

	m, err := New(finder, &fakeRequisitions{r: r}, notifier, WithRetryBackoff(time.Millisecond))
	require.NoError(t, err)

	res, err := m.Run(context.Background(), r.ID, "")
	require.NoError(t, err)
	require.Equal(t, 1, notifier.retries)
	require.Zero(t, res.Notify.Failed)
}

func TestRunLocationFallsBackToState(t *testing.T) {
	finder := &fakeFinder{candidates: []donor.Candidate{candidate(true)}}
	r := activeRequisition()
	r.Location.City = ""
	notifier := &fakeNotifier{result: notify.Result{Notified: 1}}

	m, err := New(finder, &fakeRequisitions{r: r}, notifier)
	require.NoError(t, err)

	_, err = m.Run(context.Background(), r.ID, "")
	require.NoError(t, err)
	require.Equal(t, "MH", finder.gotLoc)
}

func TestRunThreadsMessageToNotifier(t *testing.T) {
	finder := &fakeFinder{candidates: []donor.Candidate{candidate(true)}}
	r := activeRequisition()
	notifier := &fakeNotifier{result: notify.Result{Notified: 1}}

	m, err := New(finder, &fakeRequisitions{r: r}, notifier)
	require.NoError(t, err)

	_, err = m.Run(context.Background(), r.ID, "please come to ward 4 reception")
	require.NoError(t, err)
	require.Equal(t, "please come to ward 4 reception", notifier.gotMessage)
}
