package handler_test

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelink/internal/bloodtype"
	"lifelink/internal/notify"
	"lifelink/internal/requisition"
	"lifelink/internal/response"
	"lifelink/internal/response/handler"
	"lifelink/internal/transport"
	"lifelink/pkg/domain"
	"lifelink/pkg/testutil"
)

type env struct {
	srv     http.Handler
	reqSvc  *requisition.Service
	notify  *notify.Service
	reqID   domain.RequisitionID
	ownerID domain.RequesterID
}

// newEnv builds a requisition needing 1 unit and the response endpoints
// around real in-memory services.
func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	reqSvc, err := requisition.New(requisition.NewInMemoryStore(), nil, requisition.WithLogger(logger))
	require.NoError(t, err)

	notifySvc, err := notify.New(notify.NewInMemoryStore(), transport.NewLogDispatcher(logger))
	require.NoError(t, err)

	aggregator, err := response.New(response.NewInMemoryStore(), reqSvc, notifySvc)
	require.NoError(t, err)

	ownerID := domain.NewRequesterID()
	created, err := reqSvc.Create(t.Context(), requisition.CreateInput{
		RequesterID:   ownerID,
		PatientName:   "R. Sharma",
		HospitalName:  "City General",
		ContactNumber: "+1-555-0100",
		BloodGroup:    bloodtype.APos,
		UnitsNeeded:   1,
		Location:      domain.Location{City: "Pune"},
		RequiredBy:    time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	handler.New(aggregator, logger).Register(r)
	return &env{srv: r, reqSvc: reqSvc, notify: notifySvc, reqID: created.ID, ownerID: ownerID}
}

func (e *env) notifiedDonor(t *testing.T) domain.DonorID {
	t.Helper()
	donorID := domain.NewDonorID()
	r, err := e.reqSvc.Get(t.Context(), e.reqID)
	require.NoError(t, err)
	_, err = e.notify.NotifyAll(t.Context(), r, []domain.DonorID{donorID}, "")
	require.NoError(t, err)
	return donorID
}

func TestHandleRecordWilling(t *testing.T) {
	e := newEnv(t)
	donorID := e.notifiedDonor(t)

	rr := testutil.DoRequest(e.srv, testutil.NewJSONRequest(t, http.MethodPost,
		"/requisitions/"+e.reqID.String()+"/responses",
		map[string]string{"donor_id": donorID.String(), "response": "WILLING"},
	))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	ack := testutil.UnmarshalResponse[handler.AckResponse](t, rr)
	assert.Equal(t, "WILLING", ack.Response)
	assert.Equal(t, 1, ack.WillingDonors)
	assert.True(t, ack.Fulfilled, "single unit requisition fulfills on first willing donor")
}

func TestHandleRecordWithoutNotification(t *testing.T) {
	e := newEnv(t)

	rr := testutil.DoRequest(e.srv, testutil.NewJSONRequest(t, http.MethodPost,
		"/requisitions/"+e.reqID.String()+"/responses",
		map[string]string{"donor_id": domain.NewDonorID().String(), "response": "WILLING"},
	))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "not_notified")
}

func TestHandleRecordUnknownKind(t *testing.T) {
	e := newEnv(t)
	donorID := e.notifiedDonor(t)

	rr := testutil.DoRequest(e.srv, testutil.NewJSONRequest(t, http.MethodPost,
		"/requisitions/"+e.reqID.String()+"/responses",
		map[string]string{"donor_id": donorID.String(), "response": "MAYBE"},
	))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestHandleRecordAgainstCancelled(t *testing.T) {
	e := newEnv(t)
	donorID := e.notifiedDonor(t)
	require.NoError(t, e.reqSvc.Cancel(t.Context(), e.reqID, e.ownerID))

	rr := testutil.DoRequest(e.srv, testutil.NewJSONRequest(t, http.MethodPost,
		"/requisitions/"+e.reqID.String()+"/responses",
		map[string]string{"donor_id": donorID.String(), "response": "WILLING"},
	))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "requisition_not_active")
}

func TestHandleListAndGet(t *testing.T) {
	e := newEnv(t)
	donorID := e.notifiedDonor(t)

	rr := testutil.DoRequest(e.srv, testutil.NewJSONRequest(t, http.MethodPost,
		"/requisitions/"+e.reqID.String()+"/responses",
		map[string]string{"donor_id": donorID.String(), "response": "NOT_AVAILABLE", "message": "travelling"},
	))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoRequest(e.srv, testutil.NewJSONRequest(t, http.MethodGet,
		"/requisitions/"+e.reqID.String()+"/responses", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	list := testutil.UnmarshalResponse[[]handler.ResponseBody](t, rr)
	require.Len(t, *list, 1)
	assert.Equal(t, "NOT_AVAILABLE", (*list)[0].Response)

	rr = testutil.DoRequest(e.srv, testutil.NewJSONRequest(t, http.MethodGet,
		"/requisitions/"+e.reqID.String()+"/responses/"+donorID.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	got := testutil.UnmarshalResponse[handler.ResponseBody](t, rr)
	assert.Equal(t, "travelling", got.Message)
}
