package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnitBishwas/swiss-event-handler/internal/api/dto"
	"github.com/AnitBishwas/swiss-event-handler/internal/model/event"
)

type notifyingPurchaseSink struct {
	got chan *dto.OrderCreate
}

func (s *notifyingPurchaseSink) Record(_ context.Context, payload *dto.OrderCreate) error {
	s.got <- payload
	return nil
}

type notifyingDeliverySink struct {
	got chan *dto.FulfillmentUpdate
}

func (s *notifyingDeliverySink) OrderDelivered(_ context.Context, f *dto.FulfillmentUpdate) error {
	s.got <- f
	return nil
}

type stubInserter struct {
	rows []event.Row
	err  error
}

func (s *stubInserter) Insert(_ context.Context, rows ...event.Row) error {
	s.rows = append(s.rows, rows...)
	return s.err
}

type stubStarter struct {
	urls []string
}

func (s *stubStarter) Start(reportURL string) {
	s.urls = append(s.urls, reportURL)
}

func awaitPayload[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("background task never ran")
		panic("unreachable")
	}
}

func TestWebhookHandler_OrderCreate(t *testing.T) {
	purchases := &notifyingPurchaseSink{got: make(chan *dto.OrderCreate, 1)}
	h := NewWebhookHandler(purchases, nil, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create",
		strings.NewReader(`{"id":5551234,"name":"#1001","total_price":"499.00"}`))
	rec := httptest.NewRecorder()
	h.OrderCreate(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := awaitPayload(t, purchases.got)
	assert.Equal(t, "#1001", payload.Name)
	assert.Equal(t, int64(5551234), payload.ID)
}

func TestWebhookHandler_OrderCreate_BadPayload(t *testing.T) {
	purchases := &notifyingPurchaseSink{got: make(chan *dto.OrderCreate, 1)}
	h := NewWebhookHandler(purchases, nil, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create",
		strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	h.OrderCreate(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code,
		"webhooks are acknowledged even when the payload is broken")
	assert.Empty(t, purchases.got)
}

func TestWebhookHandler_FulfillmentUpdate_Delivered(t *testing.T) {
	deliveries := &notifyingDeliverySink{got: make(chan *dto.FulfillmentUpdate, 1)}
	h := NewWebhookHandler(nil, deliveries, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/fulfillments/update",
		strings.NewReader(`{"order_id":654321,"shipment_status":"delivered"}`))
	rec := httptest.NewRecorder()
	h.FulfillmentUpdate(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := awaitPayload(t, deliveries.got)
	assert.Equal(t, int64(654321), payload.OrderID)
}

func TestWebhookHandler_FulfillmentUpdate_Skipped(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "in transit", body: `{"order_id":654321,"shipment_status":"in_transit"}`},
		{name: "missing order id", body: `{"shipment_status":"delivered"}`},
		{name: "broken payload", body: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deliveries := &notifyingDeliverySink{got: make(chan *dto.FulfillmentUpdate, 1)}
			h := NewWebhookHandler(nil, deliveries, slog.Default())

			req := httptest.NewRequest(http.MethodPost, "/webhooks/fulfillments/update",
				strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.FulfillmentUpdate(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, deliveries.got)
		})
	}
}

func TestWebhookHandler_OrderFulfillment(t *testing.T) {
	h := NewWebhookHandler(nil, nil, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/fulfillment",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.OrderFulfillment(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventHandler_PostEvent(t *testing.T) {
	sink := &stubInserter{}
	h := NewEventHandler(sink, slog.Default())

	body := `{"event":"page_viewed","session_id":"s-1","user_id":"u-1","page":"/"}`
	req := httptest.NewRequest(http.MethodPost, "/public/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.PostEvent(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	require.Len(t, sink.rows, 1)
	row := sink.rows[0]
	assert.Equal(t, "page_viewed", row.EventName)
	require.NotNil(t, row.SessionID)
	assert.Equal(t, "s-1", *row.SessionID)
	require.NotNil(t, row.UserID)
	assert.Equal(t, "u-1", *row.UserID)
	assert.Nil(t, row.DeviceID)
}

func TestEventHandler_PostEvent_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		sink *stubInserter
	}{
		{name: "broken payload", body: `{`, sink: &stubInserter{}},
		{name: "empty payload", body: `{}`, sink: &stubInserter{}},
		{
			name: "insert failure",
			body: `{"event":"page_viewed"}`,
			sink: &stubInserter{err: errors.New("insert failed")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEventHandler(tt.sink, slog.Default())

			req := httptest.NewRequest(http.MethodPost, "/public/events",
				strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.PostEvent(rec, req)

			assert.Equal(t, statusEventFailure, rec.Code)
			assert.JSONEq(t, `{"ok":false}`, rec.Body.String())
		})
	}
}

func TestRefundHandler_ReportCallback(t *testing.T) {
	refunds := &stubStarter{}
	h := NewRefundHandler(refunds, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/public/shiprocket",
		strings.NewReader(`{"report_file":"https://reports.example.com/rto.csv"}`))
	rec := httptest.NewRecorder()
	h.ReportCallback(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, []string{"https://reports.example.com/rto.csv"}, refunds.urls)
}

func TestRefundHandler_ReportCallback_BadPayload(t *testing.T) {
	refunds := &stubStarter{}
	h := NewRefundHandler(refunds, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/public/shiprocket",
		strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	h.ReportCallback(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code,
		"the logistics platform is always acknowledged")
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Empty(t, refunds.urls)
}

func TestRefundHandler_RunRefund(t *testing.T) {
	refunds := &stubStarter{}
	h := NewRefundHandler(refunds, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/api/refunds/run",
		strings.NewReader(`{"report_file":"https://reports.example.com/rto.csv"}`))
	rec := httptest.NewRecorder()
	h.RunRefund(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"https://reports.example.com/rto.csv"}, refunds.urls)
}

func TestRefundHandler_RunRefund_MissingURL(t *testing.T) {
	refunds := &stubStarter{}
	h := NewRefundHandler(refunds, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/api/refunds/run",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.RunRefund(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, refunds.urls)
}

type stubPinger struct {
	ok bool
}

func (s stubPinger) Ping(context.Context) bool { return s.ok }

func TestHealthHandler_Ping(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{ok: true}).
		Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{ok: false}).
		Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
