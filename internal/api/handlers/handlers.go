package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/AnitBishwas/swiss-event-handler/internal/api/dto"
	"github.com/AnitBishwas/swiss-event-handler/internal/events"
	"github.com/AnitBishwas/swiss-event-handler/internal/model"
	"github.com/AnitBishwas/swiss-event-handler/internal/model/event"
	"github.com/AnitBishwas/swiss-event-handler/internal/utils/logger"
)

// Public event ingestion answers 420 on any failure, per the
// storefront pixel contract.
const statusEventFailure = 420

type PurchaseSink interface {
	Record(ctx context.Context, payload *dto.OrderCreate) error
}

type DeliverySink interface {
	OrderDelivered(ctx context.Context, f *dto.FulfillmentUpdate) error
}

type RowInserter interface {
	Insert(ctx context.Context, rows ...event.Row) error
}

type RefundStarter interface {
	Start(reportURL string)
}

// detach runs integration work in the background: webhooks are acked
// immediately and never learn whether the work succeeded.
func detach(log *slog.Logger, name string, f func(ctx context.Context) error) {
	runLog := log.With(
		slog.String("trigger", name),
		slog.String("run_id", uuid.NewString()),
	)
	go func() {
		ctx := logger.WithContext(context.Background(), runLog)
		if err := f(ctx); err != nil {
			runLog.LogAttrs(ctx,
				slog.LevelError,
				"background task failed",
				slog.Any(model.KeyLoggerError, err),
			)
		}
	}()
}

type WebhookHandler struct {
	purchases  PurchaseSink
	deliveries DeliverySink
	log        *slog.Logger
}

func NewWebhookHandler(purchases PurchaseSink, deliveries DeliverySink, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		purchases:  purchases,
		deliveries: deliveries,
		log:        log,
	}
}

// OrderCreate dispatches the purchase event insertion. The webhook is
// acknowledged regardless of payload validity or downstream outcome.
func (h *WebhookHandler) OrderCreate(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	var payload dto.OrderCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.log.LogAttrs(r.Context(),
			slog.LevelError,
			"failed to decode order create webhook",
			slog.Any(model.KeyLoggerError, err),
		)
		return
	}

	detach(h.log, "order_create", func(ctx context.Context) error {
		return h.purchases.Record(ctx, &payload)
	})
}

// OrderFulfillment only acknowledges and logs; nothing consumes this
// topic yet.
func (h *WebhookHandler) OrderFulfillment(w http.ResponseWriter, r *http.Request) {
	h.log.LogAttrs(r.Context(),
		slog.LevelInfo,
		"received order fulfillment webhook",
		slog.String("topic", r.Header.Get(model.HeaderShopifyTopic)),
	)
	w.WriteHeader(http.StatusOK)
}

// FulfillmentUpdate dispatches the delivered marketing event when the
// shipment reached the customer.
func (h *WebhookHandler) FulfillmentUpdate(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	var payload dto.FulfillmentUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.log.LogAttrs(r.Context(),
			slog.LevelError,
			"failed to decode fulfillment update webhook",
			slog.Any(model.KeyLoggerError, err),
		)
		return
	}
	if payload.OrderID == 0 || payload.ShipmentStatus != "delivered" {
		return
	}

	detach(h.log, "fulfillment_update", func(ctx context.Context) error {
		return h.deliveries.OrderDelivered(ctx, &payload)
	})
}

type EventHandler struct {
	warehouse RowInserter
	log       *slog.Logger
}

func NewEventHandler(warehouse RowInserter, log *slog.Logger) *EventHandler {
	return &EventHandler{
		warehouse: warehouse,
		log:       log,
	}
}

// PostEvent ingests one storefront event and forwards it to the
// warehouse synchronously.
func (h *EventHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || len(raw) == 0 {
		h.log.LogAttrs(r.Context(),
			slog.LevelError,
			"failed to handle event post route",
			slog.Any(model.KeyLoggerError, err),
		)
		writeJSON(w, statusEventFailure, dto.OKResponse{OK: false})
		return
	}

	var opts events.RowOptions
	if sessionID, ok := raw["session_id"].(string); ok {
		opts.SessionID = &sessionID
	}
	if userID, ok := raw["user_id"].(string); ok {
		opts.UserID = &userID
	}
	if deviceID, ok := raw["device_id"].(string); ok {
		opts.DeviceID = &deviceID
	}

	row := events.TransformRow(raw, opts)
	if err := h.warehouse.Insert(r.Context(), row); err != nil {
		h.log.LogAttrs(r.Context(),
			slog.LevelError,
			"failed to insert event row",
			slog.Any(model.KeyLoggerError, err),
		)
		writeJSON(w, statusEventFailure, dto.OKResponse{OK: false})
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

type RefundHandler struct {
	refunds RefundStarter
	log     *slog.Logger
}

func NewRefundHandler(refunds RefundStarter, log *slog.Logger) *RefundHandler {
	return &RefundHandler{
		refunds: refunds,
		log:     log,
	}
}

// ReportCallback is the logistics platform's report-ready notification.
// It is acknowledged unconditionally; the refund run is fire and
// forget.
func (h *RefundHandler) ReportCallback(w http.ResponseWriter, r *http.Request) {
	defer writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})

	var payload dto.ReportCallback
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.log.LogAttrs(r.Context(),
			slog.LevelError,
			"failed to handle shiprocket webhook call",
			slog.Any(model.KeyLoggerError, err),
		)
		return
	}
	h.refunds.Start(payload.ReportFile)
}

// RunRefund lets an operator replay the refund workflow for a report
// url. The route sits behind session token authentication.
func (h *RefundHandler) RunRefund(w http.ResponseWriter, r *http.Request) {
	var payload dto.ReportCallback
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ReportFile == "" {
		http.Error(w, "report_file required", http.StatusBadRequest)
		return
	}
	h.refunds.Start(payload.ReportFile)
	w.WriteHeader(http.StatusAccepted)
}

type Pinger interface {
	Ping(ctx context.Context) bool
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if !h.db.Ping(r.Context()) {
		http.Error(w,
			http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(model.HeaderContentType, "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
