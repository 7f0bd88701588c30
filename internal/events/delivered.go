package events

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/AnitBishwas/swiss-event-handler/internal/api/dto"
	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
	"github.com/AnitBishwas/swiss-event-handler/internal/shopify"
)

const deliveredEventName = "custom_order_delivered_v2"

type OrderLookup interface {
	GetOrder(ctx context.Context, id string) (*shopify.OrderSummary, shopify.Cost, error)
}

type EventSender interface {
	Send(ctx context.Context, ev MarketingEvent) error
}

// DeliveryNotifier reacts to delivered fulfillments: it resolves the
// order's customer contact and pushes the delivered event to the
// marketing platform, keyed by phone number.
type DeliveryNotifier struct {
	api OrderLookup
	moe EventSender
	log *slog.Logger
}

func NewDeliveryNotifier(api OrderLookup, moe EventSender, log *slog.Logger) *DeliveryNotifier {
	return &DeliveryNotifier{
		api: api,
		moe: moe,
		log: log,
	}
}

func (n *DeliveryNotifier) OrderDelivered(ctx context.Context, f *dto.FulfillmentUpdate) error {
	summary, _, err := n.api.GetOrder(ctx, strconv.FormatInt(f.OrderID, 10))
	if err != nil {
		return fmt.Errorf("failed to create order delivered event: %w", err)
	}
	if summary.CustomerPhone == "" {
		return fmt.Errorf("failed to create order delivered event: %w",
			serviceerrs.ErrMissingCustomerID)
	}

	price, _ := summary.TotalPrice.Float64()
	return n.moe.Send(ctx, MarketingEvent{
		Name:       deliveredEventName,
		CustomerID: summary.CustomerPhone,
		Attributes: map[string]any{
			"id":           summary.Name,
			"customerName": summary.CustomerName,
			"phone":        summary.CustomerPhone,
			"email":        summary.CustomerEmail,
			"price":        price,
		},
	})
}
