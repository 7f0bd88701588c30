package events

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AnitBishwas/swiss-event-handler/internal/api/dto"
	"github.com/AnitBishwas/swiss-event-handler/internal/model"
	"github.com/AnitBishwas/swiss-event-handler/internal/model/event"
	"github.com/AnitBishwas/swiss-event-handler/internal/shopify"
	"github.com/AnitBishwas/swiss-event-handler/internal/throttle"
)

const purchaseEventName = "purchase_custom_v2"
const tagSwissCash = "swiss cash"

type VariantAPI interface {
	GetProductVariant(ctx context.Context, id string) (*shopify.Variant, shopify.Cost, error)
}

type RowInserter interface {
	Insert(ctx context.Context, rows ...event.Row) error
}

// PurchaseRecorder turns an order-create webhook into one enriched
// purchase row in the warehouse. Line items are enriched one at a time
// with variant data under the cost guard; a failed lookup drops that
// item, never the event.
type PurchaseRecorder struct {
	api       VariantAPI
	warehouse RowInserter
	guard     *throttle.CostGuard
	log       *slog.Logger
}

func NewPurchaseRecorder(api VariantAPI, warehouse RowInserter, log *slog.Logger) *PurchaseRecorder {
	return &PurchaseRecorder{
		api:       api,
		warehouse: warehouse,
		guard: throttle.NewCostGuard(
			throttle.DefaultCostThreshold, throttle.ResolvePause),
		log: log,
	}
}

func (p *PurchaseRecorder) Record(ctx context.Context, payload *dto.OrderCreate) error {
	items := p.collectItems(ctx, payload)

	structured := map[string]any{
		"orderId":             payload.Name,
		"shopifyOrderId":      payload.ID,
		"createdAt":           payload.CreatedAt,
		"couponCode":          "",
		"couponValue":         0.0,
		"totalPrice":          toFloat(payload.TotalPrice),
		"shippingPrice":       toFloat(payload.TotalShippingPriceSet.ShopMoney.Amount),
		"subTotalPrice":       toFloat(payload.SubtotalPrice),
		"partiallyPaidAmount": partiallyPaidAmount(payload),
		"isSwissCashUtilised": hasTag(payload.Tags, tagSwissCash),
		"cod":                 hasTag(payload.Tags, "cod"),
		"utmSource":           noteAttribute(payload.NoteAttributes, "utm_source"),
		"utmMedium":           noteAttribute(payload.NoteAttributes, "utm_medium"),
		"utmCampaign":         noteAttribute(payload.NoteAttributes, "utm_campaign"),
		"landingPage":         noteAttribute(payload.NoteAttributes, "full_url"),
	}
	if len(payload.DiscountCodes) > 0 {
		structured["couponCode"] = payload.DiscountCodes[0].Code
		structured["couponValue"] = toFloat(payload.DiscountCodes[0].Amount)
	}
	if payload.Customer != nil {
		structured["customerName"] = payload.Customer.FirstName + " " + payload.Customer.LastName
		structured["customerPhone"] = payload.Customer.Phone
		structured["customerEmail"] = payload.Customer.Email
	}

	row := TransformRow(structured, RowOptions{
		Timestamp: time.Now().UnixMilli(),
		EventDate: time.Now().UTC().Format(time.RFC3339),
	})
	row.EventName = purchaseEventName
	row.Items = items

	return p.warehouse.Insert(ctx, row)
}

func (p *PurchaseRecorder) collectItems(ctx context.Context, payload *dto.OrderCreate) []event.Item {
	items := make([]event.Item, 0, len(payload.LineItems))
	for _, li := range payload.LineItems {
		variantID := strconv.FormatInt(li.VariantID, 10)
		variant, cost, err := p.api.GetProductVariant(ctx, variantID)
		p.guard.Observe(cost.CurrentlyAvailable)
		if err != nil {
			p.log.LogAttrs(ctx,
				slog.LevelError,
				"failed to get variant data",
				slog.String("variant_id", variantID),
				slog.Any(model.KeyLoggerError, err),
			)
		} else {
			mrp, _ := variant.CompareAtPrice.Float64()
			price, _ := variant.Price.Float64()
			items = append(items, event.Item{
				VariantID:        variantID,
				Quantity:         li.Quantity,
				EAN:              variant.Barcode,
				MRP:              mrp,
				Price:            price,
				SKU:              variant.SKU,
				Title:            variant.ProductTitle,
				ProductID:        strconv.FormatInt(li.ProductID, 10),
				Variant:          li.Name,
				CurrentInventory: variant.InventoryQuantity,
			})
		}

		if err := p.guard.Wait(ctx); err != nil {
			break
		}
	}
	return items
}

func partiallyPaidAmount(payload *dto.OrderCreate) float64 {
	total, err := decimal.NewFromString(payload.TotalPrice)
	if err != nil {
		return 0
	}
	outstanding, err := decimal.NewFromString(payload.TotalOutstanding)
	if err != nil {
		return 0
	}
	if outstanding.GreaterThanOrEqual(total) {
		return 0
	}
	paid, _ := total.Sub(outstanding).Float64()
	return paid
}

func hasTag(tags, want string) bool {
	for _, t := range strings.Split(strings.ToLower(tags), ",") {
		if strings.TrimSpace(t) == want {
			return true
		}
	}
	return false
}

func noteAttribute(attrs []dto.NoteAttribute, name string) string {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

func toFloat(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
