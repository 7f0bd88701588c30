// Package shopify is the commerce GraphQL client. It covers the four
// operations the integrations need: order search by display name,
// refund creation, order lookup by id and product variant lookup.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/AnitBishwas/swiss-event-handler/internal/model"
	"github.com/AnitBishwas/swiss-event-handler/internal/model/order"
	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
	"github.com/AnitBishwas/swiss-event-handler/internal/throttle"
)

const orderGIDPrefix = "gid://shopify/Order/"
const variantGIDPrefix = "gid://shopify/ProductVariant/"

const refundNote = "Refund initiated by custom app for Auto RTO Refund"

// TokenSource resolves the offline API access token for a shop.
type TokenSource interface {
	AccessToken(ctx context.Context, shop string) (string, error)
}

type Client struct {
	http       *resty.Client
	shop       string
	apiVersion string
	endpoint   string
	tokens     TokenSource
	retry      throttle.RetryPolicy
	log        *slog.Logger
}

func NewClient(
	shop, apiVersion, endpoint string,
	tokens TokenSource,
	log *slog.Logger,
) *Client {
	return &Client{
		http:       resty.New().SetTimeout(model.DefaultClientTimeout),
		shop:       shop,
		apiVersion: apiVersion,
		endpoint:   endpoint,
		tokens:     tokens,
		retry: throttle.RetryPolicy{
			MaxAttempts: 3,
			Delay:       600 * time.Millisecond,
		},
		log: log,
	}
}

func (c *Client) url() string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.shop, c.apiVersion)
}

func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) (Cost, error) {
	token, err := c.tokens.AccessToken(ctx, c.shop)
	if err != nil {
		return Cost{}, fmt.Errorf("%s: failed to resolve access token: %w", op, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(model.HeaderContentType, "application/json").
		SetHeader(model.HeaderShopifyToken, token).
		SetBody(graphQLRequest{Query: query, Variables: vars}).
		Post(c.url())
	if err != nil {
		return Cost{}, fmt.Errorf("%s: request failed: %w", op, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Cost{}, &serviceerrs.UpstreamError{
			Op:     op,
			Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode()),
		}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return Cost{}, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	cost := Cost{
		CurrentlyAvailable: int(env.Extensions.Cost.ThrottleStatus.CurrentlyAvailable),
	}
	if len(env.Errors) > 0 {
		return cost, &serviceerrs.UpstreamError{Op: op, Reason: env.Errors[0].Message}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return cost, fmt.Errorf("%s: failed to decode data: %w", op, err)
		}
	}
	return cost, nil
}

const orderByNameQuery = `query OrderByName($search: String!){
  orders(first: 1, query: $search){
    edges{
      node{
        id
        name
        netPaymentSet{ presentmentMoney{ amount } }
        tags
        lineItems(first: 50){
          edges{ node{ id refundableQuantity } }
        }
        transactions(first: 50){
          id
          amountSet{ presentmentMoney{ amount } }
          gateway
          kind
        }
        shippingLine{
          originalPriceSet{ presentmentMoney{ amount } }
        }
        customer{
          id
          displayName
          defaultPhoneNumber{ phoneNumber }
          defaultEmailAddress{ emailAddress }
        }
      }
    }
  }
}`

// FindOrderByName resolves one order by its display name. The name is
// normalized to the `#`-prefixed form the order search expects.
func (c *Client) FindOrderByName(ctx context.Context, name string) (*order.Resolved, Cost, error) {
	if name == "" {
		return nil, Cost{}, serviceerrs.ErrMissingOrderName
	}
	if !strings.Contains(name, "#") {
		name = "#" + name
	}

	var data ordersData
	cost, err := c.do(ctx, "order search", orderByNameQuery,
		map[string]any{"search": "name:" + name}, &data)
	if err != nil {
		return nil, cost, fmt.Errorf("failed to get order info for %s: %w", name, err)
	}
	if len(data.Orders.Edges) == 0 {
		return nil, cost, &serviceerrs.UpstreamError{
			Op:     "order search",
			Reason: "no order found for " + name,
		}
	}

	resolved, err := mapOrderNode(&data.Orders.Edges[0].Node)
	if err != nil {
		return nil, cost, fmt.Errorf("failed to map order %s: %w", name, err)
	}
	return resolved, cost, nil
}

func mapOrderNode(node *orderNode) (*order.Resolved, error) {
	amount, err := parseAmount(node.NetPaymentSet.PresentmentMoney.Amount)
	if err != nil {
		return nil, fmt.Errorf("bad net payment amount: %w", err)
	}

	resolved := &order.Resolved{
		ID:           strings.TrimPrefix(node.ID, orderGIDPrefix),
		Name:         node.Name,
		RefundAmount: amount,
	}
	resolved.PartiallyPaid, resolved.COD = order.FlagsFromTags(node.Tags)

	if node.Customer != nil {
		resolved.Customer = order.Customer{
			ID:   node.Customer.ID,
			Name: node.Customer.DisplayName,
		}
		if node.Customer.DefaultPhoneNumber != nil {
			resolved.Customer.Phone = node.Customer.DefaultPhoneNumber.PhoneNumber
		}
		if node.Customer.DefaultEmailAddress != nil {
			resolved.Customer.Email = node.Customer.DefaultEmailAddress.EmailAddress
		}
	}

	for _, e := range node.LineItems.Edges {
		resolved.LineItems = append(resolved.LineItems, order.LineItem{
			ID:       e.Node.ID,
			Quantity: e.Node.RefundableQuantity,
		})
	}
	for _, tr := range node.Transactions {
		trAmount, err := parseAmount(tr.AmountSet.PresentmentMoney.Amount)
		if err != nil {
			return nil, fmt.Errorf("bad transaction amount: %w", err)
		}
		resolved.Transactions = append(resolved.Transactions, order.Transaction{
			Amount:   trAmount,
			Gateway:  tr.Gateway,
			Kind:     tr.Kind,
			OrderID:  node.ID,
			ParentID: tr.ID,
		})
	}
	return resolved, nil
}

const refundCreateMutation = `mutation RefundLineItem($input: RefundInput!){
  refundCreate(input: $input){
    refund{ id }
    userErrors{ field message }
  }
}`

// CreateRefund submits the refund mutation for an already resolved
// order: every line item at its refundable quantity, every original
// transaction re-issued with kind REFUND.
func (c *Client) CreateRefund(ctx context.Context, ord *order.Resolved) (string, Cost, error) {
	lineItems := make([]map[string]any, 0, len(ord.LineItems))
	for _, li := range ord.LineItems {
		lineItems = append(lineItems, map[string]any{
			"lineItemId": li.ID,
			"quantity":   li.Quantity,
		})
	}
	transactions := make([]map[string]any, 0, len(ord.Transactions))
	for _, tr := range ord.Transactions {
		transactions = append(transactions, map[string]any{
			"amount":   tr.Amount.String(),
			"gateway":  tr.Gateway,
			"kind":     "REFUND",
			"orderId":  tr.OrderID,
			"parentId": tr.ParentID,
		})
	}
	input := map[string]any{
		"orderId":         orderGID(ord.ID),
		"notify":          true,
		"note":            refundNote,
		"refundLineItems": lineItems,
		"transactions":    transactions,
	}

	var data refundCreateData
	cost, err := c.do(ctx, "refund create", refundCreateMutation,
		map[string]any{"input": input}, &data)
	if err != nil {
		return "", cost, fmt.Errorf("failed to mark refund for order %s: %w", ord.ID, err)
	}
	if ue := data.RefundCreate.UserErrors; len(ue) > 0 {
		return "", cost, &serviceerrs.UpstreamError{
			Op:     "refund create",
			Reason: fmt.Sprintf("%s: %s", strings.Join(ue[0].Field, "."), ue[0].Message),
		}
	}
	if data.RefundCreate.Refund == nil {
		return "", cost, &serviceerrs.UpstreamError{
			Op:     "refund create",
			Reason: "no refund returned",
		}
	}
	return data.RefundCreate.Refund.ID, cost, nil
}

const orderByIDQuery = `query getOrderData($ownerId: ID!){
  order(id: $ownerId){
    name
    customer{
      defaultPhoneNumber{ phoneNumber }
      defaultEmailAddress{ emailAddress }
      displayName
    }
    totalPriceSet{ presentmentMoney{ amount } }
  }
}`

// GetOrder looks an order up by id, retrying per the fixed policy.
func (c *Client) GetOrder(ctx context.Context, id string) (*OrderSummary, Cost, error) {
	var summary *OrderSummary
	var lastCost Cost
	err := c.retry.Do(ctx, func() error {
		var data orderByIDData
		cost, err := c.do(ctx, "order lookup", orderByIDQuery,
			map[string]any{"ownerId": orderGID(id)}, &data)
		lastCost = cost
		if err != nil {
			return err
		}
		if data.Order == nil {
			return &serviceerrs.UpstreamError{Op: "order lookup", Reason: "order not found"}
		}

		total, err := parseAmount(data.Order.TotalPriceSet.PresentmentMoney.Amount)
		if err != nil {
			return fmt.Errorf("bad total price: %w", err)
		}
		summary = &OrderSummary{
			Name:       data.Order.Name,
			TotalPrice: total,
		}
		if cust := data.Order.Customer; cust != nil {
			summary.CustomerName = cust.DisplayName
			if cust.DefaultPhoneNumber != nil {
				summary.CustomerPhone = cust.DefaultPhoneNumber.PhoneNumber
			}
			if cust.DefaultEmailAddress != nil {
				summary.CustomerEmail = cust.DefaultEmailAddress.EmailAddress
			}
		}
		return nil
	})
	if err != nil {
		return nil, lastCost, fmt.Errorf("failed to get shopify order details: %w", err)
	}
	return summary, lastCost, nil
}

const variantQuery = `query ProductVariantData($ownerId: ID!){
  productVariant(id: $ownerId){
    id
    barcode
    compareAtPrice
    product{ title }
    price
    sku
    inventoryQuantity
  }
}`

// GetProductVariant fetches variant pricing and inventory data,
// retrying per the fixed policy.
func (c *Client) GetProductVariant(ctx context.Context, id string) (*Variant, Cost, error) {
	var variant *Variant
	var lastCost Cost
	err := c.retry.Do(ctx, func() error {
		var data variantData
		cost, err := c.do(ctx, "variant lookup", variantQuery,
			map[string]any{"ownerId": variantGID(id)}, &data)
		lastCost = cost
		if err != nil {
			return err
		}
		if data.ProductVariant == nil {
			return &serviceerrs.UpstreamError{Op: "variant lookup", Reason: "variant not found"}
		}

		v := data.ProductVariant
		price, err := parseAmount(v.Price)
		if err != nil {
			return fmt.Errorf("bad variant price: %w", err)
		}
		compareAt := decimal.Zero
		if v.CompareAtPrice != nil {
			if compareAt, err = parseAmount(*v.CompareAtPrice); err != nil {
				return fmt.Errorf("bad compare-at price: %w", err)
			}
		}
		variant = &Variant{
			ID:                v.ID,
			Barcode:           v.Barcode,
			CompareAtPrice:    compareAt,
			Price:             price,
			SKU:               v.SKU,
			InventoryQuantity: v.InventoryQuantity,
			ProductTitle:      v.Product.Title,
		}
		return nil
	})
	if err != nil {
		return nil, lastCost, fmt.Errorf("failed to get product variant data: %w", err)
	}
	return variant, lastCost, nil
}

func orderGID(id string) string {
	if strings.Contains(id, "gid://") {
		return id
	}
	return orderGIDPrefix + id
}

func variantGID(id string) string {
	if strings.Contains(id, "gid://") {
		return id
	}
	return variantGIDPrefix + id
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
