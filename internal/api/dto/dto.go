// Package dto declares the inbound webhook payload shapes. Only the
// fields the integrations read are mapped.
package dto

type Money struct {
	Amount string `json:"amount"`
}

type MoneySet struct {
	ShopMoney Money `json:"shop_money"`
}

type DiscountCode struct {
	Code   string `json:"code"`
	Amount string `json:"amount"`
}

type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type WebhookCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type OrderLineItem struct {
	VariantID int64  `json:"variant_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
}

type OrderCreate struct {
	ID                    int64            `json:"id"`
	Name                  string           `json:"name"`
	CreatedAt             string           `json:"created_at"`
	Tags                  string           `json:"tags"`
	TotalPrice            string           `json:"total_price"`
	SubtotalPrice         string           `json:"subtotal_price"`
	TotalOutstanding      string           `json:"total_outstanding"`
	TotalShippingPriceSet MoneySet         `json:"total_shipping_price_set"`
	DiscountCodes         []DiscountCode   `json:"discount_codes"`
	NoteAttributes        []NoteAttribute  `json:"note_attributes"`
	Customer              *WebhookCustomer `json:"customer"`
	LineItems             []OrderLineItem  `json:"line_items"`
}

type FulfillmentUpdate struct {
	OrderID        int64  `json:"order_id"`
	ShipmentStatus string `json:"shipment_status"`
}

// ReportCallback is the logistics platform notification that a new
// shipment report is ready for download.
type ReportCallback struct {
	ReportFile string `json:"report_file"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
