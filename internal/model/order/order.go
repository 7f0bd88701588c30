package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	TagPartiallyPaid = "ppcod-upi"
	TagCashOnDelivery = "cod"
)

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type LineItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type Transaction struct {
	Amount   decimal.Decimal `json:"amount"`
	Gateway  string          `json:"gateway"`
	Kind     string          `json:"kind"`
	OrderID  string          `json:"orderId"`
	ParentID string          `json:"parentId"`
}

// Resolved is an order snapshot fetched from the commerce API. It is
// built once per resolution call and read-only afterwards.
type Resolved struct {
	ID            string
	Name          string
	RefundAmount  decimal.Decimal
	Customer      Customer
	LineItems     []LineItem
	Transactions  []Transaction
	PartiallyPaid bool
	COD           bool
}

// RefundEligible reports whether the order qualifies for the automatic
// RTO refund: a positive refundable amount and neither the partially
// paid nor the cash-on-delivery tag present.
func (o *Resolved) RefundEligible() bool {
	return o.RefundAmount.IsPositive() && !o.PartiallyPaid && !o.COD
}

// FlagsFromTags derives the two tag flags from the order tag list.
// Tags are compared lower-cased, including the COD tag.
func FlagsFromTags(tags []string) (partiallyPaid, cod bool) {
	for _, t := range tags {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case TagPartiallyPaid:
			partiallyPaid = true
		case TagCashOnDelivery:
			cod = true
		}
	}
	return partiallyPaid, cod
}
