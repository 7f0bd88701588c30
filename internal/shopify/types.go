package shopify

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Cost is the throttle budget block every GraphQL response carries.
// The service reads it as a backpressure hint only; the upstream
// remains the authority on the actual budget.
type Cost struct {
	CurrentlyAvailable int
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Errors     []graphQLError  `json:"errors"`
	Extensions struct {
		Cost struct {
			ThrottleStatus struct {
				CurrentlyAvailable float64 `json:"currentlyAvailable"`
			} `json:"throttleStatus"`
		} `json:"cost"`
	} `json:"extensions"`
}

type moneySet struct {
	PresentmentMoney struct {
		Amount string `json:"amount"`
	} `json:"presentmentMoney"`
}

type orderNode struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	NetPaymentSet moneySet `json:"netPaymentSet"`
	Tags          []string `json:"tags"`
	LineItems     struct {
		Edges []struct {
			Node struct {
				ID                 string `json:"id"`
				RefundableQuantity int    `json:"refundableQuantity"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
	Transactions []struct {
		ID        string   `json:"id"`
		AmountSet moneySet `json:"amountSet"`
		Gateway   string   `json:"gateway"`
		Kind      string   `json:"kind"`
	} `json:"transactions"`
	Customer *struct {
		ID                 string `json:"id"`
		DisplayName        string `json:"displayName"`
		DefaultPhoneNumber *struct {
			PhoneNumber string `json:"phoneNumber"`
		} `json:"defaultPhoneNumber"`
		DefaultEmailAddress *struct {
			EmailAddress string `json:"emailAddress"`
		} `json:"defaultEmailAddress"`
	} `json:"customer"`
}

type ordersData struct {
	Orders struct {
		Edges []struct {
			Node orderNode `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

type refundCreateData struct {
	RefundCreate struct {
		Refund *struct {
			ID string `json:"id"`
		} `json:"refund"`
		UserErrors []struct {
			Field   []string `json:"field"`
			Message string   `json:"message"`
		} `json:"userErrors"`
	} `json:"refundCreate"`
}

type orderByIDData struct {
	Order *struct {
		Name     string `json:"name"`
		Customer *struct {
			DisplayName        string `json:"displayName"`
			DefaultPhoneNumber *struct {
				PhoneNumber string `json:"phoneNumber"`
			} `json:"defaultPhoneNumber"`
			DefaultEmailAddress *struct {
				EmailAddress string `json:"emailAddress"`
			} `json:"defaultEmailAddress"`
		} `json:"customer"`
		TotalPriceSet moneySet `json:"totalPriceSet"`
	} `json:"order"`
}

type variantData struct {
	ProductVariant *struct {
		ID             string  `json:"id"`
		Barcode        string  `json:"barcode"`
		CompareAtPrice *string `json:"compareAtPrice"`
		Product        struct {
			Title string `json:"title"`
		} `json:"product"`
		Price             string `json:"price"`
		SKU               string `json:"sku"`
		InventoryQuantity int    `json:"inventoryQuantity"`
	} `json:"productVariant"`
}

// OrderSummary is the slim order projection used by the delivery
// notification flow.
type OrderSummary struct {
	Name          string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	TotalPrice    decimal.Decimal
}

type Variant struct {
	ID                string
	Barcode           string
	CompareAtPrice    decimal.Decimal
	Price             decimal.Decimal
	SKU               string
	InventoryQuantity int
	ProductTitle      string
}
