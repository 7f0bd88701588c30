// Package event holds the wire shape of analytics warehouse rows.
// The schema mirrors the GA4-style export table the events land in.
package event

import "encoding/json"

type Value struct {
	StringValue *string  `json:"string_value,omitempty" bigquery:"string_value"`
	IntValue    *int64   `json:"int_value,omitempty" bigquery:"int_value"`
	FloatValue  *float64 `json:"float_value,omitempty" bigquery:"float_value"`
}

type Param struct {
	Key   string `json:"key" bigquery:"key"`
	Value Value  `json:"value" bigquery:"value"`
}

type Item struct {
	VariantID        string  `json:"variantId" bigquery:"variantId"`
	Quantity         int     `json:"quantity" bigquery:"quantity"`
	EAN              string  `json:"ean" bigquery:"ean"`
	MRP              float64 `json:"mrp" bigquery:"mrp"`
	Price            float64 `json:"price" bigquery:"price"`
	SKU              string  `json:"sku" bigquery:"sku"`
	Title            string  `json:"title" bigquery:"title"`
	ProductID        string  `json:"productId" bigquery:"productId"`
	Variant          string  `json:"variant" bigquery:"variant"`
	CurrentInventory int     `json:"currentInventory" bigquery:"currentInventory"`
}

type Row struct {
	Timestamp   int64   `json:"timestamp" bigquery:"timestamp"`
	EventName   string  `json:"event_name" bigquery:"event_name"`
	UserID      *string `json:"user_id" bigquery:"user_id"`
	DeviceID    *string `json:"device_id" bigquery:"device_id"`
	SessionID   *string `json:"session_id" bigquery:"session_id"`
	EventParams []Param `json:"event_params" bigquery:"event_params"`
	Items       []Item  `json:"items" bigquery:"items"`
	EventDate   string  `json:"event_date" bigquery:"event_date"`
}

// ConvertValue maps an arbitrary decoded JSON value onto the one-of
// param value. Numbers keep int/float distinction, booleans become
// strings, anything nested is stored as its JSON encoding.
func ConvertValue(v any) Value {
	switch val := v.(type) {
	case string:
		return Value{StringValue: &val}
	case float64:
		if val == float64(int64(val)) {
			i := int64(val)
			return Value{IntValue: &i}
		}
		return Value{FloatValue: &val}
	case int:
		i := int64(val)
		return Value{IntValue: &i}
	case int64:
		return Value{IntValue: &val}
	case bool:
		s := "false"
		if val {
			s = "true"
		}
		return Value{StringValue: &s}
	default:
		b, err := json.Marshal(v)
		if err != nil {
			s := ""
			return Value{StringValue: &s}
		}
		s := string(b)
		return Value{StringValue: &s}
	}
}
