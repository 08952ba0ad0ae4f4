package entity

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order lifecycle. A freshly placed order starts at
// PROCESSING, not PENDING: by the time the record exists, payment is
// captured and a label is bought. PENDING is reserved for records
// created ahead of fulfillment (e.g. manual backfill).
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
)

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// CanAdvanceTo reports whether next is a forward transition. Regressions
// (delivered -> shipped) and unknown statuses are rejected.
func (s Status) CanAdvanceTo(next Status) bool {
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	n, ok := statusRank[next]
	if !ok {
		return false
	}
	return n > cur
}

var ErrInvalidAddress = errors.New("invalid address")

// Address doubles as customer contact info and shipping destination.
type Address struct {
	Name    string
	Email   string
	Phone   string
	Street1 string
	Street2 string
	City    string
	State   string
	Zip     string
	Country string // ISO 3166-1 alpha-2
}

func (a Address) Validate() error {
	if a.Name == "" || a.Street1 == "" || a.City == "" || a.Zip == "" || a.Country == "" {
		return ErrInvalidAddress
	}
	return nil
}

// RawLineItem is a client-supplied cart line before normalization.
// Field pairs (ProductID|ID, Name|Title) mirror the two shapes the
// storefront sends depending on which page built the cart.
type RawLineItem struct {
	ProductID string
	ID        string
	Name      string
	Title     string
	Quantity  float64
	Price     float64
}

// LineItem is the server-normalized form persisted with the order.
type LineItem struct {
	ProductID string
	Name      string
	Quantity  int64
	Price     decimal.Decimal
}

// NormalizeItem coerces a client line into a storable one: quantity is
// truncated to an integer and clamped to >= 1, price clamped to >= 0,
// and the display name falls back through title -> name -> product ref.
func NormalizeItem(raw RawLineItem) LineItem {
	qty := int64(raw.Quantity)
	if qty < 1 {
		qty = 1
	}

	price := decimal.NewFromFloat(raw.Price)
	if price.IsNegative() {
		price = decimal.Zero
	}

	productID := raw.ProductID
	if productID == "" {
		productID = raw.ID
	}

	name := raw.Name
	if name == "" {
		name = raw.Title
	}
	if name == "" {
		if productID != "" {
			name = "Item " + productID
		} else {
			name = "Item"
		}
	}

	return LineItem{
		ProductID: productID,
		Name:      name,
		Quantity:  qty,
		Price:     price.Round(2),
	}
}

// NormalizeItems normalizes every line in order.
func NormalizeItems(raw []RawLineItem) []LineItem {
	items := make([]LineItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, NormalizeItem(r))
	}
	return items
}

// ItemsTotal is the sum of quantity * price over normalized lines.
func ItemsTotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return sum
}

// Order is the durable record written to the content store once payment
// is verified and a label is purchased. The three external correlation
// ids (PaymentIntentID, LabelTransactionID, LabelURL) exist so support
// can always trace a record back to the payment and the label.
type Order struct {
	OrderID            string
	Customer           Address
	Items              []LineItem
	Total              decimal.Decimal
	Status             Status
	TrackingNumber     string
	ShippingMethod     string
	ShippingCost       decimal.Decimal
	PaymentIntentID    string
	LabelTransactionID string
	LabelURL           string
	PlacedAt           time.Time
}
