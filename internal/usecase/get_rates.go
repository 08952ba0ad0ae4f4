package usecase

import (
	"context"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
)

// QuoteRates asks the shipping provider for rate options from the
// configured warehouse to a destination. Rate ids returned here are
// what PlaceOrder later commits to.
type QuoteRates struct {
	shipping ShippingProvider
	shipFrom entity.Address
}

func NewQuoteRates(shipping ShippingProvider, shipFrom entity.Address) *QuoteRates {
	return &QuoteRates{shipping: shipping, shipFrom: shipFrom}
}

func (uc *QuoteRates) Execute(ctx context.Context, to entity.Address, parcels []Parcel) ([]Rate, error) {
	if err := to.Validate(); err != nil {
		return nil, &ValidationError{Field: "address"}
	}
	if len(parcels) == 0 {
		return nil, &ValidationError{Field: "parcels"}
	}
	return uc.shipping.GetRates(ctx, RateRequest{
		From:    uc.shipFrom,
		To:      to,
		Parcels: parcels,
	})
}
