package usecase

import (
	"context"
	"strings"
)

// TrackShipment looks up carrier tracking status. In test mode the
// provider expects the literal carrier token "shippo" for every lookup;
// in live mode the real carrier token is required.
type TrackShipment struct {
	shipping ShippingProvider
	cache    StatusCache // optional
	testMode bool
}

func NewTrackShipment(shipping ShippingProvider, cache StatusCache, testMode bool) *TrackShipment {
	return &TrackShipment{shipping: shipping, cache: cache, testMode: testMode}
}

func (uc *TrackShipment) Execute(ctx context.Context, carrier, trackingNumber string) (TrackingDetails, error) {
	if trackingNumber == "" {
		return TrackingDetails{}, &ValidationError{Field: "trackingNumber"}
	}

	if uc.testMode {
		carrier = "shippo"
	} else {
		carrier = strings.ToLower(strings.TrimSpace(carrier))
		if carrier == "" {
			return TrackingDetails{}, &ValidationError{Field: "carrier"}
		}
	}

	details, err := uc.shipping.TrackShipment(ctx, carrier, trackingNumber)
	if err != nil {
		return TrackingDetails{}, err
	}

	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, "tracking:"+trackingNumber, details.Status)
	}
	return details, nil
}
