package kafka

import (
	"context"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
)

// TrackingEventHandler advances an order's lifecycle from carrier
// tracking events: processing -> shipped -> delivered.
type TrackingEventHandler struct {
	Store usecase.OrderStore
	Cache usecase.StatusCache // optional
}

func NewTrackingEventHandler(store usecase.OrderStore, cache usecase.StatusCache) *TrackingEventHandler {
	return &TrackingEventHandler{Store: store, Cache: cache}
}

func (h *TrackingEventHandler) Handle(ctx context.Context, ev TrackingEventMsg) error {
	target, ok := mapCarrierStatus(ev.Status)
	if !ok || ev.OrderID == "" {
		// Pre-transit noise and unknown statuses are not an error;
		// acking them keeps the partition moving.
		return nil
	}

	advanced := false
	for _, from := range []entity.Status{entity.StatusProcessing, entity.StatusShipped} {
		if !from.CanAdvanceTo(target) {
			continue
		}
		ok, err := h.Store.AdvanceStatus(ctx, ev.OrderID, from, target)
		if err != nil {
			return err
		}
		if ok {
			advanced = true
			break
		}
	}

	// Cache best-effort, keyed both ways the API looks it up.
	if advanced && h.Cache != nil {
		_ = h.Cache.SetStatus(ctx, ev.OrderID, string(target))
		if ev.TrackingNumber != "" {
			_ = h.Cache.SetStatus(ctx, "tracking:"+ev.TrackingNumber, string(target))
		}
	}
	return nil
}

func mapCarrierStatus(s string) (entity.Status, bool) {
	switch s {
	case "TRANSIT", "IN_TRANSIT":
		return entity.StatusShipped, true
	case "DELIVERED":
		return entity.StatusDelivered, true
	default:
		return "", false
	}
}
