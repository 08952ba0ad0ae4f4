package usecase

import (
	"context"
	"errors"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
)

var ErrOrderNotFound = errors.New("order not found")

type GetOrder struct {
	store OrderStore
}

func NewGetOrder(store OrderStore) *GetOrder {
	return &GetOrder{store: store}
}

func (uc *GetOrder) Execute(ctx context.Context, orderID string) (*entity.Order, error) {
	if orderID == "" {
		return nil, &ValidationError{Field: "orderId"}
	}
	o, err := uc.store.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}
