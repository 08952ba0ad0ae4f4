package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	place   *usecase.PlaceOrder
	get     *usecase.GetOrder
	timeout time.Duration
}

func NewOrderHandler(place *usecase.PlaceOrder, get *usecase.GetOrder, timeout time.Duration) *OrderHandler {
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	return &OrderHandler{place: place, get: get, timeout: timeout}
}

type customerReq struct {
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address" binding:"required"`
	Address2   string  `json:"address2"`
	City       string  `json:"city" binding:"required"`
	State      string  `json:"state"`
	Zip        string  `json:"zip" binding:"required"`
	Country    string  `json:"country" binding:"required"`
	TotalPrice float64 `json:"totalPrice" binding:"required,gt=0"`
}

type itemReq struct {
	ProductID string  `json:"productId"`
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

type shippingReq struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
}

type placeOrderReq struct {
	RateID           string      `json:"rateId" binding:"required"`
	OrderID          string      `json:"orderId" binding:"required"`
	Customer         customerReq `json:"customer" binding:"required"`
	Items            []itemReq   `json:"items" binding:"required,min=1"`
	Shipping         shippingReq `json:"shipping"`
	PaymentReference string      `json:"paymentReference" binding:"required"`
}

type placeOrderResp struct {
	OrderID        string `json:"orderId"`
	TrackingNumber string `json:"trackingNumber"`
	LabelURL       string `json:"labelUrl,omitempty"`
}

// errorBody is the one error shape every failure class shares. Once a
// payment has been attempted, orderId and paymentIntentId must be
// present so support can locate the transaction.
type errorBody struct {
	Error           string `json:"error"`
	InternalError   bool   `json:"internalError,omitempty"`
	Details         any    `json:"details,omitempty"`
	OrderID         string `json:"orderId,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
}

// PlaceOrder runs the order saga for one checkout.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req placeOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Missing required order or payment details."})
		return
	}

	items := make([]entity.RawLineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, entity.RawLineItem{
			ProductID: it.ProductID,
			ID:        it.ID,
			Name:      it.Name,
			Title:     it.Title,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	in := usecase.PlaceOrderInput{
		RateID:  req.RateID,
		OrderID: req.OrderID,
		Customer: entity.Address{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Street1: req.Customer.Address,
			Street2: req.Customer.Address2,
			City:    req.Customer.City,
			State:   req.Customer.State,
			Zip:     req.Customer.Zip,
			Country: req.Customer.Country,
		},
		TotalPrice:      decimal.NewFromFloat(req.Customer.TotalPrice).Round(2),
		Items:           items,
		ShippingMethod:  req.Shipping.Description,
		ShippingCost:    decimal.NewFromFloat(req.Shipping.Cost).Round(2),
		PaymentIntentID: req.PaymentReference,
	}

	// The saga is non-cancellable once payment is verified, but the
	// deadline still bounds a hung provider call.
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	out, err := h.place.Execute(ctx, in)
	if err != nil {
		h.writeError(c, req, err)
		return
	}

	c.JSON(http.StatusOK, placeOrderResp{
		OrderID:        out.OrderID,
		TrackingNumber: out.TrackingNumber,
		LabelURL:       out.LabelURL,
	})
}

func (h *OrderHandler) writeError(c *gin.Context, req placeOrderReq, err error) {
	var vErr *usecase.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, errorBody{Error: vErr.Error()})
		return
	}

	var pErr *usecase.PaymentNotConfirmedError
	if errors.As(err, &pErr) {
		// 402: the reference exists but the money has not moved.
		c.JSON(http.StatusPaymentRequired, errorBody{
			Error:           "Payment not successful. Status: " + string(pErr.Status),
			OrderID:         req.OrderID,
			PaymentIntentID: req.PaymentReference,
		})
		return
	}

	var uErr *usecase.UpstreamProviderError
	if errors.As(err, &uErr) {
		// 502: payment captured, label not bought. The body carries
		// everything support needs to refund or retry out of band.
		body := errorBody{
			Error:           "Your payment was successful, but there was an issue generating the shipping label. Please contact support with your Order ID for assistance.",
			InternalError:   true,
			OrderID:         uErr.OrderID,
			PaymentIntentID: uErr.PaymentIntentID,
		}
		if len(uErr.Messages) > 0 {
			body.Details = uErr.Messages
		} else {
			body.Details = "Shipping provider error."
		}
		c.JSON(http.StatusBadGateway, body)
		return
	}

	if errors.Is(err, usecase.ErrDuplicateOrder) {
		c.JSON(http.StatusConflict, errorBody{
			Error:   "This order is already being processed.",
			OrderID: req.OrderID,
		})
		return
	}

	if errors.Is(err, usecase.ErrPaymentGatewayUnreachable) {
		c.JSON(http.StatusInternalServerError, errorBody{
			Error:           "Failed to verify payment.",
			OrderID:         req.OrderID,
			PaymentIntentID: req.PaymentReference,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, errorBody{
		Error:           "Failed to place order due to an unexpected server error.",
		OrderID:         req.OrderID,
		PaymentIntentID: req.PaymentReference,
	})
}

// GetOrderByID returns a persisted order by its client order id.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, 5*time.Second)
	defer cancel()

	o, err := h.get.Execute(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, errorBody{Error: "Order not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to load order."})
		return
	}

	items := make([]gin.H, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, gin.H{
			"productId": it.ProductID,
			"name":      it.Name,
			"quantity":  it.Quantity,
			"price":     it.Price.InexactFloat64(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":        o.OrderID,
		"status":         string(o.Status),
		"items":          items,
		"totalAmount":    o.Total.InexactFloat64(),
		"trackingNumber": o.TrackingNumber,
		"shippingMethod": o.ShippingMethod,
		"shippingCost":   o.ShippingCost.InexactFloat64(),
		"labelUrl":       o.LabelURL,
		"orderDate":      o.PlacedAt,
	})
}
