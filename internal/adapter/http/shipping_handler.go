package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/entity"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/usecase"
	"github.com/gin-gonic/gin"
)

type ShippingHandler struct {
	quote *usecase.QuoteRates
	track *usecase.TrackShipment
}

func NewShippingHandler(quote *usecase.QuoteRates, track *usecase.TrackShipment) *ShippingHandler {
	return &ShippingHandler{quote: quote, track: track}
}

type addressReq struct {
	Name    string `json:"name" binding:"required"`
	Street1 string `json:"street1" binding:"required"`
	Street2 string `json:"street2"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Zip     string `json:"zip" binding:"required"`
	Country string `json:"country" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type ratesReq struct {
	AddressTo addressReq       `json:"addressTo" binding:"required"`
	Parcels   []usecase.Parcel `json:"parcels" binding:"required,min=1"`
}

type rateResp struct {
	ID            string  `json:"id"`
	Provider      string  `json:"provider,omitempty"`
	ServiceLevel  string  `json:"servicelevel_name,omitempty"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	EstimatedDays int     `json:"estimated_days,omitempty"`
}

// QuoteRates quotes shipping options for a checkout destination.
func (h *ShippingHandler) QuoteRates(c *gin.Context) {
	var req ratesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Missing required fields."})
		return
	}

	ctx, cancel := contextWithTimeout(c, 20*time.Second)
	defer cancel()

	rates, err := h.quote.Execute(ctx, entity.Address{
		Name:    req.AddressTo.Name,
		Street1: req.AddressTo.Street1,
		Street2: req.AddressTo.Street2,
		City:    req.AddressTo.City,
		State:   req.AddressTo.State,
		Zip:     req.AddressTo.Zip,
		Country: req.AddressTo.Country,
		Phone:   req.AddressTo.Phone,
		Email:   req.AddressTo.Email,
	}, req.Parcels)
	if err != nil {
		var vErr *usecase.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, errorBody{Error: vErr.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, errorBody{Error: "Failed to get rates from shipping provider."})
		return
	}

	out := make([]rateResp, 0, len(rates))
	for _, r := range rates {
		out = append(out, rateResp{
			ID:            r.ID,
			Provider:      r.Provider,
			ServiceLevel:  r.ServiceLevel,
			Description:   r.Description,
			Amount:        r.Amount.InexactFloat64(),
			Currency:      r.Currency,
			EstimatedDays: r.EstimatedDays,
		})
	}
	c.JSON(http.StatusOK, gin.H{"rates": out})
}

type trackReq struct {
	TrackingNumber string `json:"trackingNumber" binding:"required"`
	Carrier        string `json:"carrier"`
}

// TrackShipment returns formatted tracking status/history for a parcel.
func (h *ShippingHandler) TrackShipment(c *gin.Context) {
	var req trackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Tracking number is required."})
		return
	}

	ctx, cancel := contextWithTimeout(c, 15*time.Second)
	defer cancel()

	details, err := h.track.Execute(ctx, req.Carrier, req.TrackingNumber)
	if err != nil {
		var vErr *usecase.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, errorBody{Error: vErr.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, errorBody{Error: "Failed to fetch tracking details from provider."})
		return
	}
	c.JSON(http.StatusOK, details)
}

func contextWithTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
