// Package handler exposes the valuation HTTP endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"valora_backend/internal/valuation/domain"
	"valora_backend/internal/valuation/service"
	"valora_backend/internal/valuation/transport"
	"valora_backend/platform/httpkit"
	"valora_backend/platform/validator"
)

// Evaluator runs one valuation request.
type Evaluator interface {
	Evaluate(ctx context.Context, req service.Request) (domain.Result, error)
}

// Handler handles valuation HTTP requests.
type Handler struct {
	service   Evaluator
	validator *validator.Validator
}

// New creates a valuation handler.
func New(svc Evaluator, val *validator.Validator) *Handler {
	return &Handler{service: svc, validator: val}
}

// PriceM2 handles POST /valuation/v1/price-m2.
func (h *Handler) PriceM2(c *gin.Context) {
	var req transport.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.service.Evaluate(c.Request.Context(), service.Request{
		LeadID:     req.LeadID,
		Address:    req.Address,
		Area:       req.Area,
		PostalCode: req.PostalCode,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ValuationResponse{
		LeadID:         result.LeadID,
		PriceM2:        result.PriceM2,
		ValuationPrice: result.TotalPrice,
		Source:         string(result.Source),
		Confidence:     result.Confidence,
		ValuationAt:    result.ComputedAt,
		Detail:         result.Detail,
	})
}
