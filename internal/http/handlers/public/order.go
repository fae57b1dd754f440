package public

import (
	"errors"
	"strconv"
	"time"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/repository"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// RecordOrderItemRequest is one order line.
type RecordOrderItemRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

// RecordOrderRequest is a qualifying purchase to record.
type RecordOrderRequest struct {
	EventKey   string                   `json:"event_key" binding:"required"`
	IsAutoship bool                     `json:"is_autoship"`
	Items      []RecordOrderItemRequest `json:"items" binding:"required"`
	OccurredAt *time.Time               `json:"occurred_at"`
}

// RecordOrder records a purchase event for the authenticated distributor.
// Repeating an event key returns the stored event unchanged.
func (h *Handler) RecordOrder(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	var req RecordOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if h.VolumeService == nil {
		respondError(c, response.CodeInternal, "order recording unavailable", nil)
		return
	}

	items := make([]service.RecordOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.RecordOrderItem{
			SKU:      item.SKU,
			Quantity: item.Quantity,
		})
	}
	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	event, err := h.VolumeService.RecordOrder(service.RecordOrderInput{
		EventKey:      req.EventKey,
		DistributorID: id,
		IsAutoship:    req.IsAutoship,
		Items:         items,
		OccurredAt:    occurredAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "distributor not found", nil)
		case errors.Is(err, service.ErrInvalidEventItem):
			respondError(c, response.CodeBadRequest, "order items invalid", nil)
		case errors.Is(err, service.ErrUnknownProduct):
			respondError(c, response.CodeBadRequest, "unknown product sku", nil)
		default:
			respondError(c, response.CodeInternal, "order record failed", err)
		}
		return
	}
	response.Success(c, event)
}

// ListMyOrders lists the authenticated distributor's order events.
func (h *Handler) ListMyOrders(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	events, total, err := h.OrderEventRepo.List(repository.OrderEventListFilter{
		Page:          page,
		PageSize:      pageSize,
		DistributorID: id,
		PeriodKey:     c.Query("period_key"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, events, response.BuildPagination(page, pageSize, total))
}
