package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/application/history"
	app "storefront/internal/application/order"
	domain "storefront/internal/domain/order"
	"storefront/pkg/logger"
)

type OrderHandler struct {
	svc     *app.Service
	history *history.Service
	logger  logger.Logger
}

func NewOrderHandler(svc *app.Service, hist *history.Service, log logger.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, history: hist, logger: log}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	o, err := h.svc.SubmitOrder(c.Request.Context(), app.SubmitOrderCommand{
		Items:         req.lineRequests(),
		Customer:      req.CustomerInfo,
		DeliveryType:  req.DeliveryType,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, toOrderResponse(o))
}

// ListOrders supports ?status=<status> and ?today=true, alone or combined.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q app.ListOrdersQuery
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		q.Status = status
	}
	if raw := c.Query("today"); raw != "" {
		today, err := strconv.ParseBool(raw)
		if err != nil {
			respondMessage(c, http.StatusBadRequest, "today must be a boolean")
			return
		}
		q.Today = today
	}

	orders, err := h.svc.ListOrders(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, toOrderResponses(orders), len(orders))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Status == "" {
		respondMessage(c, http.StatusBadRequest, "status is required")
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	o, err := h.svc.ChangeOrderStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) Estimate(c *gin.Context) {
	id := c.Param("id")
	d, err := h.svc.EstimatedPreparation(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"orderId":          id,
		"estimatedMinutes": int(d.Minutes()),
	})
}

func (h *OrderHandler) History(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.svc.GetOrder(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	events, err := h.history.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, toEventResponses(events), len(events))
}
