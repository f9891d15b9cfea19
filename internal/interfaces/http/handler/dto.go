package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items         []orderItemRequest `json:"items"`
	CustomerInfo  order.CustomerInfo `json:"customerInfo"`
	DeliveryType  string             `json:"deliveryType"`
	PaymentMethod string             `json:"paymentMethod"`
	Notes         string             `json:"notes"`
}

func (r createOrderRequest) lineRequests() []order.LineRequest {
	out := make([]order.LineRequest, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, order.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID                   string              `json:"id"`
	OrderNumber          string              `json:"orderNumber"`
	Items                []order.OrderLine   `json:"items"`
	TotalAmount          decimal.Decimal     `json:"totalAmount"`
	CustomerInfo         order.CustomerInfo  `json:"customerInfo"`
	Status               order.Status        `json:"status"`
	PaymentMethod        order.PaymentMethod `json:"paymentMethod"`
	PaymentStatus        order.PaymentStatus `json:"paymentStatus"`
	DeliveryType         order.DeliveryType  `json:"deliveryType"`
	Notes                string              `json:"notes"`
	EstimatedPrepMinutes int                 `json:"estimatedPreparationMinutes"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:                   o.ID,
		OrderNumber:          o.Number,
		Items:                o.Lines,
		TotalAmount:          o.TotalAmount,
		CustomerInfo:         o.Customer,
		Status:               o.Status,
		PaymentMethod:        o.PaymentMethod,
		PaymentStatus:        o.PaymentStatus,
		DeliveryType:         o.DeliveryType,
		Notes:                o.Notes,
		EstimatedPrepMinutes: int(o.EstimatedPreparation().Minutes()),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

func toOrderResponses(orders []*order.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

type productResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Category    catalog.Category `json:"category"`
	Image       string           `json:"image,omitempty"`
	Stock       int              `json:"stock"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Image:       p.ImageURL,
		Stock:       p.Stock,
		IsActive:    p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type eventResponse struct {
	ID             string          `json:"id"`
	Type           order.EventType `json:"type"`
	OrderID        string          `json:"orderId"`
	OrderNumber    string          `json:"orderNumber"`
	Status         order.Status    `json:"status"`
	PreviousStatus order.Status    `json:"previousStatus,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

func toEventResponses(events []order.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:             e.ID,
			Type:           e.Type,
			OrderID:        e.OrderID,
			OrderNumber:    e.OrderNumber,
			Status:         e.Status,
			PreviousStatus: e.PreviousStatus,
			TotalAmount:    e.TotalAmount,
			OccurredAt:     e.OccurredAt,
		})
	}
	return out
}
