package order

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentPix    PaymentMethod = "pix"
	PaymentOnline PaymentMethod = "online"
)

// ParsePaymentMethod defaults empty input to cash.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCard, PaymentPix, PaymentOnline:
		return m, nil
	default:
		return "", invalidOrder("paymentMethod", fmt.Sprintf("%q is not supported", raw))
	}
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "pickup"
	DeliveryDelivery DeliveryType = "delivery"
)

// ParseDeliveryType defaults empty input to pickup.
func ParseDeliveryType(raw string) (DeliveryType, error) {
	switch d := DeliveryType(strings.ToLower(strings.TrimSpace(raw))); d {
	case "":
		return DeliveryPickup, nil
	case DeliveryPickup, DeliveryDelivery:
		return d, nil
	default:
		return "", invalidOrder("deliveryType", fmt.Sprintf("%q is not supported", raw))
	}
}

type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
}

func (a *Address) IsZero() bool {
	return a == nil || *a == Address{}
}

type CustomerInfo struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Email   string   `json:"email,omitempty"`
	Address *Address `json:"address,omitempty"`
}
