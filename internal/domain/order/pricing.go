package order

import (
	"math"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/catalog"
)

// LineRequest is one cart line as submitted by the client.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// Snapshot is a catalog read keyed by product id. Products absent from the
// map are treated as missing.
type Snapshot map[string]catalog.Product

// Quote is the authoritative pricing of a cart.
type Quote struct {
	Lines []OrderLine
	Total decimal.Decimal
}

// PriceCart validates the cart against snapshot and prices it. It has no
// side effects: the same inputs always produce the same Quote.
//
// Each subtotal is rounded to cents and the total is the sum of the rounded
// subtotals. Lines repeating a product are checked against their cumulative
// demand.
func PriceCart(requests []LineRequest, snapshot Snapshot) (Quote, error) {
	if len(requests) == 0 {
		return Quote{}, ErrEmptyCart
	}

	lines := make([]OrderLine, 0, len(requests))
	demand := make(map[string]int, len(requests))

	for _, req := range requests {
		if req.Quantity < 1 {
			return Quote{}, &ValidationError{Kind: ErrInvalidQuantity, Field: "quantity", Reason: "must be at least 1"}
		}

		product, ok := snapshot[req.ProductID]
		if !ok || !product.Active {
			return Quote{}, &ProductError{ProductID: req.ProductID}
		}

		// Compare before adding so a huge quantity cannot wrap the total.
		held := demand[req.ProductID]
		if req.Quantity > product.Stock-held {
			requested := held + req.Quantity
			if requested < held {
				requested = math.MaxInt
			}
			return Quote{}, &StockError{
				Kind:        ErrInsufficientStock,
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   requested,
				Available:   product.Stock,
			}
		}
		demand[req.ProductID] = held + req.Quantity

		line, err := NewOrderLine(product, req.Quantity)
		if err != nil {
			return Quote{}, err
		}
		lines = append(lines, line)
	}

	return Quote{Lines: lines, Total: SumLines(lines)}, nil
}

// SumLines adds the line subtotals and rounds the result to cents.
func SumLines(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
	}
	return catalog.RoundCents(total)
}

// Demand aggregates line quantities per product, keeping first-seen order.
type Demand struct {
	ProductID   string
	ProductName string
	Quantity    int
}

// AggregateDemand folds lines that repeat a product into one Demand each.
// Lines are expected to come from PriceCart, which bounds every total by stock.
func AggregateDemand(lines []OrderLine) []Demand {
	index := make(map[string]int, len(lines))
	out := make([]Demand, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, Demand{ProductID: line.ProductID, ProductName: line.ProductName, Quantity: line.Quantity})
	}
	return out
}
