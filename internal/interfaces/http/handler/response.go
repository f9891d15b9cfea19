package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/order"
	"storefront/pkg/logger"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondList(c *gin.Context, data interface{}, count int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"count":   count,
	})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// respondError maps the domain error taxonomy onto HTTP status codes.
// Unclassified errors are logged and reported as a generic 500.
func respondError(c *gin.Context, log logger.Logger, err error) {
	var (
		conflict   *order.StatusConflictError
		transition *order.TransitionError
		stock      *order.StockError
	)

	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": err.Error(),
			"from":    conflict.Actual,
			"to":      conflict.To,
		})
	case errors.As(err, &transition):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
			"from":    transition.From,
			"to":      transition.To,
		})
	case errors.As(err, &stock):
		status := http.StatusBadRequest
		if errors.Is(err, order.ErrStockConflict) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"success":   false,
			"message":   err.Error(),
			"productId": stock.ProductID,
			"available": stock.Available,
		})
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		respondMessage(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, order.ErrInvalidCustomerInfo),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrInvalidOrder),
		errors.Is(err, order.ErrMissingField),
		errors.Is(err, catalog.ErrInvalidCategory):
		respondMessage(c, http.StatusBadRequest, err.Error())
	default:
		log.WithContext(c.Request.Context()).Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
		respondMessage(c, http.StatusInternalServerError, "internal server error")
	}
}
