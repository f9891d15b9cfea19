package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	app "storefront/internal/application/catalog"
	domain "storefront/internal/domain/catalog"
	"storefront/internal/domain/repository"
	"storefront/pkg/logger"
)

type ProductHandler struct {
	svc    *app.Service
	logger logger.Logger
}

func NewProductHandler(svc *app.Service, log logger.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, logger: log}
}

// ListProducts supports ?category=<category> ("all" or empty lists every
// category) and ?available=true.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var filter repository.ProductFilter
	if raw := strings.ToLower(c.Query("category")); raw != "" && raw != "all" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		filter.Category = category
	}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			respondMessage(c, http.StatusBadRequest, "available must be a boolean")
			return
		}
		filter.AvailableOnly = available
	}

	products, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	respondList(c, out, len(out))
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, toProductResponse(*p))
}

func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, categories, len(categories))
}

func (h *ProductHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}
