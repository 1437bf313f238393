package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"silo-dispatch/internal/api/models"
	"silo-dispatch/internal/config"
)

// ProductHandler serves the product catalog
type ProductHandler struct {
	catalog *config.Catalog
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog *config.Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products := []models.ProductInfo{}
	if h.catalog == nil {
		c.JSON(http.StatusOK, gin.H{"products": products})
		return
	}
	for _, key := range h.catalog.Keys() {
		p := h.catalog.Products[key]
		name := p.Name
		if name == "" {
			name = key
		}
		products = append(products, models.ProductInfo{
			Key:            key,
			Name:           name,
			MinLevel:       float64(p.MinLevel),
			MaxLevel:       float64(p.MaxLevel),
			DeliveryAmount: float64(p.DeliveryAmount),
			ConversionRate: float64(p.ConversionRate),
			Unit:           string(p.Unit),
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /api/v1/products/:key
func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.catalog.Product(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
