package handler

import (
	"net/http"
	"strconv"
	"time"

	"pricing-service/internal/middleware"
	"pricing-service/internal/model"
	"pricing-service/internal/pricing"
	"pricing-service/internal/store"
	"pricing-service/pkg/logger"
	"pricing-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProductRequest defines the structure for product creation/update
// requests. Pointer fields distinguish "absent" from zero values so
// updates only override what the caller sent.
type ProductRequest struct {
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	CompetitorPrice *float64   `json:"competitor_price"`
	ProductionCost  *float64   `json:"production_cost"`
	DesiredMargin   *float64   `json:"desired_margin"`
	Category        *string    `json:"category"`
	Type            *string    `json:"type"`
	Stock           *int       `json:"stock"`
	LaunchDate      *time.Time `json:"launch_date"`
}

// ProductHandler serves the owner-scoped product CRUD endpoints.
type ProductHandler struct {
	Catalog *store.Catalog
}

// ListProducts handles retrieving all of the caller's products
func (h *ProductHandler) ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("list")

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	products, err := h.Catalog.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve products"})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product by ID
func (h *ProductHandler) GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("get")

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	product, err := h.loadOwned(c, userID)
	if err != nil {
		log.Warn("Product not found", zap.String("product_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	log.Info("Product retrieved successfully",
		zap.Uint("product_id", product.ID),
		zap.String("product_name", product.Name))
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles creating a new product owned by the caller
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("create")

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Name == nil || *req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.CompetitorPrice == nil || *req.CompetitorPrice <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "competitor_price must be positive"})
	}
	if req.ProductionCost == nil || *req.ProductionCost <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "production_cost must be positive"})
	}
	if req.DesiredMargin != nil && *req.DesiredMargin < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "desired_margin must be zero or positive"})
	}
	if req.Stock != nil && *req.Stock < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock must be zero or positive"})
	}

	product := model.Product{
		Name:            *req.Name,
		CompetitorPrice: *req.CompetitorPrice,
		ProductionCost:  *req.ProductionCost,
		UserID:          userID,
		LaunchDate:      req.LaunchDate,
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.DesiredMargin != nil {
		product.DesiredMargin = *req.DesiredMargin
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Type != nil {
		product.Type = *req.Type
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if err := h.Catalog.Save(c.Request().Context(), &product); err != nil {
		log.Error("Failed to create product",
			zap.String("name", product.Name),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create product"})
	}

	log.Info("Product created successfully",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product. Only fields
// present in the request body are overridden; the updated timestamp is
// always refreshed.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("update")

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	product, err := h.loadOwned(c, userID)
	if err != nil {
		log.Warn("Product not found for update", zap.String("product_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.CompetitorPrice != nil {
		product.CompetitorPrice = *req.CompetitorPrice
	}
	if req.ProductionCost != nil {
		product.ProductionCost = *req.ProductionCost
	}
	if req.DesiredMargin != nil {
		product.DesiredMargin = *req.DesiredMargin
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Type != nil {
		product.Type = *req.Type
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.LaunchDate != nil {
		product.LaunchDate = req.LaunchDate
	}

	if err := h.Catalog.Save(c.Request().Context(), product); err != nil {
		log.Error("Failed to update product",
			zap.Uint("product_id", product.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update product"})
	}

	log.Info("Product updated successfully",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product (soft delete). Pricing
// results referencing the product are kept as history.
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProductOperation("delete")

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	product, err := h.loadOwned(c, userID)
	if err != nil {
		log.Warn("Product not found for deletion", zap.String("product_id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	if err := h.Catalog.Delete(c.Request().Context(), product); err != nil {
		log.Error("Failed to delete product",
			zap.Uint("product_id", product.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete product"})
	}

	log.Info("Product deleted successfully", zap.Uint("product_id", product.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

// loadOwned parses the id path parameter and loads the product,
// treating ownership mismatches as not found.
func (h *ProductHandler) loadOwned(c echo.Context, userID uint) (*model.Product, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, pricing.ErrNotFound
	}

	product, err := h.Catalog.Get(c.Request().Context(), uint(id))
	if err != nil {
		return nil, err
	}
	if product.UserID != userID {
		return nil, pricing.ErrNotFound
	}
	return product, nil
}
