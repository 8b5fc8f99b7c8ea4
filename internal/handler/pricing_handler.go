package handler

import (
	"net/http"
	"strconv"

	"pricing-service/internal/middleware"
	"pricing-service/internal/pricing"
	"pricing-service/pkg/logger"
	"pricing-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PricingHandler serves the optimal pricing endpoints.
type PricingHandler struct {
	Service *pricing.OptimalService
}

// ComputeOptimal handles computing the optimal price for a product
func (h *PricingHandler) ComputeOptimal(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPricingOperation("optimal")

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	result, err := h.Service.ComputeOptimal(c.Request().Context(), uint(productID), userID)
	if err != nil {
		log.Warn("Optimal price computation failed",
			zap.Uint64("product_id", productID),
			zap.Error(err))
		return writePricingError(c, err)
	}

	log.Info("Optimal price computed",
		zap.Uint64("product_id", productID),
		zap.Float64("optimal_price", result.OptimalPrice))
	return c.JSON(http.StatusCreated, result)
}

// History handles retrieving the caller's optimal pricing history
func (h *PricingHandler) History(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	results, err := h.Service.History(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to retrieve pricing history", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve pricing history"})
	}

	log.Info("Pricing history retrieved", zap.Int("count", len(results)))
	return c.JSON(http.StatusOK, results)
}

// ProductHistory handles retrieving the caller's optimal pricing
// history for a single product.
func (h *PricingHandler) ProductHistory(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	results, err := h.Service.ProductHistory(c.Request().Context(), uint(productID), userID)
	if err != nil {
		log.Error("Failed to retrieve pricing history", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve pricing history"})
	}

	return c.JSON(http.StatusOK, results)
}
