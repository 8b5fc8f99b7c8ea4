package handler

import (
	"net/http"
	"strconv"

	"pricing-service/internal/middleware"
	"pricing-service/internal/model"
	"pricing-service/internal/pricing"
	"pricing-service/pkg/logger"
	"pricing-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TarificationHandler serves the tarification strategy endpoints.
type TarificationHandler struct {
	Engine *pricing.TarificationEngine
}

// Skimming handles pricing a product under the skimming strategy. An
// optional max_price query parameter overrides the default ceiling.
func (h *TarificationHandler) Skimming(c echo.Context) error {
	prometheus.RecordPricingOperation("skimming")
	return h.compute(c, func(ctx echo.Context, productID, userID uint) (*model.TarificationResult, error) {
		return h.Engine.ComputeSkimming(ctx.Request().Context(), productID, userID, floatQueryParam(c, "max_price"))
	})
}

// Penetration handles pricing a product under the penetration strategy.
// An optional min_price query parameter overrides the default floor.
func (h *TarificationHandler) Penetration(c echo.Context) error {
	prometheus.RecordPricingOperation("penetration")
	return h.compute(c, func(ctx echo.Context, productID, userID uint) (*model.TarificationResult, error) {
		return h.Engine.ComputePenetration(ctx.Request().Context(), productID, userID, floatQueryParam(c, "min_price"))
	})
}

// Matching handles pricing a product against the competitor price.
func (h *TarificationHandler) Matching(c echo.Context) error {
	prometheus.RecordPricingOperation("matching")
	return h.compute(c, func(ctx echo.Context, productID, userID uint) (*model.TarificationResult, error) {
		return h.Engine.ComputePriceMatching(ctx.Request().Context(), productID, userID)
	})
}

// Future handles projecting a price months ahead under a named
// strategy. Query parameters: strategy (defaults to matching), months,
// reference (optional reference price).
func (h *TarificationHandler) Future(c echo.Context) error {
	prometheus.RecordPricingOperation("future")

	months, err := strconv.Atoi(c.QueryParam("months"))
	if err != nil || months < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "months must be a non-negative integer"})
	}

	strategy := c.QueryParam("strategy")
	return h.compute(c, func(ctx echo.Context, productID, userID uint) (*model.TarificationResult, error) {
		return h.Engine.ComputeFuture(ctx.Request().Context(), productID, userID, strategy, months, floatQueryParam(c, "reference"))
	})
}

// History handles retrieving the caller's tarification history
func (h *TarificationHandler) History(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	results, err := h.Engine.History(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to retrieve tarification history", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve tarification history"})
	}

	log.Info("Tarification history retrieved", zap.Int("count", len(results)))
	return c.JSON(http.StatusOK, results)
}

// ProductHistory handles retrieving the caller's tarification history
// for a single product.
func (h *TarificationHandler) ProductHistory(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	results, err := h.Engine.ProductHistory(c.Request().Context(), uint(productID), userID)
	if err != nil {
		log.Error("Failed to retrieve tarification history", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve tarification history"})
	}

	return c.JSON(http.StatusOK, results)
}

// compute factors the shared parameter handling of the strategy
// endpoints: caller identity, product id parsing, error mapping.
func (h *TarificationHandler) compute(c echo.Context, run func(echo.Context, uint, uint) (*model.TarificationResult, error)) error {
	log := logger.FromContext(c)

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	result, err := run(c, uint(productID), userID)
	if err != nil {
		log.Warn("Tarification computation failed",
			zap.Uint64("product_id", productID),
			zap.Error(err))
		return writePricingError(c, err)
	}

	log.Info("Tarification price computed",
		zap.Uint64("product_id", productID),
		zap.Float64("price", result.TarificationPrice),
		zap.Float64("time_in_months", result.TimeInMonths))
	return c.JSON(http.StatusCreated, result)
}

// floatQueryParam parses an optional float query parameter, returning
// nil when absent or unparseable.
func floatQueryParam(c echo.Context, name string) *float64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}
