package handler

import (
	"errors"
	"net/http"

	"pricing-service/internal/pricing"

	"github.com/labstack/echo/v4"
)

// writePricingError maps core pricing errors onto HTTP responses.
// Predictor failures never reach here for the optimal strategy (they
// are absorbed by the fallback); an UpstreamError can only surface from
// the category normalization step.
func writePricingError(c echo.Context, err error) error {
	var validationErr *pricing.ValidationError
	var domainErr *pricing.DomainNotRecognizedError
	var upstreamErr *pricing.UpstreamError

	switch {
	case errors.Is(err, pricing.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.As(err, &domainErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             domainErr.Error(),
			"category":          domainErr.Attempted,
			"available_domains": domainErr.Available,
		})
	case errors.As(err, &upstreamErr):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "price prediction service unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
