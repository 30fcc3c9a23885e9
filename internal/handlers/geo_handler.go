package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"residence-booking/internal/services/geocode"
)

type GeoHandler struct {
	geocoder *geocode.Client
}

func NewGeoHandler(geocoder *geocode.Client) *GeoHandler {
	return &GeoHandler{geocoder: geocoder}
}

// Reverse resolves coordinates to a structured address for listing forms.
func (h *GeoHandler) Reverse(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	lat, err := strconv.ParseFloat(e.Request.URL.Query().Get("lat"), 64)
	if err != nil {
		return apis.NewBadRequestError("lat must be a number", nil)
	}
	lng, err := strconv.ParseFloat(e.Request.URL.Query().Get("lng"), 64)
	if err != nil {
		return apis.NewBadRequestError("lng must be a number", nil)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apis.NewBadRequestError("coordinates out of range", nil)
	}

	address, err := h.geocoder.Reverse(e.Request.Context(), lat, lng)
	if err != nil {
		if errors.Is(err, geocode.ErrTimeout) {
			return apis.NewApiError(http.StatusGatewayTimeout, "Geocoder is not responding", nil)
		}
		return apis.NewApiError(http.StatusBadGateway, "Geocoder error", nil)
	}
	return e.JSON(http.StatusOK, address)
}

// Search resolves a free-text address to candidate locations.
func (h *GeoHandler) Search(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	query := e.Request.URL.Query().Get("q")
	if query == "" {
		return apis.NewBadRequestError("q is required", nil)
	}

	limit := 5
	if raw := e.Request.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	results, err := h.geocoder.Search(e.Request.Context(), query, limit)
	if err != nil {
		if errors.Is(err, geocode.ErrTimeout) {
			return apis.NewApiError(http.StatusGatewayTimeout, "Geocoder is not responding", nil)
		}
		return apis.NewApiError(http.StatusBadGateway, "Geocoder error", nil)
	}
	return e.JSON(http.StatusOK, map[string]any{"results": results})
}
