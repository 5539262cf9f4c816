package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/compass/internal/models"
	"github.com/UnknownOlympus/compass/internal/routing"
	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 5
	maxLimit     = 50
)

var profiles = []string{models.ProfileFoot, models.ProfileBike, models.ProfileCar}

// MapsService is the behaviour the handler needs from the service layer.
type MapsService interface {
	Geocode(ctx context.Context, query string, limit int) (*models.PlaceResult, error)
	Route(ctx context.Context, query models.RouteQuery) (*models.RouteResult, error)
}

// MapsHandler serves the geocode and route endpoints.
type MapsHandler struct {
	service MapsService
	log     *slog.Logger
}

// NewMapsHandler creates a new maps handler.
func NewMapsHandler(svc MapsService, log *slog.Logger) *MapsHandler {
	return &MapsHandler{service: svc, log: log}
}

// Geocode handles GET /api/maps/geocode requests.
func (h *MapsHandler) Geocode(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'q'"})
		return
	}

	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be an integer in 1..%d", maxLimit)})
			return
		}
		limit = parsed
	}

	result, err := h.service.Geocode(c.Request.Context(), query, limit)
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Geocode request failed", "query", query, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding provider unavailable"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Route handles GET /api/maps/route requests.
func (h *MapsHandler) Route(c *gin.Context) {
	origin, err := coordinatesParam(c, "origin")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	destination, err := coordinatesParam(c, "dest")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := c.DefaultQuery("profile", models.ProfileFoot)
	if profile == "" {
		profile = models.ProfileFoot
	}
	if !slices.Contains(profiles, profile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile must be one of foot, bike, car"})
		return
	}

	route, err := h.service.Route(c.Request.Context(), models.RouteQuery{
		Origin:      origin,
		Destination: destination,
		Profile:     profile,
	})
	switch {
	case errors.Is(err, routing.ErrNoRoute):
		c.JSON(http.StatusNotFound, gin.H{"error": "no route found between the given points"})
		return
	case errors.Is(err, routing.ErrUnsupportedProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile not supported by the routing backend"})
		return
	case err != nil:
		h.log.ErrorContext(c.Request.Context(), "Route request failed", "profile", profile, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "routing provider unavailable"})
		return
	}

	c.JSON(http.StatusOK, route)
}

// coordinatesParam reads the <prefix>_lat and <prefix>_lon query parameters.
func coordinatesParam(c *gin.Context, prefix string) (models.Coordinates, error) {
	latKey, lonKey := prefix+"_lat", prefix+"_lon"
	latStr, lonStr := c.Query(latKey), c.Query(lonKey)

	if latStr == "" || lonStr == "" {
		return models.Coordinates{}, fmt.Errorf("missing required query parameters '%s' and '%s'", latKey, lonKey)
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("invalid %s format", latKey)
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("invalid %s format", lonKey)
	}

	point := models.Coordinates{Latitude: lat, Longitude: lon}
	if !point.Valid() {
		return models.Coordinates{}, fmt.Errorf("%s coordinates out of range", prefix)
	}

	return point, nil
}
