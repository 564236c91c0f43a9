package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zvrva/railbooking/internal/repository"
	"github.com/zvrva/railbooking/internal/service/catalog"
)

type CatalogHandler struct {
	service catalog.CatalogUseCase
}

func NewCatalogHandler(service catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) Register(router *gin.RouterGroup) {
	router.GET("/stations", h.listStations)
	router.GET("/stations/:id", h.getStation)
	router.GET("/trains", h.listTrains)
	router.GET("/trains/:id", h.getTrain)
	router.GET("/trips", h.searchTrips)
	router.GET("/trips/:id", h.getTrip)
	router.GET("/trips/:id/departures", h.listDepartures)
}

func (h *CatalogHandler) listStations(c *gin.Context) {
	stations, err := h.service.ListStations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stations)
}

func (h *CatalogHandler) getStation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	station, err := h.service.GetStation(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, station)
}

func (h *CatalogHandler) listTrains(c *gin.Context) {
	trains, err := h.service.ListTrains(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trains)
}

func (h *CatalogHandler) getTrain(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	train, err := h.service.GetTrain(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, train)
}

func (h *CatalogHandler) searchTrips(c *gin.Context) {
	filter, err := tripFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trips, err := h.service.SearchTrips(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (h *CatalogHandler) getTrip(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.GetTrip(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *CatalogHandler) listDepartures(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	departures, err := h.service.ListDepartures(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, departures)
}

func tripFilterFromQuery(c *gin.Context) (repository.TripFilter, error) {
	var filter repository.TripFilter
	if raw := c.Query("origin"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errInvalidQuery("origin")
		}
		filter.OriginStationID = &id
	}
	if raw := c.Query("destination"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errInvalidQuery("destination")
		}
		filter.DestinationStationID = &id
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return filter, errInvalidQuery("date")
		}
		filter.Date = &day
	}
	return filter, nil
}

type queryError string

func (e queryError) Error() string { return "invalid query parameter: " + string(e) }

func errInvalidQuery(name string) error { return queryError(name) }
