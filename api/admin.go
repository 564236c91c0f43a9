package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zvrva/railbooking/internal/domain"
	"github.com/zvrva/railbooking/internal/service/booking"
	"github.com/zvrva/railbooking/internal/service/catalog"
)

// AdminHandler exposes the catalog management surface. All routes are
// mounted behind RequireAuth and RequireAdmin.
type AdminHandler struct {
	catalog  catalog.AdminUseCase
	bookings booking.BookingUseCase
}

func NewAdminHandler(cat catalog.AdminUseCase, bookings booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{catalog: cat, bookings: bookings}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/stations", h.createStation)
	router.PUT("/stations/:id", h.updateStation)
	router.DELETE("/stations/:id", h.deleteStation)

	router.POST("/trains", h.createTrain)
	router.PUT("/trains/:id", h.updateTrain)
	router.DELETE("/trains/:id", h.deleteTrain)

	router.POST("/trips", h.createTrip)
	router.DELETE("/trips/:id", h.deleteTrip)
	router.PUT("/trips/:id/fares", h.setFare)

	router.POST("/trips/:id/departures", h.createDeparture)
	router.PUT("/departures/:id/capacity", h.setCapacity)

	router.GET("/bookings", h.listBookings)
}

func (h *AdminHandler) createStation(c *gin.Context) {
	var station domain.Station
	if err := c.ShouldBindJSON(&station); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.catalog.CreateStation(c.Request.Context(), &station); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, station)
}

func (h *AdminHandler) updateStation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var station domain.Station
	if err := c.ShouldBindJSON(&station); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	station.ID = id
	if err := h.catalog.UpdateStation(c.Request.Context(), &station); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, station)
}

func (h *AdminHandler) deleteStation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteStation(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) createTrain(c *gin.Context) {
	var train domain.Train
	if err := c.ShouldBindJSON(&train); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.catalog.CreateTrain(c.Request.Context(), &train); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, train)
}

func (h *AdminHandler) updateTrain(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var train domain.Train
	if err := c.ShouldBindJSON(&train); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	train.ID = id
	if err := h.catalog.UpdateTrain(c.Request.Context(), &train); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, train)
}

func (h *AdminHandler) deleteTrain(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteTrain(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createTripRequest struct {
	TrainID              int64         `json:"train_id"`
	OriginStationID      int64         `json:"origin_station_id"`
	DestinationStationID int64         `json:"destination_station_id"`
	Fares                []domain.Fare `json:"fares"`
}

func (h *AdminHandler) createTrip(c *gin.Context) {
	var req createTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trip := domain.Trip{
		TrainID:              req.TrainID,
		OriginStationID:      req.OriginStationID,
		DestinationStationID: req.DestinationStationID,
	}
	if err := h.catalog.CreateTrip(c.Request.Context(), &trip, req.Fares); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *AdminHandler) deleteTrip(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteTrip(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setFareRequest struct {
	ClassKey   domain.ClassKey `json:"class_key"`
	PriceCents int64           `json:"price_cents"`
}

func (h *AdminHandler) setFare(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req setFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.ClassKey.Known() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown class"})
		return
	}
	fare := domain.Fare{TripID: id, ClassKey: req.ClassKey, PriceCents: req.PriceCents}
	if err := h.catalog.SetFare(c.Request.Context(), fare); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fare)
}

type createDepartureRequest struct {
	DepartureTime time.Time               `json:"departure_time"`
	ArrivalTime   time.Time               `json:"arrival_time"`
	Capacities    map[domain.ClassKey]int `json:"capacities"`
}

func (h *AdminHandler) createDeparture(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req createDepartureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dep := domain.Departure{
		TripID:        id,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
	}
	if err := h.catalog.CreateDeparture(c.Request.Context(), &dep, req.Capacities); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dep)
}

type setCapacityRequest struct {
	ClassKey domain.ClassKey `json:"class_key"`
	Capacity int             `json:"capacity"`
}

func (h *AdminHandler) setCapacity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req setCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.ClassKey.Known() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown class"})
		return
	}
	if err := h.catalog.SetDepartureCapacity(c.Request.Context(), id, req.ClassKey, req.Capacity); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listBookings(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	bookings, err := h.bookings.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}
