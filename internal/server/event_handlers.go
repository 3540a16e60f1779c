package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tripmoa/backend/internal/events"
	"go.uber.org/zap"
)

type costPayload struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

type eventRequestPayload struct {
	TripID    uint          `json:"trip_id"`
	EventName string        `json:"event_name"`
	Location  string        `json:"location"`
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	Costs     []costPayload `json:"costs"`
}

type eventResponsePayload struct {
	EventID   uint          `json:"event_id"`
	TripID    uint          `json:"trip_id"`
	EventName string        `json:"event_name"`
	Location  string        `json:"location"`
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	Costs     []costPayload `json:"costs"`
}

func toEventPayload(event events.TripEvent) eventResponsePayload {
	costs := make([]costPayload, 0, len(event.Costs))
	for _, cost := range event.Costs {
		costs = append(costs, costPayload{Category: cost.Category, Value: cost.Value})
	}
	return eventResponsePayload{
		EventID:   event.EventID,
		TripID:    event.TripID,
		EventName: event.EventName,
		Location:  event.Location,
		StartDate: event.StartDate.Format("2006-01-02"),
		EndDate:   event.EndDate.Format("2006-01-02"),
		Costs:     costs,
	}
}

func toCosts(payloads []costPayload) []events.Cost {
	costs := make([]events.Cost, 0, len(payloads))
	for _, payload := range payloads {
		costs = append(costs, events.Cost{Category: payload.Category, Value: payload.Value})
	}
	return costs
}

func (h *httpHandler) handleCreateEvent(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	var request eventRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	startDate, err := parseDate(request.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	endDate, err := parseDate(request.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	event, err := h.events.Create(c.Request.Context(), events.CreateInput{
		TripID:    request.TripID,
		EventName: request.EventName,
		Location:  request.Location,
		StartDate: startDate,
		EndDate:   endDate,
		Costs:     toCosts(request.Costs),
	})
	if err != nil {
		h.respondEventError(c, err, "event creation failed")
		return
	}
	c.JSON(http.StatusCreated, toEventPayload(*event))
}

func (h *httpHandler) handleUpdateEvent(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	eventID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var request eventRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	startDate, err := parseDate(request.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	endDate, err := parseDate(request.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	event, err := h.events.Update(c.Request.Context(), events.UpdateInput{
		EventID:   eventID,
		TripID:    request.TripID,
		EventName: request.EventName,
		Location:  request.Location,
		StartDate: startDate,
		EndDate:   endDate,
		Costs:     toCosts(request.Costs),
	})
	if err != nil {
		h.respondEventError(c, err, "event update failed")
		return
	}
	c.JSON(http.StatusOK, toEventPayload(*event))
}

func (h *httpHandler) handleGetEvent(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	eventID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	event, err := h.events.GetByID(c.Request.Context(), eventID)
	if err != nil {
		h.respondEventError(c, err, "event lookup failed")
		return
	}
	c.JSON(http.StatusOK, toEventPayload(*event))
}

func (h *httpHandler) handleListTripEvents(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	tripID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	eventsForTrip, err := h.events.GetAllByTrip(c.Request.Context(), tripID)
	if err != nil {
		h.respondEventError(c, err, "event listing failed")
		return
	}
	payloads := make([]eventResponsePayload, 0, len(eventsForTrip))
	for _, event := range eventsForTrip {
		payloads = append(payloads, toEventPayload(event))
	}
	c.JSON(http.StatusOK, gin.H{"events": payloads})
}

func (h *httpHandler) handleDeleteEvent(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	eventID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.events.DeleteByID(c.Request.Context(), eventID); err != nil {
		h.respondEventError(c, err, "event deletion failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *httpHandler) respondEventError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, events.ErrInvalidDateRange), errors.Is(err, events.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, events.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event_not_found"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
