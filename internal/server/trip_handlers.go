package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tripmoa/backend/internal/trips"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// Trip dates arrive either as bare dates or full RFC 3339 timestamps.
var acceptedDateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range acceptedDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

type tripRequestPayload struct {
	Name            string   `json:"name"`
	Destination     string   `json:"destination"`
	DestinationType string   `json:"destination_type"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	MemberEmails    []string `json:"member_emails"`
}

type tripResponsePayload struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Destination     string `json:"destination"`
	DestinationType string `json:"destination_type"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	CreatedBy       string `json:"created_by"`
}

func toTripPayload(trip trips.TripSchedule) tripResponsePayload {
	return tripResponsePayload{
		ID:              trip.ID,
		Name:            trip.Name,
		Destination:     trip.Destination,
		DestinationType: trip.DestinationType,
		StartDate:       trip.StartDate.Format("2006-01-02"),
		EndDate:         trip.EndDate.Format("2006-01-02"),
		CreatedBy:       trip.CreatedBy,
	}
}

func toTripPayloads(schedules []trips.TripSchedule) []tripResponsePayload {
	payloads := make([]tripResponsePayload, 0, len(schedules))
	for _, trip := range schedules {
		payloads = append(payloads, toTripPayload(trip))
	}
	return payloads
}

func (h *httpHandler) handleCreateTrip(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request tripRequestPayload
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

	trip, err := h.trips.Create(c.Request.Context(), trips.CreateInput{
		Name:            request.Name,
		Destination:     request.Destination,
		DestinationType: request.DestinationType,
		StartDate:       startDate,
		EndDate:         endDate,
		CreatedBy:       session.UserID,
		MemberEmails:    request.MemberEmails,
	})
	if err != nil {
		h.respondTripError(c, err, "trip creation failed")
		return
	}
	c.JSON(http.StatusCreated, toTripPayload(*trip))
}

func (h *httpHandler) handleUpdateTrip(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	tripID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var request tripRequestPayload
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

	err = h.trips.Update(c.Request.Context(), trips.UpdateInput{
		ID:              tripID,
		Name:            request.Name,
		Destination:     request.Destination,
		DestinationType: request.DestinationType,
		StartDate:       startDate,
		EndDate:         endDate,
		MemberEmails:    request.MemberEmails,
	})
	if err != nil {
		h.respondTripError(c, err, "trip update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *httpHandler) handleListTrips(c *gin.Context) {
	h.listTrips(c, h.trips.GetByUser)
}

func (h *httpHandler) handleListPastTrips(c *gin.Context) {
	h.listTrips(c, h.trips.GetPastByUser)
}

func (h *httpHandler) handleListUpcomingTrips(c *gin.Context) {
	h.listTrips(c, h.trips.GetUpcomingByUser)
}

func (h *httpHandler) listTrips(c *gin.Context, load func(ctx context.Context, userID string) ([]trips.TripSchedule, error)) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	schedules, err := load(c.Request.Context(), session.UserID)
	if err != nil {
		h.respondTripError(c, err, "trip listing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": toTripPayloads(schedules)})
}

// handleCurrentTrip returns the trip covering today, or an explicit null.
func (h *httpHandler) handleCurrentTrip(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	current, err := h.trips.GetCurrentByUser(c.Request.Context(), session.UserID)
	if err != nil {
		h.respondTripError(c, err, "current trip lookup failed")
		return
	}
	if current == nil {
		c.JSON(http.StatusOK, gin.H{"trip": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": toTripPayload(*current)})
}

type tripPagePayload struct {
	Trips      []tripResponsePayload `json:"trips"`
	HasNext    bool                  `json:"has_next"`
	NextCursor *uint                 `json:"next_cursor"`
}

func (h *httpHandler) handlePastTripsPage(c *gin.Context) {
	h.pageTrips(c, h.trips.GetPastByUserCursor)
}

func (h *httpHandler) handleUpcomingTripsPage(c *gin.Context) {
	h.pageTrips(c, h.trips.GetUpcomingByUserCursor)
}

func (h *httpHandler) pageTrips(c *gin.Context, load func(ctx context.Context, userID string, cursor *uint, limit int) (trips.Page, error)) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	limit := defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	var cursor *uint
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
			return
		}
		value := uint(parsed)
		cursor = &value
	}

	page, err := load(c.Request.Context(), session.UserID, cursor, limit)
	if err != nil {
		h.respondTripError(c, err, "trip paging failed")
		return
	}
	c.JSON(http.StatusOK, tripPagePayload{
		Trips:      toTripPayloads(page.Trips),
		HasNext:    page.HasNext,
		NextCursor: page.NextCursor,
	})
}

func (h *httpHandler) handleGetTrip(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	tripID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	trip, err := h.trips.GetWithMembers(c.Request.Context(), tripID)
	if err != nil {
		h.respondTripError(c, err, "trip lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trip":    toTripPayload(trip.TripSchedule),
		"members": trip.Members,
	})
}

func (h *httpHandler) handleDeleteTrip(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	tripID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.trips.DeleteOne(c.Request.Context(), tripID); err != nil {
		h.respondTripError(c, err, "trip deletion failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type bulkDeletePayload struct {
	TripIDs []uint `json:"trip_ids"`
}

func (h *httpHandler) handleDeleteTrips(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	var request bulkDeletePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.trips.DeleteMany(c.Request.Context(), request.TripIDs); err != nil {
		h.respondTripError(c, err, "bulk trip deletion failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *httpHandler) respondTripError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, trips.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, trips.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "trip_not_found"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	parsed, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || parsed == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(parsed), true
}
