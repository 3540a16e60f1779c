package events

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateRange indicates an event whose start date falls after its end
// date. Checked here at the entity level and again in the service before any
// persistence call.
var ErrInvalidDateRange = errors.New("events: start date must not be after end date")

// ErrMissingField indicates a required event field was empty.
var ErrMissingField = errors.New("events: required field missing")

// TripEvent is one scheduled activity inside a trip, with its cost lines.
type TripEvent struct {
	EventID   uint      `gorm:"column:id;primaryKey;autoIncrement"`
	TripID    uint      `gorm:"column:trip_id;not null;index"`
	EventName string    `gorm:"column:event_name;size:190;not null"`
	Location  string    `gorm:"column:location;size:190;not null"`
	StartDate time.Time `gorm:"column:start_date;not null"`
	EndDate   time.Time `gorm:"column:end_date;not null"`

	// Costs are persisted as separate rows and managed explicitly by the
	// service; the storage layer does not cascade them.
	Costs []Cost `gorm:"-"`
}

// TableName exposes the table backing trip events.
func (TripEvent) TableName() string {
	return "trip_events"
}

// Validate checks the entity-level invariants.
func (e TripEvent) Validate() error {
	if e.TripID == 0 {
		return fmt.Errorf("%w: trip_id", ErrMissingField)
	}
	if strings.TrimSpace(e.EventName) == "" {
		return fmt.Errorf("%w: event_name", ErrMissingField)
	}
	if strings.TrimSpace(e.Location) == "" {
		return fmt.Errorf("%w: location", ErrMissingField)
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date/end_date", ErrMissingField)
	}
	if e.StartDate.After(e.EndDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// Cost is one expense line on an event. Lines form an ordered sequence and
// categories may repeat.
type Cost struct {
	ID       uint    `gorm:"column:id;primaryKey;autoIncrement"`
	EventID  uint    `gorm:"column:event_id;not null;index"`
	Category string  `gorm:"column:category;size:190;not null"`
	Value    float64 `gorm:"column:value;not null"`
}

// TableName exposes the table backing cost lines.
func (Cost) TableName() string {
	return "trip_event_costs"
}
