package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the addressed event does not exist.
	ErrNotFound = errors.New("events: trip event not found")

	errMissingDatabase = errors.New("events: database connection required")
)

// ServiceConfig describes the dependencies of the event service.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service owns trip events and their cost lines. Validation happens before
// any storage call; cost rows are written and removed inside the event's
// transaction because the storage layer defines no cascade.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the event service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// CreateInput carries a new event and its cost lines.
type CreateInput struct {
	TripID    uint
	EventName string
	Location  string
	StartDate time.Time
	EndDate   time.Time
	Costs     []Cost
}

// Create validates and inserts an event with its cost lines.
func (s *Service) Create(ctx context.Context, input CreateInput) (*TripEvent, error) {
	event := TripEvent{
		TripID:    input.TripID,
		EventName: input.EventName,
		Location:  input.Location,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	// service-level guard mirrors the entity check: nothing reaches storage
	// with a reversed date range or missing fields.
	if err := validateEventInput(event); err != nil {
		return nil, err
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		return insertCosts(tx, event.EventID, input.Costs)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.GetByID(ctx, event.EventID)
}

// UpdateInput carries replacement event fields plus the full cost list.
type UpdateInput struct {
	EventID   uint
	TripID    uint
	EventName string
	Location  string
	StartDate time.Time
	EndDate   time.Time
	Costs     []Cost
}

// Update validates and rewrites an event. Cost lines are replaced wholesale.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*TripEvent, error) {
	event := TripEvent{
		EventID:   input.EventID,
		TripID:    input.TripID,
		EventName: input.EventName,
		Location:  input.Location,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := validateEventInput(event); err != nil {
		return nil, err
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&TripEvent{}).
			Where("id = ?", input.EventID).
			Updates(map[string]interface{}{
				"event_name": event.EventName,
				"location":   event.Location,
				"start_date": event.StartDate,
				"end_date":   event.EndDate,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("event_id = ?", input.EventID).Delete(&Cost{}).Error; err != nil {
			return err
		}
		return insertCosts(tx, input.EventID, input.Costs)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.GetByID(ctx, input.EventID)
}

// GetByID loads one event with its cost lines in insertion order.
func (s *Service) GetByID(ctx context.Context, eventID uint) (*TripEvent, error) {
	var event TripEvent
	err := s.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&event.Costs).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// GetAllByTrip loads every event of a trip, each with its cost lines.
func (s *Service) GetAllByTrip(ctx context.Context, tripID uint) ([]TripEvent, error) {
	if tripID == 0 {
		return nil, fmt.Errorf("%w: trip_id", ErrMissingField)
	}
	var eventsForTrip []TripEvent
	if err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("id ASC").
		Find(&eventsForTrip).Error; err != nil {
		return nil, err
	}
	for i := range eventsForTrip {
		if err := s.db.WithContext(ctx).
			Where("event_id = ?", eventsForTrip[i].EventID).
			Order("id ASC").
			Find(&eventsForTrip[i].Costs).Error; err != nil {
			return nil, err
		}
	}
	return eventsForTrip, nil
}

// DeleteByID removes an event after removing its cost lines. A missing id is
// surfaced as ErrNotFound, never swallowed.
func (s *Service) DeleteByID(ctx context.Context, eventID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// children first; the schema defines no cascading delete.
		if err := tx.Where("event_id = ?", eventID).Delete(&Cost{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", eventID).Delete(&TripEvent{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func insertCosts(tx *gorm.DB, eventID uint, costs []Cost) error {
	if len(costs) == 0 {
		return nil
	}
	rows := make([]Cost, 0, len(costs))
	for _, cost := range costs {
		rows = append(rows, Cost{EventID: eventID, Category: cost.Category, Value: cost.Value})
	}
	return tx.Create(&rows).Error
}

func validateEventInput(event TripEvent) error {
	if event.StartDate.After(event.EndDate) {
		return ErrInvalidDateRange
	}
	return event.Validate()
}
