package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tripmoa/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the addressed trip schedule does not exist.
	ErrNotFound = errors.New("trips: trip schedule not found")
	// ErrValidation indicates input rejected before any persistence call.
	ErrValidation = errors.New("trips: invalid input")

	errMissingDatabase = errors.New("trips: database connection required")
	noOpLogger         = zap.NewNop()
)

// ServiceError wraps a storage failure with a dotted operation.reason code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the machine-readable failure code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opCreate         = "trips.create"
	opUpdate         = "trips.update"
	opList           = "trips.list"
	opListPage       = "trips.list_page"
	opGetWithMembers = "trips.get_with_members"
	opDelete         = "trips.delete"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// ServiceConfig describes the dependencies of the trip service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns trip schedules, their membership rows and the date-partitioned
// and cursor-paginated read paths. All reads are scoped to membership.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the trip service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// CreateInput carries a new schedule plus the member emails to resolve.
type CreateInput struct {
	Name            string
	Destination     string
	DestinationType string
	StartDate       time.Time
	EndDate         time.Time
	CreatedBy       string
	MemberEmails    []string
}

// Create inserts the schedule and its membership rows in one transaction.
// Member emails that resolve to no user are logged and skipped, never fatal.
// The creator is always a member regardless of the email list.
func (s *Service) Create(ctx context.Context, input CreateInput) (*TripSchedule, error) {
	if err := validateScheduleInput(input.Name, input.Destination, input.CreatedBy, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	trip := TripSchedule{
		Name:            strings.TrimSpace(input.Name),
		Destination:     strings.TrimSpace(input.Destination),
		DestinationType: strings.TrimSpace(input.DestinationType),
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		CreatedBy:       input.CreatedBy,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&trip).Error; err != nil {
			return newServiceError(opCreate, "schedule_insert_failed", err)
		}

		memberIDs, err := s.resolveMemberIDs(tx, input.MemberEmails)
		if err != nil {
			return newServiceError(opCreate, "member_resolve_failed", err)
		}
		memberIDs[input.CreatedBy] = struct{}{}

		memberships := make([]Membership, 0, len(memberIDs))
		for userID := range memberIDs {
			memberships = append(memberships, Membership{UserID: userID, TripID: trip.ID})
		}
		if err := tx.Create(&memberships).Error; err != nil {
			return newServiceError(opCreate, "membership_insert_failed", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return &trip, nil
}

// UpdateInput carries replacement schedule fields plus the full member list.
type UpdateInput struct {
	ID              uint
	Name            string
	Destination     string
	DestinationType string
	StartDate       time.Time
	EndDate         time.Time
	MemberEmails    []string
}

// Update rewrites the schedule and replaces its membership set in one
// transaction. The membership rows are deleted and recreated wholesale; a
// diff-based upsert would be cheaper but observably identical.
func (s *Service) Update(ctx context.Context, input UpdateInput) error {
	if err := validateScheduleInput(input.Name, input.Destination, "-", input.StartDate, input.EndDate); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&TripSchedule{}).
			Where("id = ?", input.ID).
			Updates(map[string]interface{}{
				"name":             strings.TrimSpace(input.Name),
				"destination":      strings.TrimSpace(input.Destination),
				"destination_type": strings.TrimSpace(input.DestinationType),
				"start_date":       input.StartDate,
				"end_date":         input.EndDate,
			})
		if result.Error != nil {
			return newServiceError(opUpdate, "schedule_update_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("trip_id = ?", input.ID).Delete(&Membership{}).Error; err != nil {
			return newServiceError(opUpdate, "membership_delete_failed", err)
		}

		memberIDs, err := s.resolveMemberIDs(tx, input.MemberEmails)
		if err != nil {
			return newServiceError(opUpdate, "member_resolve_failed", err)
		}
		if len(memberIDs) == 0 {
			return nil
		}
		memberships := make([]Membership, 0, len(memberIDs))
		for userID := range memberIDs {
			memberships = append(memberships, Membership{UserID: userID, TripID: input.ID})
		}
		if err := tx.Create(&memberships).Error; err != nil {
			return newServiceError(opUpdate, "membership_insert_failed", err)
		}
		return nil
	})
}

// resolveMemberIDs batch-resolves emails to user ids against the users table.
// Unresolved addresses are warn-logged and dropped.
func (s *Service) resolveMemberIDs(tx *gorm.DB, emails []string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	deduped := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		deduped = append(deduped, normalized)
	}
	if len(deduped) == 0 {
		return ids, nil
	}

	var members []users.User
	if err := tx.Where("email IN ?", deduped).Find(&members).Error; err != nil {
		return nil, err
	}

	found := make(map[string]struct{}, len(members))
	for _, member := range members {
		ids[member.ID] = struct{}{}
		found[member.Email] = struct{}{}
	}

	missing := make([]string, 0)
	for _, email := range deduped {
		if _, ok := found[email]; !ok {
			missing = append(missing, email)
		}
	}
	if len(missing) > 0 {
		s.logger.Warn("trip member emails did not resolve to users",
			zap.Strings("emails", missing))
	}
	return ids, nil
}

func (s *Service) memberScope(userID string) *gorm.DB {
	return s.db.
		Joins("JOIN trip_schedule_members ON trip_schedule_members.trip_id = trip_schedules.id").
		Where("trip_schedule_members.user_id = ?", userID)
}

// GetByUser returns every trip the user is a member of, unordered.
func (s *Service) GetByUser(ctx context.Context, userID string) ([]TripSchedule, error) {
	var trips []TripSchedule
	if err := s.memberScope(userID).WithContext(ctx).Find(&trips).Error; err != nil {
		return nil, newServiceError(opList, "query_failed", err)
	}
	return trips, nil
}

// GetPastByUser returns trips that ended strictly before today. The boundary
// is today at 00:00:00, so a trip ending today is still in progress, not past.
func (s *Service) GetPastByUser(ctx context.Context, userID string) ([]TripSchedule, error) {
	var trips []TripSchedule
	if err := s.memberScope(userID).WithContext(ctx).
		Where("end_date < ?", s.startOfToday()).
		Find(&trips).Error; err != nil {
		return nil, newServiceError(opList, "query_failed", err)
	}
	return trips, nil
}

// GetUpcomingByUser returns trips that start strictly after today. The
// boundary is the last instant of today, so a trip starting today is current,
// not upcoming.
func (s *Service) GetUpcomingByUser(ctx context.Context, userID string) ([]TripSchedule, error) {
	var trips []TripSchedule
	if err := s.memberScope(userID).WithContext(ctx).
		Where("start_date > ?", s.endOfToday()).
		Find(&trips).Error; err != nil {
		return nil, newServiceError(opList, "query_failed", err)
	}
	return trips, nil
}

// GetCurrentByUser returns the first trip whose date range covers today,
// compared at date granularity, or nil when no trip is in progress.
func (s *Service) GetCurrentByUser(ctx context.Context, userID string) (*TripSchedule, error) {
	trips, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.startOfToday()
	for _, trip := range trips {
		start := dateOnly(trip.StartDate)
		end := dateOnly(trip.EndDate)
		if !start.After(today) && !end.Before(today) {
			current := trip
			return &current, nil
		}
	}
	return nil, nil
}

// GetPastByUserCursor pages past trips ordered (end_date DESC, id DESC).
// The cursor is the last-seen id; the next page matches id < cursor. One extra
// row is fetched to decide HasNext without a count query.
func (s *Service) GetPastByUserCursor(ctx context.Context, userID string, cursor *uint, limit int) (Page, error) {
	if limit <= 0 {
		return Page{}, fmt.Errorf("%w: limit must be positive", ErrValidation)
	}

	query := s.memberScope(userID).WithContext(ctx).
		Where("end_date < ?", s.startOfToday())
	if cursor != nil {
		query = query.Where("trip_schedules.id < ?", *cursor)
	}

	var trips []TripSchedule
	if err := query.
		Order("end_date DESC").
		Order("trip_schedules.id DESC").
		Limit(limit + 1).
		Find(&trips).Error; err != nil {
		return Page{}, newServiceError(opListPage, "query_failed", err)
	}
	return buildPage(trips, limit), nil
}

// GetUpcomingByUserCursor pages upcoming trips ordered (start_date ASC,
// id ASC); the next page matches id > cursor.
func (s *Service) GetUpcomingByUserCursor(ctx context.Context, userID string, cursor *uint, limit int) (Page, error) {
	if limit <= 0 {
		return Page{}, fmt.Errorf("%w: limit must be positive", ErrValidation)
	}

	query := s.memberScope(userID).WithContext(ctx).
		Where("start_date > ?", s.endOfToday())
	if cursor != nil {
		query = query.Where("trip_schedules.id > ?", *cursor)
	}

	var trips []TripSchedule
	if err := query.
		Order("start_date ASC").
		Order("trip_schedules.id ASC").
		Limit(limit + 1).
		Find(&trips).Error; err != nil {
		return Page{}, newServiceError(opListPage, "query_failed", err)
	}
	return buildPage(trips, limit), nil
}

func buildPage(trips []TripSchedule, limit int) Page {
	hasNext := len(trips) > limit
	if hasNext {
		trips = trips[:limit]
	}
	page := Page{Trips: trips, HasNext: hasNext}
	if hasNext && len(trips) > 0 {
		last := trips[len(trips)-1].ID
		page.NextCursor = &last
	}
	return page
}

// GetWithMembers loads one schedule together with its member emails.
func (s *Service) GetWithMembers(ctx context.Context, tripID uint) (*TripWithMembers, error) {
	var trip TripSchedule
	err := s.db.WithContext(ctx).Where("id = ?", tripID).First(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, newServiceError(opGetWithMembers, "query_failed", err)
	}

	var emails []string
	if err := s.db.WithContext(ctx).
		Model(&users.User{}).
		Joins("JOIN trip_schedule_members ON trip_schedule_members.user_id = users.id").
		Where("trip_schedule_members.trip_id = ?", tripID).
		Pluck("users.email", &emails).Error; err != nil {
		return nil, newServiceError(opGetWithMembers, "member_query_failed", err)
	}

	return &TripWithMembers{TripSchedule: trip, Members: emails}, nil
}

// DeleteOne removes a schedule and its membership rows. A missing id is an
// error, not a silent no-op.
func (s *Service) DeleteOne(ctx context.Context, tripID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", tripID).Delete(&Membership{}).Error; err != nil {
			return newServiceError(opDelete, "membership_delete_failed", err)
		}
		result := tx.Where("id = ?", tripID).Delete(&TripSchedule{})
		if result.Error != nil {
			return newServiceError(opDelete, "schedule_delete_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteMany removes a batch of schedules with their membership rows. The
// batch fails with ErrNotFound when none of the ids resolve.
func (s *Service) DeleteMany(ctx context.Context, tripIDs []uint) error {
	if len(tripIDs) == 0 {
		return fmt.Errorf("%w: no trip ids supplied", ErrValidation)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id IN ?", tripIDs).Delete(&Membership{}).Error; err != nil {
			return newServiceError(opDelete, "membership_delete_failed", err)
		}
		result := tx.Where("id IN ?", tripIDs).Delete(&TripSchedule{})
		if result.Error != nil {
			return newServiceError(opDelete, "schedule_delete_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func validateScheduleInput(name, destination, createdBy string, start, end time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrValidation)
	}
	if strings.TrimSpace(createdBy) == "" {
		return fmt.Errorf("%w: creator is required", ErrValidation)
	}
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	return nil
}

// Partitioning compares calendar days, never instants in mixed locations.
// Each value contributes the calendar date of its own location (the clock's
// location decides which day "today" is), and every boundary is materialized
// as a UTC midnight because that is the frame stored trip dates live in.
func (s *Service) startOfToday() time.Time {
	return dateOnly(s.clock())
}

func (s *Service) endOfToday() time.Time {
	return s.startOfToday().Add(24*time.Hour - time.Nanosecond)
}

func dateOnly(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
