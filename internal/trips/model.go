package trips

import "time"

// TripSchedule is one planned trip. Integer ids are deliberate: the keyset
// pagination over past/upcoming trips uses id as the monotonic tiebreaker.
//
// start_date <= end_date is not enforced here; trip events enforce it, trip
// schedules never have. Keeping the asymmetry keeps stored data compatible.
type TripSchedule struct {
	ID              uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string    `gorm:"column:name;size:190;not null"`
	Destination     string    `gorm:"column:destination;size:190;not null"`
	DestinationType string    `gorm:"column:destination_type;size:64;not null;default:''"`
	StartDate       time.Time `gorm:"column:start_date;not null;index"`
	EndDate         time.Time `gorm:"column:end_date;not null;index"`
	CreatedBy       string    `gorm:"column:created_by;size:190;not null"`
}

// TableName exposes the table backing trip schedules.
func (TripSchedule) TableName() string {
	return "trip_schedules"
}

// Membership links a user to a trip schedule. One row per (user, trip) pair.
type Membership struct {
	UserID string `gorm:"column:user_id;primaryKey;size:190;not null"`
	TripID uint   `gorm:"column:trip_id;primaryKey;not null;index"`
}

// TableName exposes the join table backing trip membership.
func (Membership) TableName() string {
	return "trip_schedule_members"
}

// TripWithMembers bundles a schedule with its member email addresses.
type TripWithMembers struct {
	TripSchedule
	Members []string
}

// Page is one keyset-paginated slice of trips. NextCursor is the id of the
// last returned trip, nil once the final page has been served.
type Page struct {
	Trips      []TripSchedule
	HasNext    bool
	NextCursor *uint
}
