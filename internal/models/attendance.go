package models

import "time"

// RecentAttendance is an immutable historical visit fact used for
// auto-selection. Rows come straight from the attendance store.
type RecentAttendance struct {
	PersonID      string     `db:"person_id" json:"person_id"`
	StartDateTime time.Time  `db:"start_date_time" json:"start_date_time"`
	EndDateTime   *time.Time `db:"end_date_time" json:"end_date_time,omitempty"`
	AreaID        string     `db:"area_id" json:"area_id"`
	GroupID       string     `db:"group_id" json:"group_id"`
	LocationID    string     `db:"location_id" json:"location_id"`
	ScheduleID    string     `db:"schedule_id" json:"schedule_id"`
	DidAttend     bool       `db:"did_attend" json:"did_attend"`
}

// CurrentAttendance is an open (not yet checked out) attendance row surfaced
// for the check-out flow.
type CurrentAttendance struct {
	ID            string    `db:"id" json:"id"`
	PersonID      string    `db:"person_id" json:"person_id"`
	PersonName    string    `db:"person_name" json:"person_name"`
	GroupID       string    `db:"group_id" json:"group_id"`
	GroupName     string    `db:"group_name" json:"group_name"`
	LocationID    string    `db:"location_id" json:"location_id"`
	LocationName  string    `db:"location_name" json:"location_name"`
	ScheduleID    string    `db:"schedule_id" json:"schedule_id"`
	ScheduleName  string    `db:"schedule_name" json:"schedule_name"`
	CampusID      string    `db:"campus_id" json:"campus_id,omitempty"`
	StartDateTime time.Time `db:"start_date_time" json:"start_date_time"`
}

// LocationOccupancy is one open attendance observation used when counting
// distinct people per room during graph construction.
type LocationOccupancy struct {
	LocationID string `db:"location_id" json:"location_id"`
	PersonID   string `db:"person_id" json:"person_id"`
	ScheduleID string `db:"schedule_id" json:"schedule_id"`
	CampusID   string `db:"campus_id" json:"campus_id"`
}
