package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gracepoint-labs/checkin-api/internal/models"
)

// AttendanceRepository reads attendance history. The engine never writes
// through it; check-in persistence lives behind the API layer.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// RecentAttendances returns attended visits on or after the lookback date for
// the given people, most recent first.
func (r *AttendanceRepository) RecentAttendances(ctx context.Context, personIDs []string, since time.Time) ([]models.RecentAttendance, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	query := `SELECT a.person_id, a.start_date_time, a.end_date_time,
        a.area_id, a.group_id, a.location_id, a.schedule_id, a.did_attend
        FROM attendances a
        WHERE a.person_id = ANY($1) AND a.did_attend = true AND a.start_date_time >= $2
        ORDER BY a.start_date_time DESC`
	var records []models.RecentAttendance
	if err := r.db.SelectContext(ctx, &records, query, idArray(personIDs), since); err != nil {
		return nil, fmt.Errorf("load recent attendances: %w", err)
	}
	return records, nil
}

// OpenOccupancy returns today's open attendance observations (no end time)
// for occupancy counting during graph construction.
func (r *AttendanceRepository) OpenOccupancy(ctx context.Context, day time.Time) ([]models.LocationOccupancy, error) {
	query := `SELECT a.location_id, a.person_id, a.schedule_id, COALESCE(a.campus_id, '') AS campus_id
        FROM attendances a
        WHERE a.end_date_time IS NULL AND a.start_date_time >= $1 AND a.start_date_time < $2`
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var rows []models.LocationOccupancy
	if err := r.db.SelectContext(ctx, &rows, query, midnight, midnight.AddDate(0, 0, 1)); err != nil {
		return nil, fmt.Errorf("load open occupancy: %w", err)
	}
	return rows, nil
}

// OpenScheduleIDs returns, per person, the schedules each person already has
// an open attendance against today. Consumed by the duplicate check-in
// filter.
func (r *AttendanceRepository) OpenScheduleIDs(ctx context.Context, personIDs []string, day time.Time) (map[string][]string, error) {
	if len(personIDs) == 0 {
		return map[string][]string{}, nil
	}
	type row struct {
		PersonID   string `db:"person_id"`
		ScheduleID string `db:"schedule_id"`
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query := `SELECT a.person_id, a.schedule_id FROM attendances a
        WHERE a.person_id = ANY($1) AND a.end_date_time IS NULL
        AND a.start_date_time >= $2 AND a.start_date_time < $3`
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, idArray(personIDs), midnight, midnight.AddDate(0, 0, 1)); err != nil {
		return nil, fmt.Errorf("load open schedules: %w", err)
	}
	result := make(map[string][]string)
	for _, item := range rows {
		result[item.PersonID] = append(result[item.PersonID], item.ScheduleID)
	}
	return result, nil
}

// CurrentAttendances returns today's open attendance rows for the given
// people, joined with display names for the check-out screen.
func (r *AttendanceRepository) CurrentAttendances(ctx context.Context, personIDs []string, day time.Time) ([]models.CurrentAttendance, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query := `SELECT a.id, a.person_id, p.nick_name || ' ' || p.last_name AS person_name,
        a.group_id, COALESCE(g.name, '') AS group_name,
        a.location_id, COALESCE(l.name, '') AS location_name,
        a.schedule_id, COALESCE(s.name, '') AS schedule_name,
        COALESCE(a.campus_id, '') AS campus_id, a.start_date_time
        FROM attendances a
        JOIN people p ON p.id = a.person_id
        LEFT JOIN checkin_groups g ON g.id = a.group_id
        LEFT JOIN checkin_locations l ON l.id = a.location_id
        LEFT JOIN checkin_schedules s ON s.id = a.schedule_id
        WHERE a.person_id = ANY($1) AND a.end_date_time IS NULL
        AND a.start_date_time >= $2 AND a.start_date_time < $3
        ORDER BY a.start_date_time`
	var rows []models.CurrentAttendance
	if err := r.db.SelectContext(ctx, &rows, query, idArray(personIDs), midnight, midnight.AddDate(0, 0, 1)); err != nil {
		return nil, fmt.Errorf("load current attendances: %w", err)
	}
	return rows, nil
}
