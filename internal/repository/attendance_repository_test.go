package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRecentAttendancesFiltersAndOrders(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	since := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	visited := since.Add(9 * time.Hour)

	rows := sqlmock.NewRows([]string{"person_id", "start_date_time", "end_date_time", "area_id", "group_id", "location_id", "schedule_id", "did_attend"}).
		AddRow("p1", visited, nil, "area-kids", "grp-nursery", "loc-101", "sch-9am", true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.person_id, a.start_date_time")).
		WillReturnRows(rows)

	records, err := repo.RecentAttendances(context.Background(), []string{"p1"}, since)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "grp-nursery", records[0].GroupID)
	require.True(t, records[0].DidAttend)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentAttendancesEmptyInput(t *testing.T) {
	db, _, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	records, err := repo.RecentAttendances(context.Background(), nil, time.Now())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestOpenScheduleIDsGroupsByPerson(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"person_id", "schedule_id"}).
		AddRow("p1", "sch-9am").
		AddRow("p1", "sch-11am").
		AddRow("p2", "sch-9am")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.person_id, a.schedule_id FROM attendances")).
		WillReturnRows(rows)

	result, err := repo.OpenScheduleIDs(context.Background(), []string{"p1", "p2"}, time.Now())
	require.NoError(t, err)
	require.Equal(t, []string{"sch-9am", "sch-11am"}, result["p1"])
	require.Equal(t, []string{"sch-9am"}, result["p2"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenOccupancyQueriesCalendarDay(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	day := time.Date(2026, time.March, 8, 9, 30, 0, 0, time.UTC)
	midnight := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"location_id", "person_id", "schedule_id", "campus_id"}).
		AddRow("loc-101", "p1", "sch-9am", "campus-1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.location_id, a.person_id, a.schedule_id")).
		WithArgs(midnight, midnight.AddDate(0, 0, 1)).
		WillReturnRows(rows)

	result, err := repo.OpenOccupancy(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "loc-101", result[0].LocationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentAttendancesJoinsNames(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	started := time.Date(2026, time.March, 8, 9, 5, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "person_id", "person_name", "group_id", "group_name", "location_id", "location_name", "schedule_id", "schedule_name", "campus_id", "start_date_time"}).
		AddRow("att-1", "p1", "Sally Smith", "grp-nursery", "Nursery", "loc-101", "Room 101", "sch-9am", "9 AM", "campus-1", started)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.id, a.person_id")).
		WillReturnRows(rows)

	result, err := repo.CurrentAttendances(context.Background(), []string{"p1"}, started)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "Sally Smith", result[0].PersonName)
	require.Equal(t, "Room 101", result[0].LocationName)
	require.NoError(t, mock.ExpectationsWereMet())
}
