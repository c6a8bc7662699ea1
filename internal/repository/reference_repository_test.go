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

func newReferenceRepoMock(t *testing.T) (*ReferenceRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := NewReferenceRepository(sqlx.NewDb(db, "sqlmock"), nil, time.Minute, nil)
	return repo, mock, func() { db.Close() }
}

func TestConfigurationReturnsNilWithoutRow(t *testing.T) {
	repo, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT search_mode, min_phone_length")).
		WillReturnRows(sqlmock.NewRows([]string{"search_mode"}))

	cfg, err := repo.Configuration(context.Background())
	require.NoError(t, err)
	require.Nil(t, cfg)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurationLoadsRowAndRoles(t *testing.T) {
	repo, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()

	row := sqlmock.NewRows([]string{"search_mode", "min_phone_length", "max_phone_length", "phone_search_type",
		"max_results", "prevent_inactive_people", "auto_select_mode", "auto_select_days_back"}).
		AddRow("phone", 4, 10, "ends_with", 100, true, "people_and_slot", 8)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT search_mode, min_phone_length")).
		WillReturnRows(row)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role_id FROM checkin_can_check_in_roles")).
		WillReturnRows(sqlmock.NewRows([]string{"role_id"}).AddRow("role-child").AddRow("role-guardian"))

	cfg, err := repo.Configuration(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, 4, cfg.MinPhoneLength)
	require.True(t, cfg.PreventInactivePeople)
	require.Equal(t, []string{"role-child", "role-guardian"}, cfg.CanCheckInRoleIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupTemplatesMapsRulesAndLocations(t *testing.T) {
	repo, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()

	groups := sqlmock.NewRows([]string{"id", "name", "area_id", "ability_level_id", "display_order", "active",
		"min_age_years", "max_age_years", "min_grade_value_offset", "max_grade_value_offset",
		"gender", "requires_membership", "data_view_id"}).
		AddRow("grp-nursery", "Nursery", "area-kids", nil, 10, true, 0.0, 3.0, nil, nil, nil, false, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM checkin_groups g WHERE g.active = true AND g.area_id = ANY")).
		WillReturnRows(groups)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT group_id, location_id FROM checkin_group_locations")).
		WillReturnRows(sqlmock.NewRows([]string{"group_id", "location_id"}).
			AddRow("grp-nursery", "loc-101").
			AddRow("grp-nursery", "loc-102"))

	result, err := repo.GroupTemplates(context.Background(), []string{"area-kids"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "grp-nursery", result[0].ID)
	require.Equal(t, []string{"loc-101", "loc-102"}, result[0].LocationIDs)
	require.NotNil(t, result[0].Rules.MaxAgeYears)
	require.Equal(t, 3.0, *result[0].Rules.MaxAgeYears)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKioskLoadsLocationIDs(t *testing.T) {
	repo, mock, cleanup := newReferenceRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, campus_id, pin_hash, active FROM kiosks")).
		WithArgs("kiosk-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "campus_id", "pin_hash", "active"}).
			AddRow("kiosk-1", "Lobby North", "campus-1", "hash", true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT location_id FROM kiosk_locations")).
		WithArgs("kiosk-1").
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow("loc-101").AddRow("loc-102"))

	kiosk, err := repo.Kiosk(context.Background(), "kiosk-1")
	require.NoError(t, err)
	require.Equal(t, "Lobby North", kiosk.Name)
	require.Equal(t, []string{"loc-101", "loc-102"}, kiosk.LocationIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}
