package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gracepoint-labs/checkin-api/internal/models"
)

func newPersonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFamilyIDsByPhonePatterns(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()

	repo := NewPersonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT p.family_id FROM people p")).
		WithArgs("%5551234", 100).
		WillReturnRows(sqlmock.NewRows([]string{"family_id"}).AddRow("fam-1"))

	ids, err := repo.FamilyIDsByPhone(context.Background(), "5551234", models.PhoneSearchEndsWith, 100)
	require.NoError(t, err)
	require.Equal(t, []string{"fam-1"}, ids)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT p.family_id FROM people p")).
		WithArgs("%5551234%", 100).
		WillReturnRows(sqlmock.NewRows([]string{"family_id"}).AddRow("fam-1"))

	_, err = repo.FamilyIDsByPhone(context.Background(), "5551234", models.PhoneSearchContains, 100)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyIDsByNameFuzzy(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()

	repo := NewPersonRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT f.id FROM families f")).
		WithArgs("%smith%", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("fam-1").AddRow("fam-2"))

	ids, err := repo.FamilyIDsByName(context.Background(), "smith", 50)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMembersOfFamiliesAppliesRoleRestriction(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()

	repo := NewPersonRepository(db)
	rows := sqlmock.NewRows([]string{"id", "nick_name", "last_name", "gender", "birth_date", "grade_offset", "inactive", "family_id", "family_role_order"}).
		AddRow("p1", "Sally", "Smith", "F", nil, nil, false, "fam-1", 20)
	mock.ExpectQuery(regexp.QuoteMeta("AND p.family_role_id = ANY")).
		WillReturnRows(rows)

	members, err := repo.MembersOfFamilies(context.Background(), []string{"fam-1"}, []string{"role-child"})
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "Sally", members[0].NickName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipGroupIDsGroupsByPerson(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()

	repo := NewPersonRepository(db)
	rows := sqlmock.NewRows([]string{"person_id", "group_id"}).
		AddRow("p1", "grp-members").
		AddRow("p1", "grp-choir")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT person_id, group_id FROM group_members")).
		WillReturnRows(rows)

	result, err := repo.MembershipGroupIDs(context.Background(), []string{"p1"})
	require.NoError(t, err)
	require.Equal(t, []string{"grp-members", "grp-choir"}, result["p1"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelatedPeopleSkipsQueryWithoutRoles(t *testing.T) {
	db, mock, cleanup := newPersonRepoMock(t)
	defer cleanup()

	repo := NewPersonRepository(db)
	people, err := repo.RelatedPeople(context.Background(), "fam-1", nil)
	require.NoError(t, err)
	require.Empty(t, people)
	require.NoError(t, mock.ExpectationsWereMet())
}
