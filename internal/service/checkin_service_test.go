package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracepoint-labs/checkin-api/internal/models"
	"github.com/gracepoint-labs/checkin-api/pkg/config"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
)

type storedConfigStub struct {
	stored *models.CheckInConfiguration
	err    error
}

func (s *storedConfigStub) Configuration(ctx context.Context) (*models.CheckInConfiguration, error) {
	return s.stored, s.err
}

type familyStub struct {
	members map[string][]models.Person
	related map[string][]models.Person
	people  map[string]models.Person

	relatedRoleIDs []string
}

func (s *familyStub) MembersOfFamilies(ctx context.Context, familyIDs []string, canCheckInRoleIDs []string) ([]models.Person, error) {
	var result []models.Person
	for _, id := range familyIDs {
		result = append(result, s.members[id]...)
	}
	return result, nil
}

func (s *familyStub) RelatedPeople(ctx context.Context, familyID string, canCheckInRoleIDs []string) ([]models.Person, error) {
	s.relatedRoleIDs = canCheckInRoleIDs
	if len(canCheckInRoleIDs) == 0 {
		return nil, nil
	}
	return s.related[familyID], nil
}

func (s *familyStub) FindByID(ctx context.Context, id string) (*models.Person, error) {
	person := s.people[id]
	return &person, nil
}

func (s *familyStub) MembershipGroupIDs(ctx context.Context, personIDs []string) (map[string][]string, error) {
	return map[string][]string{}, nil
}

type attendanceStub struct {
	recents map[string][]models.RecentAttendance
	open    map[string][]string
	current []models.CurrentAttendance
}

func (s *attendanceStub) RecentAttendances(ctx context.Context, personIDs []string, since time.Time) ([]models.RecentAttendance, error) {
	var result []models.RecentAttendance
	for _, id := range personIDs {
		result = append(result, s.recents[id]...)
	}
	return result, nil
}

func (s *attendanceStub) OpenScheduleIDs(ctx context.Context, personIDs []string, day time.Time) (map[string][]string, error) {
	return s.open, nil
}

func (s *attendanceStub) CurrentAttendances(ctx context.Context, personIDs []string, day time.Time) ([]models.CurrentAttendance, error) {
	return s.current, nil
}

func checkInDefaults() config.CheckInConfig {
	return config.CheckInConfig{
		SearchMode:         "name_or_phone",
		MinPhoneLength:     4,
		MaxPhoneLength:     10,
		PhoneSearchType:    "ends_with",
		MaxResults:         100,
		AutoSelectMode:     "people_and_slot",
		AutoSelectDaysBack: 8,
	}
}

func newCheckInService(stored *models.CheckInConfiguration, family *familyStub, attendance *attendanceStub, defaults config.CheckInConfig) *CheckInService {
	ref := buildReference()
	opportunities := buildService(ref, &occupancyStub{})
	attendees := NewAttendeeService(attendance, family, ref, nil)
	selection := NewSelectionService(nil)
	return NewCheckInService(
		defaults,
		&storedConfigStub{stored: stored},
		family,
		NewSearchService(&personSearchStub{}, nil),
		opportunities,
		attendees,
		selection,
		nil,
		nil,
		nil,
		nil,
	)
}

func TestConfigurationMergesStoredOverDefaults(t *testing.T) {
	stored := &models.CheckInConfiguration{
		SearchMode:            models.SearchModePhone,
		MinPhoneLength:        6,
		PreventInactivePeople: true,
		AutoSelectMode:        models.AutoSelectPeopleOnly,
		CanCheckInRoleIDs:     []string{"role-guardian"},
	}
	svc := newCheckInService(stored, &familyStub{}, &attendanceStub{}, checkInDefaults())

	cfg, err := svc.Configuration(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SearchModePhone, cfg.SearchMode)
	assert.Equal(t, 6, cfg.MinPhoneLength)
	assert.Equal(t, 10, cfg.MaxPhoneLength, "unset stored value keeps the default")
	assert.True(t, cfg.PreventInactivePeople)
	assert.Equal(t, models.AutoSelectPeopleOnly, cfg.AutoSelectMode)
	assert.Equal(t, []string{"role-guardian"}, cfg.CanCheckInRoleIDs)
}

func TestConfigurationWithoutStoredRow(t *testing.T) {
	svc := newCheckInService(nil, &familyStub{}, &attendanceStub{}, checkInDefaults())

	cfg, err := svc.Configuration(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SearchModeNameOrPhone, cfg.SearchMode)
	assert.Equal(t, 8, cfg.AutoSelectDaysBack)
}

func TestFamilyCheckInRequiresFamilyID(t *testing.T) {
	svc := newCheckInService(nil, &familyStub{}, &attendanceStub{}, checkInDefaults())

	_, err := svc.FamilyCheckIn(context.Background(), FamilyCheckInRequest{LocationIDs: []string{"loc-101"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFamilyCheckInResolvesAttendees(t *testing.T) {
	birth := buildNow.AddDate(-2, 0, 0)
	family := &familyStub{
		members: map[string][]models.Person{
			"fam-1": {
				{ID: "p-kid", FamilyID: "fam-1", NickName: "Sally", BirthDate: &birth},
			},
		},
	}
	lastSunday := buildNow.AddDate(0, 0, -7)
	attendance := &attendanceStub{
		recents: map[string][]models.RecentAttendance{
			"p-kid": {{
				PersonID:      "p-kid",
				StartDateTime: lastSunday,
				GroupID:       "grp-nursery",
				LocationID:    "loc-101",
				ScheduleID:    "sch-9am",
				DidAttend:     true,
			}},
		},
	}
	svc := newCheckInService(nil, family, attendance, checkInDefaults())

	result, err := svc.FamilyCheckIn(context.Background(), FamilyCheckInRequest{
		FamilyID:    "fam-1",
		LocationIDs: []string{"loc-101", "loc-102"},
	})
	require.NoError(t, err)
	require.Len(t, result.Attendees, 1)

	attendee := result.Attendees[0]
	assert.False(t, attendee.Disabled)
	assert.True(t, attendee.PreSelected, "recent visit inside the lookback window")
	require.NotNil(t, attendee.Selection)
	assert.Equal(t, "grp-nursery", attendee.Selection.GroupID)
	assert.Equal(t, "sch-9am", attendee.Selection.ScheduleID)
	assert.Contains(t, attendee.Graph.Groups, "grp-nursery")
	assert.NotContains(t, attendee.Graph.Groups, "grp-elementary", "grade-ruled group removed for a toddler")
}

func TestFamilyCheckInDisablesAttendeeWithoutOptions(t *testing.T) {
	// No birth date and no grade: both rule-bearing groups reject the person.
	family := &familyStub{
		members: map[string][]models.Person{
			"fam-1": {{ID: "p-adult", FamilyID: "fam-1", NickName: "John"}},
		},
	}
	svc := newCheckInService(nil, family, &attendanceStub{}, checkInDefaults())

	result, err := svc.FamilyCheckIn(context.Background(), FamilyCheckInRequest{
		FamilyID:    "fam-1",
		LocationIDs: []string{"loc-101", "loc-102"},
	})
	require.NoError(t, err)
	require.Len(t, result.Attendees, 1)

	attendee := result.Attendees[0]
	assert.True(t, attendee.Disabled)
	assert.NotEmpty(t, attendee.DisabledReason)
	assert.False(t, attendee.PreSelected)
	assert.Nil(t, attendee.Selection)
}

func TestFamilyCheckInExcludesInactivePeople(t *testing.T) {
	birth := buildNow.AddDate(-2, 0, 0)
	family := &familyStub{
		members: map[string][]models.Person{
			"fam-1": {
				{ID: "p-kid", FamilyID: "fam-1", BirthDate: &birth},
				{ID: "p-gone", FamilyID: "fam-1", BirthDate: &birth, Inactive: true},
			},
		},
	}
	stored := &models.CheckInConfiguration{PreventInactivePeople: true}
	svc := newCheckInService(stored, family, &attendanceStub{}, checkInDefaults())

	result, err := svc.FamilyCheckIn(context.Background(), FamilyCheckInRequest{
		FamilyID:    "fam-1",
		LocationIDs: []string{"loc-101"},
	})
	require.NoError(t, err)
	require.Len(t, result.Attendees, 1)
	assert.Equal(t, "p-kid", result.Attendees[0].Person.ID)
}

func TestFamilyCheckInIncludesRelatedPeople(t *testing.T) {
	birth := buildNow.AddDate(-2, 0, 0)
	family := &familyStub{
		members: map[string][]models.Person{
			"fam-1": {{ID: "p-kid", FamilyID: "fam-1", BirthDate: &birth}},
		},
		related: map[string][]models.Person{
			"fam-1": {{ID: "p-grandkid", FamilyID: "fam-2", BirthDate: &birth}},
		},
	}
	stored := &models.CheckInConfiguration{CanCheckInRoleIDs: []string{"role-guardian"}}
	svc := newCheckInService(stored, family, &attendanceStub{}, checkInDefaults())

	result, err := svc.FamilyCheckIn(context.Background(), FamilyCheckInRequest{
		FamilyID:    "fam-1",
		LocationIDs: []string{"loc-101"},
	})
	require.NoError(t, err)
	require.Len(t, result.Attendees, 2)
	assert.Equal(t, []string{"role-guardian"}, family.relatedRoleIDs)
}

func TestPersonCheckIn(t *testing.T) {
	birth := buildNow.AddDate(-2, 0, 0)
	family := &familyStub{
		people: map[string]models.Person{
			"p-kid": {ID: "p-kid", FamilyID: "fam-1", BirthDate: &birth},
		},
	}
	svc := newCheckInService(nil, family, &attendanceStub{}, checkInDefaults())

	result, err := svc.PersonCheckIn(context.Background(), PersonCheckInRequest{
		PersonID:    "p-kid",
		LocationIDs: []string{"loc-101"},
	})
	require.NoError(t, err)
	require.Len(t, result.Attendees, 1)
	assert.False(t, result.Attendees[0].Disabled)
}

func TestDuplicateScheduleDisablesOnlyOption(t *testing.T) {
	birth := buildNow.AddDate(-2, 0, 0)
	family := &familyStub{
		members: map[string][]models.Person{
			"fam-1": {{ID: "p-kid", FamilyID: "fam-1", BirthDate: &birth}},
		},
	}
	attendance := &attendanceStub{
		open: map[string][]string{"p-kid": {"sch-9am"}},
	}
	svc := newCheckInService(nil, family, attendance, checkInDefaults())

	result, err := svc.FamilyCheckIn(context.Background(), FamilyCheckInRequest{
		FamilyID:    "fam-1",
		LocationIDs: []string{"loc-101"},
	})
	require.NoError(t, err)
	require.Len(t, result.Attendees, 1)

	// The only open schedule is already used, so nothing survives pruning.
	assert.True(t, result.Attendees[0].Disabled)
}
