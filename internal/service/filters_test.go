package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracepoint-labs/checkin-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func genderPtr(g models.Gender) *models.Gender { return &g }

type dataViewStub struct {
	members map[string]map[string]struct{}
	err     error
}

func (s *dataViewStub) MemberIDs(ctx context.Context, dataViewID string) (map[string]struct{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.members[dataViewID], nil
}

func filterGraph() *models.OpportunityGraph {
	g := models.NewOpportunityGraph()
	g.Areas = []models.Area{{ID: "area-kids", Name: "Kids"}}
	g.AddGroup(&models.Group{
		ID: "grp-nursery", AreaID: "area-kids",
		Rules:       models.GroupRules{MinAgeYears: floatPtr(0), MaxAgeYears: floatPtr(3)},
		LocationIDs: []string{"loc-101"},
	})
	g.AddGroup(&models.Group{
		ID: "grp-elementary", AreaID: "area-kids",
		Rules:       models.GroupRules{MinGradeOffset: intPtr(6), MaxGradeOffset: intPtr(12)},
		LocationIDs: []string{"loc-102"},
	})
	g.AddLocation(&models.Location{ID: "loc-101", ScheduleIDs: []string{"sch-9am"}})
	g.AddLocation(&models.Location{ID: "loc-102", ScheduleIDs: []string{"sch-9am", "sch-11am"}})
	g.AddSchedule(&models.Schedule{ID: "sch-9am", StartTimeOfDay: 540})
	g.AddSchedule(&models.Schedule{ID: "sch-11am", StartTimeOfDay: 660})
	return g
}

func newFilterContext(person models.Person, graph *models.OpportunityGraph) *FilterContext {
	return &FilterContext{
		Config:   &models.CheckInConfiguration{},
		Attendee: &models.Attendee{Person: person, Graph: graph},
		Now:      time.Date(2026, time.March, 8, 9, 0, 0, 0, time.UTC),
	}
}

func TestAgeFilter(t *testing.T) {
	rules := models.GroupRules{MinAgeYears: floatPtr(1), MaxAgeYears: floatPtr(3)}
	now := time.Date(2026, time.March, 8, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		birth *time.Time
		want  bool
	}{
		{"within range", timePtr(now.AddDate(-2, 0, 0)), true},
		{"below minimum", timePtr(now.AddDate(0, -6, 0)), false},
		{"at maximum is excluded", timePtr(now.AddDate(-3, 0, 0)), false},
		{"just under maximum", timePtr(now.AddDate(-3, 0, 1)), true},
		{"missing birth date", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := newFilterContext(models.Person{ID: "p1", BirthDate: tc.birth}, nil)
			filter, err := newAgeFilter(context.Background(), fc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, filter.IsGroupValid(&models.Group{Rules: rules}))
		})
	}

	t.Run("no rule always passes", func(t *testing.T) {
		fc := newFilterContext(models.Person{ID: "p1"}, nil)
		filter, err := newAgeFilter(context.Background(), fc)
		require.NoError(t, err)
		assert.True(t, filter.IsGroupValid(&models.Group{}))
	})
}

func TestGradeFilterInclusiveRange(t *testing.T) {
	rules := models.GroupRules{MinGradeOffset: intPtr(6), MaxGradeOffset: intPtr(8)}

	cases := []struct {
		name   string
		offset *int
		want   bool
	}{
		{"at minimum", intPtr(6), true},
		{"at maximum", intPtr(8), true},
		{"below", intPtr(5), false},
		{"above", intPtr(9), false},
		{"missing grade", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := newFilterContext(models.Person{ID: "p1", GradeOffset: tc.offset}, nil)
			filter, err := newGradeFilter(context.Background(), fc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, filter.IsGroupValid(&models.Group{Rules: rules}))
		})
	}
}

func TestGenderFilter(t *testing.T) {
	fc := newFilterContext(models.Person{ID: "p1", Gender: models.GenderFemale}, nil)
	filter, err := newGenderFilter(context.Background(), fc)
	require.NoError(t, err)

	assert.True(t, filter.IsGroupValid(&models.Group{}))
	assert.True(t, filter.IsGroupValid(&models.Group{Rules: models.GroupRules{Gender: genderPtr(models.GenderFemale)}}))
	assert.False(t, filter.IsGroupValid(&models.Group{Rules: models.GroupRules{Gender: genderPtr(models.GenderMale)}}))
	assert.True(t, filter.IsGroupValid(&models.Group{Rules: models.GroupRules{Gender: genderPtr(models.GenderUnknown)}}))
}

func TestMembershipFilter(t *testing.T) {
	person := models.Person{ID: "p1", MembershipGroupIDs: []string{"grp-members"}}
	fc := newFilterContext(person, nil)
	filter, err := newMembershipFilter(context.Background(), fc)
	require.NoError(t, err)

	assert.True(t, filter.IsGroupValid(&models.Group{ID: "grp-open"}))
	assert.True(t, filter.IsGroupValid(&models.Group{ID: "grp-members", Rules: models.GroupRules{RequiresMembership: true}}))
	assert.False(t, filter.IsGroupValid(&models.Group{ID: "grp-other", Rules: models.GroupRules{RequiresMembership: true}}))
}

func TestDataViewFilter(t *testing.T) {
	graph := models.NewOpportunityGraph()
	graph.AddGroup(&models.Group{ID: "grp-view", Rules: models.GroupRules{DataViewID: "dv-1"}})

	fc := newFilterContext(models.Person{ID: "p1"}, graph)
	fc.DataViews = &dataViewStub{members: map[string]map[string]struct{}{
		"dv-1": {"p1": {}},
	}}

	filter, err := newDataViewFilter(context.Background(), fc)
	require.NoError(t, err)
	assert.True(t, filter.IsGroupValid(graph.Groups["grp-view"]))
	assert.True(t, filter.IsGroupValid(&models.Group{ID: "grp-plain"}))

	fc.Attendee.Person.ID = "p2"
	filter, err = newDataViewFilter(context.Background(), fc)
	require.NoError(t, err)
	assert.False(t, filter.IsGroupValid(graph.Groups["grp-view"]))
}

func TestThresholdFilter(t *testing.T) {
	fc := newFilterContext(models.Person{ID: "p1"}, nil)
	filter, err := newThresholdFilter(context.Background(), fc)
	require.NoError(t, err)

	assert.True(t, filter.IsLocationValid(&models.Location{Count: 500}))
	assert.True(t, filter.IsLocationValid(&models.Location{Count: 9, SoftThreshold: intPtr(10)}))
	assert.False(t, filter.IsLocationValid(&models.Location{Count: 10, SoftThreshold: intPtr(10)}))
	// Already counted at this room, so re-printing a tag stays possible.
	assert.True(t, filter.IsLocationValid(&models.Location{Count: 10, SoftThreshold: intPtr(10), PersonIDs: []string{"p1"}}))
}

func TestDuplicateCheckInFilter(t *testing.T) {
	fc := newFilterContext(models.Person{ID: "p1"}, nil)
	fc.OpenScheduleIDs = map[string]bool{"sch-9am": true}
	filter, err := newDuplicateCheckInFilter(context.Background(), fc)
	require.NoError(t, err)

	assert.False(t, filter.IsScheduleValid(&models.Schedule{ID: "sch-9am"}))
	assert.True(t, filter.IsScheduleValid(&models.Schedule{ID: "sch-11am"}))
}

func TestApplyFiltersPrunesGraph(t *testing.T) {
	// A two-year-old: Nursery survives, Elementary (grade-ruled) goes, and
	// the pruning pass removes Elementary's now-unreferenced room.
	birth := time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)
	graph := filterGraph()
	fc := newFilterContext(models.Person{ID: "p1", BirthDate: &birth}, graph)

	require.NoError(t, ApplyFilters(context.Background(), fc, nil))

	assert.Contains(t, graph.Groups, "grp-nursery")
	assert.NotContains(t, graph.Groups, "grp-elementary")
	assert.NotContains(t, graph.Locations, "loc-102")
	assert.NotContains(t, graph.Schedules, "sch-11am")
	assert.Contains(t, graph.Schedules, "sch-9am")
}

func TestApplyFiltersLeavesEmptyGraphForIneligiblePerson(t *testing.T) {
	graph := filterGraph()
	fc := newFilterContext(models.Person{ID: "p1"}, graph)

	require.NoError(t, ApplyFilters(context.Background(), fc, nil))

	assert.Empty(t, graph.Groups)
	assert.False(t, fc.Attendee.HasOptions())
}

func timePtr(t time.Time) *time.Time { return &t }
