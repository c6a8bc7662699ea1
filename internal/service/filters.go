package service

import (
	"context"
	"time"

	"github.com/gracepoint-labs/checkin-api/internal/models"
)

// OptionsFilter is one eligibility predicate in the chain. A filter
// implements only the node types relevant to its rule; the rest default to
// always-valid via baseFilter. Filters run against an attendee's private
// graph clone, so removing failing nodes is safe.
type OptionsFilter interface {
	IsGroupValid(group *models.Group) bool
	IsLocationValid(location *models.Location) bool
	IsScheduleValid(schedule *models.Schedule) bool
}

type baseFilter struct{}

func (baseFilter) IsGroupValid(*models.Group) bool       { return true }
func (baseFilter) IsLocationValid(*models.Location) bool { return true }
func (baseFilter) IsScheduleValid(*models.Schedule) bool { return true }

type dataViewRepository interface {
	MemberIDs(ctx context.Context, dataViewID string) (map[string]struct{}, error)
}

// FilterContext carries everything a filter may need: the configuration, the
// attendee, the effective clock and pre-fetched per-person state.
type FilterContext struct {
	Config          *models.CheckInConfiguration
	Attendee        *models.Attendee
	Now             time.Time
	OpenScheduleIDs map[string]bool
	DataViews       dataViewRepository
}

type filterFactory struct {
	name string
	make func(ctx context.Context, fc *FilterContext) (OptionsFilter, error)
}

// The filter set is closed, so the chain is a static ordered list rather
// than runtime type discovery. Group filters run first, then location, then
// schedule filters; ordering is an optimisation only, correctness comes from
// the pruning pass afterwards.
var filterFactories = []filterFactory{
	{name: "age", make: newAgeFilter},
	{name: "grade", make: newGradeFilter},
	{name: "gender", make: newGenderFilter},
	{name: "membership", make: newMembershipFilter},
	{name: "data_view", make: newDataViewFilter},
	{name: "threshold", make: newThresholdFilter},
	{name: "duplicate_check_in", make: newDuplicateCheckInFilter},
}

// ageFilter keeps groups whose configured age window contains the person's
// computed age: [min, max).
type ageFilter struct {
	baseFilter
	age *float64
}

func newAgeFilter(_ context.Context, fc *FilterContext) (OptionsFilter, error) {
	return &ageFilter{age: fc.Attendee.Person.AgeYears(fc.Now)}, nil
}

func (f *ageFilter) IsGroupValid(group *models.Group) bool {
	if group.Rules.MinAgeYears == nil && group.Rules.MaxAgeYears == nil {
		return true
	}
	if f.age == nil {
		return false
	}
	if group.Rules.MinAgeYears != nil && *f.age < *group.Rules.MinAgeYears {
		return false
	}
	if group.Rules.MaxAgeYears != nil && *f.age >= *group.Rules.MaxAgeYears {
		return false
	}
	return true
}

// gradeFilter keeps groups whose grade-offset range contains the person's
// grade offset: [min, max], both inclusive. The range arrives pre-inverted
// (max grade gives the min offset).
type gradeFilter struct {
	baseFilter
	gradeOffset *int
}

func newGradeFilter(_ context.Context, fc *FilterContext) (OptionsFilter, error) {
	return &gradeFilter{gradeOffset: fc.Attendee.Person.GradeOffset}, nil
}

func (f *gradeFilter) IsGroupValid(group *models.Group) bool {
	if group.Rules.MinGradeOffset == nil && group.Rules.MaxGradeOffset == nil {
		return true
	}
	if f.gradeOffset == nil {
		return false
	}
	if group.Rules.MinGradeOffset != nil && *f.gradeOffset < *group.Rules.MinGradeOffset {
		return false
	}
	if group.Rules.MaxGradeOffset != nil && *f.gradeOffset > *group.Rules.MaxGradeOffset {
		return false
	}
	return true
}

// genderFilter keeps groups with no gender requirement or a matching one.
type genderFilter struct {
	baseFilter
	gender models.Gender
}

func newGenderFilter(_ context.Context, fc *FilterContext) (OptionsFilter, error) {
	return &genderFilter{gender: fc.Attendee.Person.Gender}, nil
}

func (f *genderFilter) IsGroupValid(group *models.Group) bool {
	if group.Rules.Gender == nil || *group.Rules.Gender == models.GenderUnknown {
		return true
	}
	return *group.Rules.Gender == f.gender
}

// membershipFilter keeps membership-required groups only when the person is
// already an active member.
type membershipFilter struct {
	baseFilter
	person *models.Person
}

func newMembershipFilter(_ context.Context, fc *FilterContext) (OptionsFilter, error) {
	return &membershipFilter{person: &fc.Attendee.Person}, nil
}

func (f *membershipFilter) IsGroupValid(group *models.Group) bool {
	if !group.Rules.RequiresMembership {
		return true
	}
	return f.person.IsMemberOf(group.ID)
}

// dataViewFilter keeps groups with a qualifying data view only when the
// person's id is in the view's persisted member set. Member sets are
// pre-fetched at construction so the predicate itself never touches the
// database.
type dataViewFilter struct {
	baseFilter
	personID string
	members  map[string]map[string]struct{}
}

func newDataViewFilter(ctx context.Context, fc *FilterContext) (OptionsFilter, error) {
	filter := &dataViewFilter{
		personID: fc.Attendee.Person.ID,
		members:  make(map[string]map[string]struct{}),
	}
	if fc.DataViews == nil || fc.Attendee.Graph == nil {
		return filter, nil
	}
	for _, group := range fc.Attendee.Graph.Groups {
		id := group.Rules.DataViewID
		if id == "" {
			continue
		}
		if _, ok := filter.members[id]; ok {
			continue
		}
		set, err := fc.DataViews.MemberIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		filter.members[id] = set
	}
	return filter, nil
}

func (f *dataViewFilter) IsGroupValid(group *models.Group) bool {
	if group.Rules.DataViewID == "" {
		return true
	}
	set, ok := f.members[group.Rules.DataViewID]
	if !ok {
		return false
	}
	_, member := set[f.personID]
	return member
}

// thresholdFilter flags locations at or over their soft capacity, unless the
// occupancy count already includes this person. Soft capacity is advisory;
// staff can override outside the engine, but the room is removed here so the
// kiosk warns instead of overbooking silently.
type thresholdFilter struct {
	baseFilter
	personID string
}

func newThresholdFilter(_ context.Context, fc *FilterContext) (OptionsFilter, error) {
	return &thresholdFilter{personID: fc.Attendee.Person.ID}, nil
}

func (f *thresholdFilter) IsLocationValid(location *models.Location) bool {
	if location.SoftThreshold == nil {
		return true
	}
	if location.HasPerson(f.personID) {
		return true
	}
	return location.Count < *location.SoftThreshold
}

// duplicateCheckInFilter removes schedules the person already has an open
// attendance for today.
type duplicateCheckInFilter struct {
	baseFilter
	openScheduleIDs map[string]bool
}

func newDuplicateCheckInFilter(_ context.Context, fc *FilterContext) (OptionsFilter, error) {
	return &duplicateCheckInFilter{openScheduleIDs: fc.OpenScheduleIDs}, nil
}

func (f *duplicateCheckInFilter) IsScheduleValid(schedule *models.Schedule) bool {
	return !f.openScheduleIDs[schedule.ID]
}

// ApplyFilters runs the chain over the attendee's private graph: all group
// filters in one pass, then location filters, then schedule filters, then
// the pruning pass that restores referential closure.
func ApplyFilters(ctx context.Context, fc *FilterContext, metrics *MetricsService) error {
	graph := fc.Attendee.Graph
	if graph == nil {
		return nil
	}

	filters := make([]OptionsFilter, 0, len(filterFactories))
	names := make([]string, 0, len(filterFactories))
	for _, factory := range filterFactories {
		filter, err := factory.make(ctx, fc)
		if err != nil {
			return err
		}
		filters = append(filters, filter)
		names = append(names, factory.name)
	}

	for _, group := range graph.GroupsInOrder() {
		for i, filter := range filters {
			if !filter.IsGroupValid(group) {
				graph.RemoveGroup(group.ID)
				metrics.CountFilteredOption(names[i], "group")
				break
			}
		}
	}

	for _, location := range graph.LocationsInOrder() {
		for i, filter := range filters {
			if !filter.IsLocationValid(location) {
				graph.RemoveLocation(location.ID)
				metrics.CountFilteredOption(names[i], "location")
				break
			}
		}
	}

	for _, schedule := range graph.SchedulesInOrder() {
		for i, filter := range filters {
			if !filter.IsScheduleValid(schedule) {
				graph.RemoveSchedule(schedule.ID)
				metrics.CountFilteredOption(names[i], "schedule")
				break
			}
		}
	}

	graph.RemoveEmptyOptions()
	return nil
}
