package models

// Area is a check-in program grouping, e.g. "Kids" or "Students".
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AbilityLevel is a simple named tier referenced by groups.
type AbilityLevel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GroupRules holds the per-group eligibility data evaluated by the filter
// chain. Nil pointers mean "not configured".
//
// Grade offsets are inverted relative to grades: the configured maximum grade
// maps to MinGradeOffset and the configured minimum grade to MaxGradeOffset,
// because the offset shrinks as the grade increases.
type GroupRules struct {
	MinAgeYears        *float64 `json:"min_age_years,omitempty"`
	MaxAgeYears        *float64 `json:"max_age_years,omitempty"`
	MinGradeOffset     *int     `json:"min_grade_offset,omitempty"`
	MaxGradeOffset     *int     `json:"max_grade_offset,omitempty"`
	Gender             *Gender  `json:"gender,omitempty"`
	RequiresMembership bool     `json:"requires_membership,omitempty"`
	DataViewID         string   `json:"data_view_id,omitempty"`
}

// Group is a check-in-able group belonging to exactly one area. Locations are
// referenced by id only; the graph resolves them on demand.
type Group struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	AreaID         string     `json:"area_id"`
	AbilityLevelID string     `json:"ability_level_id,omitempty"`
	Rules          GroupRules `json:"rules"`
	LocationIDs    []string   `json:"location_ids"`
}

// Location is a physical room with live occupancy data.
type Location struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	SoftThreshold *int     `json:"soft_threshold,omitempty"`
	PersonIDs     []string `json:"person_ids,omitempty"`
	ScheduleIDs   []string `json:"schedule_ids"`
}

// HasPerson reports whether the person is already counted at this location.
func (l *Location) HasPerson(personID string) bool {
	for _, id := range l.PersonIDs {
		if id == personID {
			return true
		}
	}
	return false
}

// Schedule is a named time window whose check-in window is currently open.
// CheckInStart/CheckInEnd are resolved against kiosk-local "now" at build
// time; StartTimeOfDay orders schedules within a day.
type Schedule struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StartTimeOfDay int    `json:"start_time_of_day"`
}

// OpportunityGraph is the arena of areas, groups, locations and schedules
// valid for a kiosk at a point in time. Entities are stored once, keyed by
// id, and cross-referenced through id lists; the order slices preserve the
// configured display order. The base graph built per request is shared
// read-only; callers must Clone before mutating.
type OpportunityGraph struct {
	AbilityLevels []AbilityLevel       `json:"ability_levels"`
	Areas         []Area               `json:"areas"`
	GroupOrder    []string             `json:"group_order"`
	Groups        map[string]*Group    `json:"groups"`
	LocationOrder []string             `json:"location_order"`
	Locations     map[string]*Location `json:"locations"`
	ScheduleOrder []string             `json:"schedule_order"`
	Schedules     map[string]*Schedule `json:"schedules"`
}

// NewOpportunityGraph returns an empty graph with initialised arenas.
func NewOpportunityGraph() *OpportunityGraph {
	return &OpportunityGraph{
		Groups:    make(map[string]*Group),
		Locations: make(map[string]*Location),
		Schedules: make(map[string]*Schedule),
	}
}

// AddGroup inserts a group preserving insertion order.
func (g *OpportunityGraph) AddGroup(group *Group) {
	if _, ok := g.Groups[group.ID]; !ok {
		g.GroupOrder = append(g.GroupOrder, group.ID)
	}
	g.Groups[group.ID] = group
}

// AddLocation inserts a location preserving insertion order.
func (g *OpportunityGraph) AddLocation(location *Location) {
	if _, ok := g.Locations[location.ID]; !ok {
		g.LocationOrder = append(g.LocationOrder, location.ID)
	}
	g.Locations[location.ID] = location
}

// AddSchedule inserts a schedule preserving insertion order.
func (g *OpportunityGraph) AddSchedule(schedule *Schedule) {
	if _, ok := g.Schedules[schedule.ID]; !ok {
		g.ScheduleOrder = append(g.ScheduleOrder, schedule.ID)
	}
	g.Schedules[schedule.ID] = schedule
}

// GroupsInOrder returns surviving groups in configured order.
func (g *OpportunityGraph) GroupsInOrder() []*Group {
	groups := make([]*Group, 0, len(g.GroupOrder))
	for _, id := range g.GroupOrder {
		if group, ok := g.Groups[id]; ok {
			groups = append(groups, group)
		}
	}
	return groups
}

// LocationsInOrder returns surviving locations in configured order.
func (g *OpportunityGraph) LocationsInOrder() []*Location {
	locations := make([]*Location, 0, len(g.LocationOrder))
	for _, id := range g.LocationOrder {
		if location, ok := g.Locations[id]; ok {
			locations = append(locations, location)
		}
	}
	return locations
}

// SchedulesInOrder returns surviving schedules in configured order.
func (g *OpportunityGraph) SchedulesInOrder() []*Schedule {
	schedules := make([]*Schedule, 0, len(g.ScheduleOrder))
	for _, id := range g.ScheduleOrder {
		if schedule, ok := g.Schedules[id]; ok {
			schedules = append(schedules, schedule)
		}
	}
	return schedules
}

// RemoveGroup drops a group from the arena and order.
func (g *OpportunityGraph) RemoveGroup(id string) {
	delete(g.Groups, id)
	g.GroupOrder = removeID(g.GroupOrder, id)
}

// RemoveLocation drops a location from the arena and order.
func (g *OpportunityGraph) RemoveLocation(id string) {
	delete(g.Locations, id)
	g.LocationOrder = removeID(g.LocationOrder, id)
}

// RemoveSchedule drops a schedule from the arena and order.
func (g *OpportunityGraph) RemoveSchedule(id string) {
	delete(g.Schedules, id)
	g.ScheduleOrder = removeID(g.ScheduleOrder, id)
}

// Clone produces a fully independent deep copy. Every attendee filters its
// own clone because filters mutate nodes in place; the copy must not share
// any slice or map with the source.
func (g *OpportunityGraph) Clone() *OpportunityGraph {
	clone := &OpportunityGraph{
		AbilityLevels: append([]AbilityLevel(nil), g.AbilityLevels...),
		Areas:         append([]Area(nil), g.Areas...),
		GroupOrder:    append([]string(nil), g.GroupOrder...),
		Groups:        make(map[string]*Group, len(g.Groups)),
		LocationOrder: append([]string(nil), g.LocationOrder...),
		Locations:     make(map[string]*Location, len(g.Locations)),
		ScheduleOrder: append([]string(nil), g.ScheduleOrder...),
		Schedules:     make(map[string]*Schedule, len(g.Schedules)),
	}
	for id, group := range g.Groups {
		copied := *group
		copied.LocationIDs = append([]string(nil), group.LocationIDs...)
		clone.Groups[id] = &copied
	}
	for id, location := range g.Locations {
		copied := *location
		copied.PersonIDs = append([]string(nil), location.PersonIDs...)
		copied.ScheduleIDs = append([]string(nil), location.ScheduleIDs...)
		clone.Locations[id] = &copied
	}
	for id, schedule := range g.Schedules {
		copied := *schedule
		clone.Schedules[id] = &copied
	}
	return clone
}

// RemoveEmptyOptions prunes orphaned nodes bottom-up until the graph is
// referentially closed again: locations keep only surviving schedule ids and
// must be referenced by some group, schedules must be referenced by some
// location, groups keep only surviving location ids, areas must be referenced
// by some group. The pass repeats until stable because removing a group can
// orphan a location that earlier steps already visited; the fixpoint makes
// the operation idempotent.
func (g *OpportunityGraph) RemoveEmptyOptions() {
	for {
		before := len(g.Groups) + len(g.Locations) + len(g.Schedules)
		g.pruneOnce()
		if len(g.Groups)+len(g.Locations)+len(g.Schedules) == before {
			break
		}
	}
}

func (g *OpportunityGraph) pruneOnce() {
	referencedLocations := make(map[string]bool)
	for _, group := range g.Groups {
		for _, locationID := range group.LocationIDs {
			referencedLocations[locationID] = true
		}
	}

	for _, id := range append([]string(nil), g.LocationOrder...) {
		location := g.Locations[id]
		if location == nil {
			continue
		}
		kept := location.ScheduleIDs[:0]
		for _, scheduleID := range location.ScheduleIDs {
			if _, ok := g.Schedules[scheduleID]; ok {
				kept = append(kept, scheduleID)
			}
		}
		location.ScheduleIDs = kept
		if len(location.ScheduleIDs) == 0 || !referencedLocations[id] {
			g.RemoveLocation(id)
		}
	}

	referencedSchedules := make(map[string]bool)
	for _, location := range g.Locations {
		for _, scheduleID := range location.ScheduleIDs {
			referencedSchedules[scheduleID] = true
		}
	}
	for _, id := range append([]string(nil), g.ScheduleOrder...) {
		if !referencedSchedules[id] {
			g.RemoveSchedule(id)
		}
	}

	for _, id := range append([]string(nil), g.GroupOrder...) {
		group := g.Groups[id]
		if group == nil {
			continue
		}
		kept := group.LocationIDs[:0]
		for _, locationID := range group.LocationIDs {
			if _, ok := g.Locations[locationID]; ok {
				kept = append(kept, locationID)
			}
		}
		group.LocationIDs = kept
		if len(group.LocationIDs) == 0 {
			g.RemoveGroup(id)
		}
	}

	referencedAreas := make(map[string]bool)
	for _, group := range g.Groups {
		referencedAreas[group.AreaID] = true
	}
	keptAreas := g.Areas[:0]
	for _, area := range g.Areas {
		if referencedAreas[area.ID] {
			keptAreas = append(keptAreas, area)
		}
	}
	g.Areas = keptAreas
}

func removeID(ids []string, target string) []string {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
