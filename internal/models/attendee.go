package models

// Selection identifies one {area, group, location, schedule} check-in choice.
type Selection struct {
	AreaID     string `json:"area_id"`
	GroupID    string `json:"group_id"`
	LocationID string `json:"location_id"`
	ScheduleID string `json:"schedule_id"`
}

// Attendee wraps one person with their private opportunity graph and recent
// attendance history. The graph is an exclusive deep copy of the base graph:
// the filter chain mutates it freely without touching other attendees.
type Attendee struct {
	Person            Person             `json:"person"`
	Graph             *OpportunityGraph  `json:"graph"`
	RecentAttendances []RecentAttendance `json:"recent_attendances,omitempty"`
	PreSelected       bool               `json:"pre_selected"`
	Disabled          bool               `json:"disabled"`
	DisabledReason    string             `json:"disabled_reason,omitempty"`
	Selection         *Selection         `json:"selection,omitempty"`
}

// HasOptions reports whether any group survived filtering.
func (a *Attendee) HasOptions() bool {
	return a.Graph != nil && len(a.Graph.Groups) > 0
}
