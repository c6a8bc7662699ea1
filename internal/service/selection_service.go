package service

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gracepoint-labs/checkin-api/internal/models"
)

// SelectionService proposes a default {area, group, location, schedule}
// selection from an attendee's filtered graph and recent attendance.
type SelectionService struct {
	logger *zap.Logger
}

// NewSelectionService constructs the selection engine.
func NewSelectionService(logger *zap.Logger) *SelectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionService{logger: logger}
}

// DefaultSelection walks the three-tier fallback: the exact slot of a recent
// visit, then any slot for a recently used group, then any valid slot at
// all. It returns nil when no group survived filtering; the caller treats
// that as "no available option", not a failure.
func (s *SelectionService) DefaultSelection(attendee *models.Attendee) *models.Selection {
	graph := attendee.Graph
	if graph == nil || len(graph.Groups) == 0 {
		return nil
	}

	if selection := s.exactMatch(graph, attendee.RecentAttendances); selection != nil {
		return selection
	}
	if selection := s.bestGroupMatch(graph, attendee.RecentAttendances); selection != nil {
		return selection
	}
	return s.anySelection(graph)
}

// exactMatch tries each candidate record's exact group/location/schedule
// triple, including the group→location and location→schedule edges.
// Candidates are the records sharing the calendar day of the very latest
// attendance, deduplicated to the most recent per schedule, ordered by
// schedule start time then recency.
func (s *SelectionService) exactMatch(graph *models.OpportunityGraph, records []models.RecentAttendance) *models.Selection {
	for _, record := range s.candidateRecords(graph, records) {
		group, ok := graph.Groups[record.GroupID]
		if !ok {
			continue
		}
		location, ok := graph.Locations[record.LocationID]
		if !ok || !containsID(group.LocationIDs, record.LocationID) {
			continue
		}
		if _, ok := graph.Schedules[record.ScheduleID]; !ok || !containsID(location.ScheduleIDs, record.ScheduleID) {
			continue
		}
		return &models.Selection{
			AreaID:     group.AreaID,
			GroupID:    group.ID,
			LocationID: location.ID,
			ScheduleID: record.ScheduleID,
		}
	}
	return nil
}

// bestGroupMatch relaxes the match to the group only, taking the first
// valid location/schedule pair for it in graph order.
func (s *SelectionService) bestGroupMatch(graph *models.OpportunityGraph, records []models.RecentAttendance) *models.Selection {
	for _, record := range mostRecentFirst(records) {
		group, ok := graph.Groups[record.GroupID]
		if !ok {
			continue
		}
		if selection := firstValidPair(graph, group); selection != nil {
			return selection
		}
	}
	return nil
}

// anySelection takes the first group in graph order with a valid pair.
func (s *SelectionService) anySelection(graph *models.OpportunityGraph) *models.Selection {
	for _, group := range graph.GroupsInOrder() {
		if selection := firstValidPair(graph, group); selection != nil {
			return selection
		}
	}
	return nil
}

// candidateRecords implements the tier-one ordering quirk: only records on
// the same calendar day as the most recent attendance participate, the most
// recent record per distinct schedule wins, and the survivors are ordered by
// schedule start time then attendance recency.
func (s *SelectionService) candidateRecords(graph *models.OpportunityGraph, records []models.RecentAttendance) []models.RecentAttendance {
	if len(records) == 0 {
		return nil
	}
	ordered := mostRecentFirst(records)
	latestDay := calendarDay(ordered[0].StartDateTime)

	bySchedule := make(map[string]models.RecentAttendance)
	for _, record := range ordered {
		if calendarDay(record.StartDateTime) != latestDay {
			continue
		}
		if _, ok := bySchedule[record.ScheduleID]; !ok {
			bySchedule[record.ScheduleID] = record
		}
	}

	candidates := make([]models.RecentAttendance, 0, len(bySchedule))
	for _, record := range bySchedule {
		candidates = append(candidates, record)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		left, right := candidates[i], candidates[j]
		leftStart, rightStart := scheduleStart(graph, left.ScheduleID), scheduleStart(graph, right.ScheduleID)
		if leftStart != rightStart {
			return leftStart < rightStart
		}
		return left.StartDateTime.After(right.StartDateTime)
	})
	return candidates
}

func firstValidPair(graph *models.OpportunityGraph, group *models.Group) *models.Selection {
	for _, locationID := range group.LocationIDs {
		location, ok := graph.Locations[locationID]
		if !ok {
			continue
		}
		for _, scheduleID := range location.ScheduleIDs {
			if _, ok := graph.Schedules[scheduleID]; !ok {
				continue
			}
			return &models.Selection{
				AreaID:     group.AreaID,
				GroupID:    group.ID,
				LocationID: locationID,
				ScheduleID: scheduleID,
			}
		}
	}
	return nil
}

func mostRecentFirst(records []models.RecentAttendance) []models.RecentAttendance {
	ordered := append([]models.RecentAttendance(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartDateTime.After(ordered[j].StartDateTime)
	})
	return ordered
}

func calendarDay(t time.Time) string {
	return t.Format("2006-01-02")
}

func scheduleStart(graph *models.OpportunityGraph, scheduleID string) int {
	if schedule, ok := graph.Schedules[scheduleID]; ok {
		return schedule.StartTimeOfDay
	}
	// Unknown schedules sort last.
	return 1 << 30
}

func containsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
