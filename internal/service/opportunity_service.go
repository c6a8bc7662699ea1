package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gracepoint-labs/checkin-api/internal/models"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
)

type referenceRepository interface {
	AreaTemplates(ctx context.Context, areaIDs []string) ([]models.AreaTemplate, error)
	GroupTemplates(ctx context.Context, areaIDs []string) ([]models.GroupTemplate, error)
	LocationTemplates(ctx context.Context, locationIDs []string) (map[string]models.LocationTemplate, error)
	ScheduleTemplates(ctx context.Context) (map[string]models.ScheduleTemplate, error)
	AbilityLevels(ctx context.Context) ([]models.AbilityLevel, error)
	Kiosk(ctx context.Context, id string) (*models.Kiosk, error)
	Campus(ctx context.Context, id string) (*models.Campus, error)
}

type occupancyRepository interface {
	OpenOccupancy(ctx context.Context, day time.Time) ([]models.LocationOccupancy, error)
}

// OpportunityService builds the base opportunity graph for a kiosk or an
// explicit location set. The built graph is logically immutable; attendees
// clone it before filtering.
type OpportunityService struct {
	reference  referenceRepository
	attendance occupancyRepository
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewOpportunityService constructs the graph builder. nowFn may be nil, in
// which case the wall clock is used.
func NewOpportunityService(reference referenceRepository, attendance occupancyRepository, metrics *MetricsService, logger *zap.Logger, nowFn func() time.Time) *OpportunityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &OpportunityService{reference: reference, attendance: attendance, metrics: metrics, logger: logger, now: nowFn}
}

// BuildGraph resolves every {area, group, location, schedule} combination
// valid for anyone right now. It fails with a configuration error when
// neither a kiosk nor an explicit location set is supplied; everything else
// that cannot be resolved is skipped silently.
func (s *OpportunityService) BuildGraph(ctx context.Context, candidateAreaIDs []string, kioskID string, locationIDs []string) (*models.OpportunityGraph, error) {
	started := time.Now()

	if kioskID == "" && len(locationIDs) == 0 {
		return nil, appErrors.Configuration("check-in requires a kiosk or an explicit set of locations")
	}

	now := s.now()
	candidateLocationIDs := locationIDs
	if kioskID != "" {
		kiosk, err := s.reference.Kiosk(ctx, kioskID)
		if err != nil {
			return nil, err
		}
		now = s.kioskNow(ctx, kiosk, now)
		if len(candidateLocationIDs) == 0 {
			candidateLocationIDs = kiosk.LocationIDs
		}
	}

	areas, err := s.reference.AreaTemplates(ctx, candidateAreaIDs)
	if err != nil {
		return nil, err
	}
	survivingAreas := make([]models.AreaTemplate, 0, len(areas))
	survivingAreaIDs := make([]string, 0, len(areas))
	for _, area := range areas {
		if area.ExcludedOn(now) {
			continue
		}
		survivingAreas = append(survivingAreas, area)
		survivingAreaIDs = append(survivingAreaIDs, area.ID)
	}

	locationTemplates, err := s.reference.LocationTemplates(ctx, candidateLocationIDs)
	if err != nil {
		return nil, err
	}
	activeLocations := make(map[string]models.LocationTemplate, len(locationTemplates))
	for id, template := range locationTemplates {
		if template.Active {
			activeLocations[id] = template
		}
	}

	scheduleTemplates, err := s.reference.ScheduleTemplates(ctx)
	if err != nil {
		return nil, err
	}
	openSchedules := make(map[string]models.ScheduleTemplate, len(scheduleTemplates))
	for id, template := range scheduleTemplates {
		if template.IsCheckInOpen(now) {
			openSchedules[id] = template
		}
	}

	groups, err := s.reference.GroupTemplates(ctx, survivingAreaIDs)
	if err != nil {
		return nil, err
	}

	counts, presentPersons, err := s.countOccupancy(ctx, now, scheduleTemplates)
	if err != nil {
		return nil, err
	}

	graph := models.NewOpportunityGraph()

	levels, err := s.reference.AbilityLevels(ctx)
	if err != nil {
		return nil, err
	}
	graph.AbilityLevels = levels

	for _, area := range survivingAreas {
		graph.Areas = append(graph.Areas, models.Area{ID: area.ID, Name: area.Name})
	}

	areaSet := make(map[string]bool, len(survivingAreaIDs))
	for _, id := range survivingAreaIDs {
		areaSet[id] = true
	}

	usedLocations := make(map[string]bool)
	for _, template := range groups {
		if !areaSet[template.AreaID] {
			continue
		}
		group := &models.Group{
			ID:             template.ID,
			Name:           template.Name,
			AreaID:         template.AreaID,
			AbilityLevelID: template.AbilityLevelID,
			Rules:          template.Rules,
		}
		applyGradeRange(&group.Rules, template.MinGradeValueOffset, template.MaxGradeValueOffset)

		for _, locationID := range template.LocationIDs {
			location, ok := activeLocations[locationID]
			if !ok {
				continue
			}
			if !s.locationUsable(location, openSchedules, counts) {
				continue
			}
			group.LocationIDs = append(group.LocationIDs, locationID)
			usedLocations[locationID] = true
		}
		if len(group.LocationIDs) > 0 {
			graph.AddGroup(group)
		}
	}

	for _, template := range groups {
		for _, locationID := range template.LocationIDs {
			if !usedLocations[locationID] {
				continue
			}
			if _, ok := graph.Locations[locationID]; ok {
				continue
			}
			location := activeLocations[locationID]
			node := &models.Location{
				ID:            location.ID,
				Name:          location.Name,
				Count:         counts[location.ID],
				SoftThreshold: location.SoftThreshold,
				PersonIDs:     presentPersons[location.ID],
			}
			for _, scheduleID := range location.ScheduleIDs {
				if _, open := openSchedules[scheduleID]; open {
					node.ScheduleIDs = append(node.ScheduleIDs, scheduleID)
				}
			}
			graph.AddLocation(node)
			for _, scheduleID := range node.ScheduleIDs {
				if _, ok := graph.Schedules[scheduleID]; ok {
					continue
				}
				scheduleTemplate := openSchedules[scheduleID]
				graph.AddSchedule(&models.Schedule{
					ID:             scheduleTemplate.ID,
					Name:           scheduleTemplate.Name,
					StartTimeOfDay: scheduleTemplate.StartTimeOfDay,
				})
			}
		}
	}

	graph.RemoveEmptyOptions()

	s.metrics.ObserveGraphBuild(time.Since(started), len(graph.Groups))
	return graph, nil
}

// Now resolves the effective clock for the given kiosk, or server time when
// no kiosk is supplied.
func (s *OpportunityService) Now(ctx context.Context, kioskID string) time.Time {
	now := s.now()
	if kioskID == "" {
		return now
	}
	kiosk, err := s.reference.Kiosk(ctx, kioskID)
	if err != nil {
		return now
	}
	return s.kioskNow(ctx, kiosk, now)
}

// kioskNow shifts now into the kiosk's primary campus time zone. A campus or
// zone that cannot be resolved falls back to server time.
func (s *OpportunityService) kioskNow(ctx context.Context, kiosk *models.Kiosk, now time.Time) time.Time {
	if kiosk.CampusID == "" {
		return now
	}
	campus, err := s.reference.Campus(ctx, kiosk.CampusID)
	if err != nil {
		s.logger.Debug("campus lookup failed, using server time", zap.String("kiosk_id", kiosk.ID), zap.Error(err))
		return now
	}
	zone, err := time.LoadLocation(campus.TimeZone)
	if err != nil {
		s.logger.Debug("invalid campus time zone", zap.String("time_zone", campus.TimeZone), zap.Error(err))
		return now
	}
	return now.In(zone)
}

// locationUsable applies the check-in window and firm capacity rules: a room
// with no open schedule, or counted past its firm threshold, is not offered
// at all.
func (s *OpportunityService) locationUsable(location models.LocationTemplate, openSchedules map[string]models.ScheduleTemplate, counts map[string]int) bool {
	hasOpenSchedule := false
	for _, scheduleID := range location.ScheduleIDs {
		if _, ok := openSchedules[scheduleID]; ok {
			hasOpenSchedule = true
			break
		}
	}
	if !hasOpenSchedule {
		return false
	}
	if location.FirmThreshold != nil && counts[location.ID] > *location.FirmThreshold {
		return false
	}
	return true
}

// countOccupancy counts distinct people currently present per location.
// Rows are grouped by (schedule, campus) so the "is this window still open
// for checkout" evaluation runs once per group rather than per row.
func (s *OpportunityService) countOccupancy(ctx context.Context, now time.Time, schedules map[string]models.ScheduleTemplate) (map[string]int, map[string][]string, error) {
	rows, err := s.attendance.OpenOccupancy(ctx, now)
	if err != nil {
		return nil, nil, err
	}

	type groupKey struct {
		scheduleID string
		campusID   string
	}
	grouped := make(map[groupKey][]models.LocationOccupancy)
	for _, row := range rows {
		key := groupKey{scheduleID: row.ScheduleID, campusID: row.CampusID}
		grouped[key] = append(grouped[key], row)
	}

	counts := make(map[string]int)
	present := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for key, batch := range grouped {
		schedule, ok := schedules[key.scheduleID]
		if !ok || !schedule.IsActiveForCheckOut(now) {
			continue
		}
		for _, row := range batch {
			if seen[row.LocationID] == nil {
				seen[row.LocationID] = make(map[string]bool)
			}
			if seen[row.LocationID][row.PersonID] {
				continue
			}
			seen[row.LocationID][row.PersonID] = true
			counts[row.LocationID]++
			present[row.LocationID] = append(present[row.LocationID], row.PersonID)
		}
	}
	return counts, present, nil
}

// applyGradeRange converts the raw configured grade pair into rule offsets.
// Offsets shrink as grades increase, so the configured maximum grade supplies
// the minimum offset and the configured minimum grade the maximum offset.
func applyGradeRange(rules *models.GroupRules, minGradeValueOffset, maxGradeValueOffset *int) {
	if maxGradeValueOffset != nil {
		v := *maxGradeValueOffset
		rules.MinGradeOffset = &v
	}
	if minGradeValueOffset != nil {
		v := *minGradeValueOffset
		rules.MaxGradeOffset = &v
	}
}
