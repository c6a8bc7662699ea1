package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/gracepoint-labs/checkin-api/internal/models"
)

func idArray(ids []string) interface{} {
	return pq.Array(ids)
}

// ReferenceRepository serves the cached configuration objects the engine
// consumes: areas, groups, locations, schedules, ability levels, kiosks and
// campuses. Reads go through Redis cache-aside with a short TTL and fall back
// to Postgres.
type ReferenceRepository struct {
	db     *sqlx.DB
	cache  *CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB, cache *CacheRepository, ttl time.Duration, logger *zap.Logger) *ReferenceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceRepository{db: db, cache: cache, ttl: ttl, logger: logger}
}

// Configuration loads the installation's check-in configuration row, or nil
// when none is stored (callers fall back to environment defaults).
func (r *ReferenceRepository) Configuration(ctx context.Context) (*models.CheckInConfiguration, error) {
	const key = "checkin:reference:configuration"
	var cached models.CheckInConfiguration
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	query := `SELECT search_mode, min_phone_length, max_phone_length, phone_search_type, max_results,
        prevent_inactive_people, auto_select_mode, auto_select_days_back
        FROM checkin_configurations LIMIT 1`
	row := r.db.QueryRowxContext(ctx, query)
	var cfg models.CheckInConfiguration
	err := row.Scan(&cfg.SearchMode, &cfg.MinPhoneLength, &cfg.MaxPhoneLength, &cfg.PhoneSearchType,
		&cfg.MaxResults, &cfg.PreventInactivePeople, &cfg.AutoSelectMode, &cfg.AutoSelectDaysBack)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load check-in configuration: %w", err)
	}

	var roles []string
	if err := r.db.SelectContext(ctx, &roles, `SELECT role_id FROM checkin_can_check_in_roles ORDER BY role_id`); err != nil {
		return nil, fmt.Errorf("load can-check-in roles: %w", err)
	}
	cfg.CanCheckInRoleIDs = roles

	r.cache.Set(ctx, key, cfg, r.ttl)
	return &cfg, nil
}

// AreaTemplates returns the candidate area templates with their schedule
// exclusion windows, restricted to the given ids when non-empty.
func (r *ReferenceRepository) AreaTemplates(ctx context.Context, areaIDs []string) ([]models.AreaTemplate, error) {
	key := "checkin:reference:areas:" + strings.Join(areaIDs, ",")
	var cached []models.AreaTemplate
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	query := `SELECT id, name, display_order FROM checkin_areas WHERE active = true`
	args := []interface{}{}
	if len(areaIDs) > 0 {
		query += " AND id = ANY($1)"
		args = append(args, idArray(areaIDs))
	}
	query += " ORDER BY display_order, name"

	var areas []models.AreaTemplate
	if err := r.db.SelectContext(ctx, &areas, query, args...); err != nil {
		return nil, fmt.Errorf("list area templates: %w", err)
	}

	type exclusionRow struct {
		AreaID string    `db:"area_id"`
		Start  time.Time `db:"start_date"`
		End    time.Time `db:"end_date"`
	}
	var exclusions []exclusionRow
	if err := r.db.SelectContext(ctx, &exclusions,
		`SELECT area_id, start_date, end_date FROM checkin_area_exclusions ORDER BY start_date`); err != nil {
		return nil, fmt.Errorf("list area exclusions: %w", err)
	}
	byArea := make(map[string][]models.DateRange)
	for _, row := range exclusions {
		byArea[row.AreaID] = append(byArea[row.AreaID], models.DateRange{Start: row.Start, End: row.End})
	}
	for i := range areas {
		areas[i].Exclusions = byArea[areas[i].ID]
	}

	r.cache.Set(ctx, key, areas, r.ttl)
	return areas, nil
}

// GroupTemplates returns active group templates for the given areas, with
// eligibility rules and location associations in configured order.
func (r *ReferenceRepository) GroupTemplates(ctx context.Context, areaIDs []string) ([]models.GroupTemplate, error) {
	key := "checkin:reference:groups:" + strings.Join(areaIDs, ",")
	var cached []models.GroupTemplate
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	query := `SELECT g.id, g.name, g.area_id, g.ability_level_id, g.display_order, g.active,
        g.min_age_years, g.max_age_years, g.min_grade_value_offset, g.max_grade_value_offset,
        g.gender, g.requires_membership, g.data_view_id
        FROM checkin_groups g WHERE g.active = true`
	args := []interface{}{}
	if len(areaIDs) > 0 {
		query += " AND g.area_id = ANY($1)"
		args = append(args, idArray(areaIDs))
	}
	query += " ORDER BY g.display_order, g.name"

	type groupRow struct {
		ID                  string          `db:"id"`
		Name                string          `db:"name"`
		AreaID              string          `db:"area_id"`
		AbilityLevelID      *string         `db:"ability_level_id"`
		Order               int             `db:"display_order"`
		Active              bool            `db:"active"`
		MinAgeYears         *float64        `db:"min_age_years"`
		MaxAgeYears         *float64        `db:"max_age_years"`
		MinGradeValueOffset *int            `db:"min_grade_value_offset"`
		MaxGradeValueOffset *int            `db:"max_grade_value_offset"`
		Gender              *models.Gender  `db:"gender"`
		RequiresMembership  bool            `db:"requires_membership"`
		DataViewID          *string         `db:"data_view_id"`
	}
	var rows []groupRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list group templates: %w", err)
	}

	type assocRow struct {
		GroupID    string `db:"group_id"`
		LocationID string `db:"location_id"`
	}
	var assocs []assocRow
	if err := r.db.SelectContext(ctx, &assocs,
		`SELECT group_id, location_id FROM checkin_group_locations ORDER BY group_id, display_order`); err != nil {
		return nil, fmt.Errorf("list group locations: %w", err)
	}
	locationsByGroup := make(map[string][]string)
	for _, assoc := range assocs {
		locationsByGroup[assoc.GroupID] = append(locationsByGroup[assoc.GroupID], assoc.LocationID)
	}

	groups := make([]models.GroupTemplate, 0, len(rows))
	for _, row := range rows {
		template := models.GroupTemplate{
			ID:                  row.ID,
			Name:                row.Name,
			AreaID:              row.AreaID,
			Order:               row.Order,
			Active:              row.Active,
			MinGradeValueOffset: row.MinGradeValueOffset,
			MaxGradeValueOffset: row.MaxGradeValueOffset,
			LocationIDs:         locationsByGroup[row.ID],
			Rules: models.GroupRules{
				MinAgeYears:        row.MinAgeYears,
				MaxAgeYears:        row.MaxAgeYears,
				Gender:             row.Gender,
				RequiresMembership: row.RequiresMembership,
			},
		}
		if row.AbilityLevelID != nil {
			template.AbilityLevelID = *row.AbilityLevelID
		}
		if row.DataViewID != nil {
			template.Rules.DataViewID = *row.DataViewID
		}
		groups = append(groups, template)
	}

	r.cache.Set(ctx, key, groups, r.ttl)
	return groups, nil
}

// LocationTemplates returns location templates keyed by id, with schedule
// associations in configured order. An empty id list returns all locations.
func (r *ReferenceRepository) LocationTemplates(ctx context.Context, locationIDs []string) (map[string]models.LocationTemplate, error) {
	key := "checkin:reference:locations:" + strings.Join(locationIDs, ",")
	var cached map[string]models.LocationTemplate
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	query := `SELECT id, name, campus_id, active, soft_threshold, firm_threshold FROM checkin_locations`
	args := []interface{}{}
	if len(locationIDs) > 0 {
		query += " WHERE id = ANY($1)"
		args = append(args, idArray(locationIDs))
	}

	var locations []models.LocationTemplate
	if err := r.db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, fmt.Errorf("list location templates: %w", err)
	}

	type assocRow struct {
		LocationID string `db:"location_id"`
		ScheduleID string `db:"schedule_id"`
	}
	var assocs []assocRow
	if err := r.db.SelectContext(ctx, &assocs,
		`SELECT location_id, schedule_id FROM checkin_location_schedules ORDER BY location_id, display_order`); err != nil {
		return nil, fmt.Errorf("list location schedules: %w", err)
	}
	schedulesByLocation := make(map[string][]string)
	for _, assoc := range assocs {
		schedulesByLocation[assoc.LocationID] = append(schedulesByLocation[assoc.LocationID], assoc.ScheduleID)
	}

	result := make(map[string]models.LocationTemplate, len(locations))
	for _, location := range locations {
		location.ScheduleIDs = schedulesByLocation[location.ID]
		result[location.ID] = location
	}

	r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

// ScheduleTemplates returns all schedule templates keyed by id.
func (r *ReferenceRepository) ScheduleTemplates(ctx context.Context) (map[string]models.ScheduleTemplate, error) {
	const key = "checkin:reference:schedules"
	var cached map[string]models.ScheduleTemplate
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	var schedules []models.ScheduleTemplate
	query := `SELECT id, name, active, start_time_of_day, end_time_of_day, check_in_start_offset, check_in_end_offset
        FROM checkin_schedules`
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, fmt.Errorf("list schedule templates: %w", err)
	}

	result := make(map[string]models.ScheduleTemplate, len(schedules))
	for _, schedule := range schedules {
		result[schedule.ID] = schedule
	}

	r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

// AbilityLevels returns the configured ability-level defined type in order.
func (r *ReferenceRepository) AbilityLevels(ctx context.Context) ([]models.AbilityLevel, error) {
	const key = "checkin:reference:ability_levels"
	var cached []models.AbilityLevel
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	var levels []models.AbilityLevel
	if err := r.db.SelectContext(ctx, &levels,
		`SELECT id, name FROM ability_levels ORDER BY display_order, name`); err != nil {
		return nil, fmt.Errorf("list ability levels: %w", err)
	}

	r.cache.Set(ctx, key, levels, r.ttl)
	return levels, nil
}

// Kiosk loads one kiosk with its reachable location ids.
func (r *ReferenceRepository) Kiosk(ctx context.Context, id string) (*models.Kiosk, error) {
	key := "checkin:reference:kiosk:" + id
	var cached models.Kiosk
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	var kiosk models.Kiosk
	if err := r.db.GetContext(ctx, &kiosk,
		`SELECT id, name, campus_id, pin_hash, active FROM kiosks WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("load kiosk %s: %w", id, err)
	}

	var locationIDs []string
	if err := r.db.SelectContext(ctx, &locationIDs,
		`SELECT location_id FROM kiosk_locations WHERE kiosk_id = $1 ORDER BY display_order`, id); err != nil {
		return nil, fmt.Errorf("load kiosk locations %s: %w", id, err)
	}
	kiosk.LocationIDs = locationIDs

	r.cache.Set(ctx, key, kiosk, r.ttl)
	return &kiosk, nil
}

// Campus loads one campus descriptor.
func (r *ReferenceRepository) Campus(ctx context.Context, id string) (*models.Campus, error) {
	key := "checkin:reference:campus:" + id
	var cached models.Campus
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	var campus models.Campus
	if err := r.db.GetContext(ctx, &campus,
		`SELECT id, name, time_zone FROM campuses WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("load campus %s: %w", id, err)
	}

	r.cache.Set(ctx, key, campus, r.ttl)
	return &campus, nil
}
