package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gracepoint-labs/checkin-api/internal/models"
	"github.com/gracepoint-labs/checkin-api/pkg/config"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
)

type configurationRepository interface {
	Configuration(ctx context.Context) (*models.CheckInConfiguration, error)
}

type familyMemberRepository interface {
	MembersOfFamilies(ctx context.Context, familyIDs []string, canCheckInRoleIDs []string) ([]models.Person, error)
	RelatedPeople(ctx context.Context, familyID string, canCheckInRoleIDs []string) ([]models.Person, error)
	FindByID(ctx context.Context, id string) (*models.Person, error)
}

// CheckInService orchestrates the two supported flows: check-in by family
// and check-in by single person, plus current-attendance lookups for
// check-out.
type CheckInService struct {
	defaults      config.CheckInConfig
	configuration configurationRepository
	people        familyMemberRepository
	search        *SearchService
	opportunities *OpportunityService
	attendees     *AttendeeService
	selection     *SelectionService
	dataViews     dataViewRepository
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewCheckInService constructs the coordinator.
func NewCheckInService(defaults config.CheckInConfig, configuration configurationRepository, people familyMemberRepository, search *SearchService, opportunities *OpportunityService, attendees *AttendeeService, selection *SelectionService, dataViews dataViewRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CheckInService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckInService{
		defaults:      defaults,
		configuration: configuration,
		people:        people,
		search:        search,
		opportunities: opportunities,
		attendees:     attendees,
		selection:     selection,
		dataViews:     dataViews,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// FamilyCheckInRequest identifies one family and the kiosk context.
type FamilyCheckInRequest struct {
	FamilyID    string   `json:"family_id" validate:"required"`
	KioskID     string   `json:"kiosk_id"`
	AreaIDs     []string `json:"area_ids"`
	LocationIDs []string `json:"location_ids"`
}

// PersonCheckInRequest identifies a single person and the kiosk context.
type PersonCheckInRequest struct {
	PersonID    string   `json:"person_id" validate:"required"`
	KioskID     string   `json:"kiosk_id"`
	AreaIDs     []string `json:"area_ids"`
	LocationIDs []string `json:"location_ids"`
}

// CheckInResult carries the resolved attendees with their filtered graphs
// and proposed selections.
type CheckInResult struct {
	Attendees []*models.Attendee `json:"attendees"`
}

// Configuration merges the stored installation configuration over the
// environment defaults. Invalid stored values fall back silently.
func (s *CheckInService) Configuration(ctx context.Context) (*models.CheckInConfiguration, error) {
	cfg := &models.CheckInConfiguration{
		SearchMode:            models.FamilySearchMode(s.defaults.SearchMode),
		MinPhoneLength:        s.defaults.MinPhoneLength,
		MaxPhoneLength:        s.defaults.MaxPhoneLength,
		PhoneSearchType:       models.PhoneSearchType(s.defaults.PhoneSearchType),
		MaxResults:            s.defaults.MaxResults,
		PreventInactivePeople: s.defaults.PreventInactivePeople,
		AutoSelectMode:        models.AutoSelectMode(s.defaults.AutoSelectMode),
		AutoSelectDaysBack:    s.defaults.AutoSelectDaysBack,
		CanCheckInRoleIDs:     s.defaults.CanCheckInRoleIDs,
	}

	stored, err := s.configuration.Configuration(ctx)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		if stored.SearchMode.Valid() {
			cfg.SearchMode = stored.SearchMode
		}
		if stored.MinPhoneLength > 0 {
			cfg.MinPhoneLength = stored.MinPhoneLength
		}
		if stored.MaxPhoneLength > 0 {
			cfg.MaxPhoneLength = stored.MaxPhoneLength
		}
		if stored.PhoneSearchType != "" {
			cfg.PhoneSearchType = stored.PhoneSearchType
		}
		if stored.MaxResults > 0 {
			cfg.MaxResults = stored.MaxResults
		}
		cfg.PreventInactivePeople = stored.PreventInactivePeople
		if stored.AutoSelectMode.Valid() {
			cfg.AutoSelectMode = stored.AutoSelectMode
		}
		cfg.AutoSelectDaysBack = stored.AutoSelectDaysBack
		if len(stored.CanCheckInRoleIDs) > 0 {
			cfg.CanCheckInRoleIDs = stored.CanCheckInRoleIDs
		}
	}
	return cfg, nil
}

// SearchFamilies resolves a kiosk search term under the installation
// configuration.
func (s *CheckInService) SearchFamilies(ctx context.Context, term, preferredCampusID string) ([]models.FamilySearchResult, error) {
	cfg, err := s.Configuration(ctx)
	if err != nil {
		return nil, err
	}
	return s.search.Search(ctx, term, cfg, preferredCampusID)
}

// FamilyCheckIn resolves check-in options for every member of a family,
// including related people the family may check in.
func (s *CheckInService) FamilyCheckIn(ctx context.Context, req FamilyCheckInRequest) (*CheckInResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in request")
	}

	cfg, err := s.Configuration(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.people.MembersOfFamilies(ctx, []string{req.FamilyID}, nil)
	if err != nil {
		return nil, err
	}
	related, err := s.people.RelatedPeople(ctx, req.FamilyID, cfg.CanCheckInRoleIDs)
	if err != nil {
		return nil, err
	}
	people := append(members, related...)

	return s.resolve(ctx, cfg, people, req.KioskID, req.AreaIDs, req.LocationIDs)
}

// PersonCheckIn resolves check-in options for a single person.
func (s *CheckInService) PersonCheckIn(ctx context.Context, req PersonCheckInRequest) (*CheckInResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in request")
	}

	cfg, err := s.Configuration(ctx)
	if err != nil {
		return nil, err
	}

	person, err := s.people.FindByID(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}

	return s.resolve(ctx, cfg, []models.Person{*person}, req.KioskID, req.AreaIDs, req.LocationIDs)
}

// CurrentAttendance returns the open attendance rows still eligible for
// check-out, evaluated on kiosk-local time.
func (s *CheckInService) CurrentAttendance(ctx context.Context, personIDs []string, kioskID string) ([]models.CurrentAttendance, error) {
	now := s.opportunities.Now(ctx, kioskID)
	return s.attendees.GetCurrentlyCheckedIn(ctx, personIDs, now)
}

// resolve runs the shared pipeline: build the base graph, assemble per-person
// clones, filter each clone and propose defaults. Per-attendee graphs are
// independent, so attendee order carries no meaning.
func (s *CheckInService) resolve(ctx context.Context, cfg *models.CheckInConfiguration, people []models.Person, kioskID string, areaIDs, locationIDs []string) (*CheckInResult, error) {
	if cfg.PreventInactivePeople {
		active := people[:0]
		for _, person := range people {
			if !person.Inactive {
				active = append(active, person)
			}
		}
		people = active
	}

	graph, err := s.opportunities.BuildGraph(ctx, areaIDs, kioskID, locationIDs)
	if err != nil {
		return nil, err
	}
	now := s.opportunities.Now(ctx, kioskID)

	attendees, err := s.attendees.Assemble(ctx, people, graph, cfg, now)
	if err != nil {
		return nil, err
	}

	personIDs := make([]string, 0, len(people))
	for _, person := range people {
		personIDs = append(personIDs, person.ID)
	}
	openSchedules, err := s.attendees.OpenScheduleIDs(ctx, personIDs, now)
	if err != nil {
		return nil, err
	}

	for _, attendee := range attendees {
		if err := s.FilterAndDefault(ctx, attendee, cfg, now, openSchedules[attendee.Person.ID]); err != nil {
			return nil, err
		}
	}

	return &CheckInResult{Attendees: attendees}, nil
}

// FilterAndDefault mutates the attendee in place: runs the filter chain over
// the private graph, flags attendees left without options, marks recent
// visitors as pre-selected and proposes a slot default when configured.
func (s *CheckInService) FilterAndDefault(ctx context.Context, attendee *models.Attendee, cfg *models.CheckInConfiguration, now time.Time, openScheduleIDs map[string]bool) error {
	fc := &FilterContext{
		Config:          cfg,
		Attendee:        attendee,
		Now:             now,
		OpenScheduleIDs: openScheduleIDs,
		DataViews:       s.dataViews,
	}
	if err := ApplyFilters(ctx, fc, s.metrics); err != nil {
		return err
	}

	if !attendee.HasOptions() {
		attendee.Disabled = true
		attendee.DisabledReason = "no matching check-in options"
	}

	if cfg.AutoSelectDaysBack > 0 && len(attendee.RecentAttendances) > 0 {
		attendee.PreSelected = true
	}
	if cfg.AutoSelectMode == models.AutoSelectPeopleAndSlot {
		attendee.Selection = s.selection.DefaultSelection(attendee)
	}
	return nil
}
