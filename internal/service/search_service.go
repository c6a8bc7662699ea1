package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/gracepoint-labs/checkin-api/internal/models"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
)

type personSearchRepository interface {
	FamilyIDsByName(ctx context.Context, term string, limit int) ([]string, error)
	FamilyIDsByPhone(ctx context.Context, digits string, searchType models.PhoneSearchType, limit int) ([]string, error)
	FamilyIDsByAlternateID(ctx context.Context, code string) ([]string, error)
	Families(ctx context.Context, familyIDs []string) ([]models.FamilySearchResult, error)
	MembersOfFamilies(ctx context.Context, familyIDs []string, canCheckInRoleIDs []string) ([]models.Person, error)
}

// SearchService resolves kiosk search terms into families with their
// members.
type SearchService struct {
	people personSearchRepository
	logger *zap.Logger
}

// NewSearchService constructs the search service.
func NewSearchService(people personSearchRepository, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{people: people, logger: logger}
}

// Search dispatches the term through the configured mode and returns family
// results capped at the configured maximum. preferredCampusID, when set,
// ranks matching families first without disturbing the underlying order.
// Constraint violations surface as user-facing kiosk messages.
func (s *SearchService) Search(ctx context.Context, term string, config *models.CheckInConfiguration, preferredCampusID string) ([]models.FamilySearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, appErrors.CheckInMessage("a search value is required")
	}

	mode := config.SearchMode
	if !mode.Valid() {
		return nil, appErrors.Configuration("unknown family search mode %q", string(mode))
	}
	if mode == models.SearchModeNameOrPhone {
		if containsLetter(term) {
			mode = models.SearchModeName
		} else {
			mode = models.SearchModePhone
		}
	}

	limit := config.MaxResults
	if limit <= 0 {
		limit = 100
	}

	var familyIDs []string
	var err error
	switch mode {
	case models.SearchModeName:
		familyIDs, err = s.people.FamilyIDsByName(ctx, term, limit)
	case models.SearchModePhone:
		familyIDs, err = s.searchByPhone(ctx, term, config, limit)
	case models.SearchModeScannedID:
		familyIDs, err = s.people.FamilyIDsByAlternateID(ctx, term)
	case models.SearchModeFamilyID:
		familyIDs = splitIDs(term)
	}
	if err != nil {
		return nil, err
	}
	if len(familyIDs) == 0 {
		return nil, nil
	}
	if len(familyIDs) > limit {
		familyIDs = familyIDs[:limit]
	}

	families, err := s.people.Families(ctx, familyIDs)
	if err != nil {
		return nil, err
	}
	members, err := s.people.MembersOfFamilies(ctx, familyIDs, nil)
	if err != nil {
		return nil, err
	}
	membersByFamily := make(map[string][]models.Person)
	for _, member := range members {
		membersByFamily[member.FamilyID] = append(membersByFamily[member.FamilyID], member)
	}
	for i := range families {
		families[i].Members = membersByFamily[families[i].FamilyID]
	}

	if preferredCampusID != "" {
		sort.SliceStable(families, func(i, j int) bool {
			return families[i].CampusID == preferredCampusID && families[j].CampusID != preferredCampusID
		})
	}
	if len(families) > limit {
		families = families[:limit]
	}
	return families, nil
}

// searchByPhone strips the term to digits and enforces the configured
// length bounds before matching.
func (s *SearchService) searchByPhone(ctx context.Context, term string, config *models.CheckInConfiguration, limit int) ([]string, error) {
	digits := digitsOnly(term)
	if config.MinPhoneLength > 0 && len(digits) < config.MinPhoneLength {
		return nil, appErrors.CheckInMessage("phone search requires at least %d digits", config.MinPhoneLength)
	}
	if config.MaxPhoneLength > 0 && len(digits) > config.MaxPhoneLength {
		return nil, appErrors.CheckInMessage("phone search allows at most %d digits", config.MaxPhoneLength)
	}

	searchType := config.PhoneSearchType
	if searchType != models.PhoneSearchContains {
		searchType = models.PhoneSearchEndsWith
	}
	return s.people.FamilyIDsByPhone(ctx, digits, searchType, limit)
}

func containsLetter(term string) bool {
	for _, r := range term {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func digitsOnly(term string) string {
	var b strings.Builder
	for _, r := range term {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitIDs(term string) []string {
	fields := strings.FieldsFunc(term, func(r rune) bool {
		return r == ',' || r == ' '
	})
	ids := make([]string, 0, len(fields))
	for _, field := range fields {
		if field != "" {
			ids = append(ids, field)
		}
	}
	return ids
}
