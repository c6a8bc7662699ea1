package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gracepoint-labs/checkin-api/internal/models"
)

// PersonRepository queries the person/family store for kiosk search and
// family member loading.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

const memberOrdering = `p.family_role_order, p.birth_date NULLS LAST, p.gender, p.nick_name`

// FamilyIDsByName finds family ids whose name matches the term,
// last-name-first fuzzy.
func (r *PersonRepository) FamilyIDsByName(ctx context.Context, term string, limit int) ([]string, error) {
	query := `SELECT DISTINCT f.id FROM families f
        JOIN people p ON p.family_id = f.id
        WHERE LOWER(f.name) LIKE LOWER($1) OR LOWER(p.last_name || ' ' || p.nick_name) LIKE LOWER($1)
        LIMIT $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, "%"+term+"%", limit); err != nil {
		return nil, fmt.Errorf("search families by name: %w", err)
	}
	return ids, nil
}

// FamilyIDsByPhone finds family ids with a member phone number matching the
// digit string, either anywhere or as a suffix.
func (r *PersonRepository) FamilyIDsByPhone(ctx context.Context, digits string, searchType models.PhoneSearchType, limit int) ([]string, error) {
	pattern := "%" + digits + "%"
	if searchType == models.PhoneSearchEndsWith {
		pattern = "%" + digits
	}
	query := `SELECT DISTINCT p.family_id FROM people p
        JOIN phone_numbers n ON n.person_id = p.id
        WHERE n.number_digits LIKE $1 AND p.family_id IS NOT NULL
        LIMIT $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pattern, limit); err != nil {
		return nil, fmt.Errorf("search families by phone: %w", err)
	}
	return ids, nil
}

// FamilyIDsByAlternateID resolves a scanned code against the alternate-id
// search keys and returns the owning family ids.
func (r *PersonRepository) FamilyIDsByAlternateID(ctx context.Context, code string) ([]string, error) {
	query := `SELECT DISTINCT p.family_id FROM people p
        JOIN person_search_keys k ON k.person_id = p.id
        WHERE k.search_type = 'alternate_id' AND k.search_value = $1 AND p.family_id IS NOT NULL`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, code); err != nil {
		return nil, fmt.Errorf("search families by alternate id: %w", err)
	}
	return ids, nil
}

// Families loads family rows for the given ids.
func (r *PersonRepository) Families(ctx context.Context, familyIDs []string) ([]models.FamilySearchResult, error) {
	if len(familyIDs) == 0 {
		return nil, nil
	}
	query := `SELECT f.id AS family_id, f.name AS family_name, COALESCE(f.campus_id, '') AS campus_id
        FROM families f WHERE f.id = ANY($1)`
	var families []models.FamilySearchResult
	if err := r.db.SelectContext(ctx, &families, query, idArray(familyIDs)); err != nil {
		return nil, fmt.Errorf("load families: %w", err)
	}
	return families, nil
}

// MembersOfFamilies loads members of the given families ordered by family
// role order, birth date, gender and first name. When role ids are supplied,
// membership is restricted to people holding one of those family roles.
func (r *PersonRepository) MembersOfFamilies(ctx context.Context, familyIDs []string, canCheckInRoleIDs []string) ([]models.Person, error) {
	if len(familyIDs) == 0 {
		return nil, nil
	}
	query := `SELECT p.id, p.nick_name, p.last_name, COALESCE(p.gender, '') AS gender, p.birth_date,
        p.grade_offset, p.inactive, p.family_id, p.family_role_order
        FROM people p WHERE p.family_id = ANY($1)`
	args := []interface{}{idArray(familyIDs)}
	if len(canCheckInRoleIDs) > 0 {
		query += " AND p.family_role_id = ANY($2)"
		args = append(args, idArray(canCheckInRoleIDs))
	}
	query += " ORDER BY " + memberOrdering

	var members []models.Person
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, fmt.Errorf("load family members: %w", err)
	}
	return members, nil
}

// RelatedPeople returns people outside the family who may be checked in by
// it, linked through one of the allowed relationship roles.
func (r *PersonRepository) RelatedPeople(ctx context.Context, familyID string, canCheckInRoleIDs []string) ([]models.Person, error) {
	if len(canCheckInRoleIDs) == 0 {
		return nil, nil
	}
	query := `SELECT p.id, p.nick_name, p.last_name, COALESCE(p.gender, '') AS gender, p.birth_date,
        p.grade_offset, p.inactive, p.family_id, p.family_role_order
        FROM people p
        JOIN known_relationships kr ON kr.person_id = p.id
        WHERE kr.family_id = $1 AND kr.role_id = ANY($2)
        ORDER BY ` + memberOrdering
	var people []models.Person
	if err := r.db.SelectContext(ctx, &people, query, familyID, idArray(canCheckInRoleIDs)); err != nil {
		return nil, fmt.Errorf("load related people: %w", err)
	}
	return people, nil
}

// FindByID loads a single person.
func (r *PersonRepository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	query := `SELECT p.id, p.nick_name, p.last_name, COALESCE(p.gender, '') AS gender, p.birth_date,
        p.grade_offset, p.inactive, p.family_id, p.family_role_order
        FROM people p WHERE p.id = $1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, id); err != nil {
		return nil, fmt.Errorf("load person %s: %w", id, err)
	}
	return &person, nil
}

// MembershipGroupIDs returns, per person, the groups the person is an active
// member of. Consumed by the membership filter.
func (r *PersonRepository) MembershipGroupIDs(ctx context.Context, personIDs []string) (map[string][]string, error) {
	if len(personIDs) == 0 {
		return map[string][]string{}, nil
	}
	type row struct {
		PersonID string `db:"person_id"`
		GroupID  string `db:"group_id"`
	}
	var rows []row
	query := `SELECT person_id, group_id FROM group_members
        WHERE person_id = ANY($1) AND status = 'active'`
	if err := r.db.SelectContext(ctx, &rows, query, idArray(personIDs)); err != nil {
		return nil, fmt.Errorf("load group memberships: %w", err)
	}
	result := make(map[string][]string)
	for _, item := range rows {
		result[item.PersonID] = append(result[item.PersonID], item.GroupID)
	}
	return result, nil
}
