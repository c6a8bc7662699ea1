package models

import "time"

// Gender mirrors the person profile value; unknown is the zero value.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
)

// Person is a check-in candidate loaded from the person store.
type Person struct {
	ID                 string     `db:"id" json:"id"`
	NickName           string     `db:"nick_name" json:"nick_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	Gender             Gender     `db:"gender" json:"gender"`
	BirthDate          *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	GradeOffset        *int       `db:"grade_offset" json:"grade_offset,omitempty"`
	Inactive           bool       `db:"inactive" json:"inactive"`
	FamilyID           string     `db:"family_id" json:"family_id"`
	FamilyRoleOrder    int        `db:"family_role_order" json:"family_role_order"`
	MembershipGroupIDs []string   `db:"-" json:"membership_group_ids,omitempty"`
}

// FullName joins nick and last name for display on kiosks and labels.
func (p *Person) FullName() string {
	if p.NickName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.NickName
	}
	return p.NickName + " " + p.LastName
}

// AgeYears computes a fractional age as of the given instant, or nil when the
// birth date is unknown.
func (p *Person) AgeYears(asOf time.Time) *float64 {
	if p.BirthDate == nil {
		return nil
	}
	birth := *p.BirthDate
	if birth.After(asOf) {
		zero := 0.0
		return &zero
	}
	years := float64(asOf.Year() - birth.Year())
	anniversary := birth.AddDate(asOf.Year()-birth.Year(), 0, 0)
	if anniversary.After(asOf) {
		years--
		anniversary = anniversary.AddDate(-1, 0, 0)
	}
	next := anniversary.AddDate(1, 0, 0)
	span := next.Sub(anniversary)
	if span > 0 {
		years += float64(asOf.Sub(anniversary)) / float64(span)
	}
	return &years
}

// IsMemberOf reports active membership in the given group.
func (p *Person) IsMemberOf(groupID string) bool {
	for _, id := range p.MembershipGroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// FamilySearchResult is one family row returned by kiosk search, with its
// members already ordered by role order, birth date, gender and first name.
type FamilySearchResult struct {
	FamilyID   string   `db:"family_id" json:"family_id"`
	FamilyName string   `db:"family_name" json:"family_name"`
	CampusID   string   `db:"campus_id" json:"campus_id,omitempty"`
	Members    []Person `db:"-" json:"members"`
}
