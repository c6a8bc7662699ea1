package models

// FamilySearchMode selects how kiosk search terms are interpreted.
type FamilySearchMode string

const (
	SearchModePhone       FamilySearchMode = "phone"
	SearchModeName        FamilySearchMode = "name"
	SearchModeNameOrPhone FamilySearchMode = "name_or_phone"
	SearchModeScannedID   FamilySearchMode = "scanned_id"
	SearchModeFamilyID    FamilySearchMode = "family_id"
)

// Valid returns true when the mode is a supported value.
func (m FamilySearchMode) Valid() bool {
	switch m {
	case SearchModePhone, SearchModeName, SearchModeNameOrPhone, SearchModeScannedID, SearchModeFamilyID:
		return true
	default:
		return false
	}
}

// PhoneSearchType controls numeric matching behaviour.
type PhoneSearchType string

const (
	PhoneSearchContains PhoneSearchType = "contains"
	PhoneSearchEndsWith PhoneSearchType = "ends_with"
)

// AutoSelectMode controls how much of a previous visit is pre-filled.
type AutoSelectMode string

const (
	AutoSelectOff           AutoSelectMode = "off"
	AutoSelectPeopleOnly    AutoSelectMode = "people"
	AutoSelectPeopleAndSlot AutoSelectMode = "people_and_slot"
)

// Valid returns true when the mode is a supported value.
func (m AutoSelectMode) Valid() bool {
	switch m {
	case AutoSelectOff, AutoSelectPeopleOnly, AutoSelectPeopleAndSlot:
		return true
	default:
		return false
	}
}

// CheckInConfiguration is the immutable snapshot of a check-in program's
// rules, loaded once per request.
type CheckInConfiguration struct {
	SearchMode            FamilySearchMode `json:"search_mode"`
	MinPhoneLength        int              `json:"min_phone_length"`
	MaxPhoneLength        int              `json:"max_phone_length"`
	PhoneSearchType       PhoneSearchType  `json:"phone_search_type"`
	MaxResults            int              `json:"max_results"`
	PreventInactivePeople bool             `json:"prevent_inactive_people"`
	AutoSelectMode        AutoSelectMode   `json:"auto_select_mode"`
	AutoSelectDaysBack    int              `json:"auto_select_days_back"`
	CanCheckInRoleIDs     []string         `json:"can_check_in_role_ids"`
}

// LookbackDays normalises the auto-select window to at least one day.
func (c *CheckInConfiguration) LookbackDays() int {
	if c.AutoSelectDaysBack < 1 {
		return 1
	}
	return c.AutoSelectDaysBack
}
