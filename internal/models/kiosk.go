package models

import "time"

// Campus localises kiosk clocks.
type Campus struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	TimeZone string `db:"time_zone" json:"time_zone"`
}

// Kiosk is a registered check-in device and the set of rooms it serves.
type Kiosk struct {
	ID          string   `db:"id" json:"id"`
	Name        string   `db:"name" json:"name"`
	CampusID    string   `db:"campus_id" json:"campus_id"`
	PINHash     string   `db:"pin_hash" json:"-"`
	Active      bool     `db:"active" json:"active"`
	LocationIDs []string `db:"-" json:"location_ids"`
}

// DateRange is a closed calendar-day interval used for schedule exclusions.
type DateRange struct {
	Start time.Time `db:"start_date" json:"start"`
	End   time.Time `db:"end_date" json:"end"`
}

// Contains reports whether the given day falls inside the range, comparing
// calendar days only.
func (r DateRange) Contains(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, day.Location())
	end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, day.Location())
	return !d.Before(start) && !d.After(end)
}

// AreaTemplate is the cached configuration for one check-in program category.
type AreaTemplate struct {
	ID         string      `db:"id" json:"id"`
	Name       string      `db:"name" json:"name"`
	Order      int         `db:"display_order" json:"order"`
	Exclusions []DateRange `db:"-" json:"exclusions,omitempty"`
}

// ExcludedOn reports whether an active exclusion window covers the day.
func (t *AreaTemplate) ExcludedOn(day time.Time) bool {
	for _, window := range t.Exclusions {
		if window.Contains(day) {
			return true
		}
	}
	return false
}

// GroupTemplate is the cached configuration for one check-in-able group,
// carrying its eligibility rules and room associations in configured order.
type GroupTemplate struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	AreaID         string     `db:"area_id" json:"area_id"`
	AbilityLevelID string     `db:"ability_level_id" json:"ability_level_id,omitempty"`
	Order          int        `db:"display_order" json:"order"`
	Active         bool       `db:"active" json:"active"`
	Rules          GroupRules `db:"-" json:"rules"`
	LocationIDs    []string   `db:"-" json:"location_ids"`

	// Raw configured grade range as defined-value offsets, in configuration
	// order (minimum grade first). Offsets shrink as grades increase, so the
	// graph builder swaps these into Rules.MinGradeOffset/MaxGradeOffset.
	MinGradeValueOffset *int `db:"min_grade_value_offset" json:"min_grade_value_offset,omitempty"`
	MaxGradeValueOffset *int `db:"max_grade_value_offset" json:"max_grade_value_offset,omitempty"`
}

// LocationTemplate is the cached configuration for one room.
type LocationTemplate struct {
	ID            string   `db:"id" json:"id"`
	Name          string   `db:"name" json:"name"`
	CampusID      string   `db:"campus_id" json:"campus_id,omitempty"`
	Active        bool     `db:"active" json:"active"`
	SoftThreshold *int     `db:"soft_threshold" json:"soft_threshold,omitempty"`
	FirmThreshold *int     `db:"firm_threshold" json:"firm_threshold,omitempty"`
	ScheduleIDs   []string `db:"-" json:"schedule_ids"`
}

// ScheduleTemplate is the cached configuration for one named time window.
// Times of day are minutes after local midnight; EndTimeOfDay nil means the
// window runs to end of day.
type ScheduleTemplate struct {
	ID                 string `db:"id" json:"id"`
	Name               string `db:"name" json:"name"`
	Active             bool   `db:"active" json:"active"`
	StartTimeOfDay     int    `db:"start_time_of_day" json:"start_time_of_day"`
	EndTimeOfDay       *int   `db:"end_time_of_day" json:"end_time_of_day,omitempty"`
	CheckInStartOffset int    `db:"check_in_start_offset" json:"check_in_start_offset"`
	CheckInEndOffset   *int   `db:"check_in_end_offset" json:"check_in_end_offset,omitempty"`
}

// CheckInWindow resolves the check-in window for the calendar day containing
// now: the window opens CheckInStartOffset minutes before the schedule start
// and closes CheckInEndOffset minutes after it, defaulting to the schedule
// end. Windows are clamped to the schedule's own day.
func (t *ScheduleTemplate) CheckInWindow(now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := midnight.Add(time.Duration(t.StartTimeOfDay) * time.Minute)
	open := start.Add(-time.Duration(t.CheckInStartOffset) * time.Minute)

	var close time.Time
	if t.CheckInEndOffset != nil {
		close = start.Add(time.Duration(*t.CheckInEndOffset) * time.Minute)
	} else {
		close = t.scheduleEnd(midnight)
	}
	endOfDay := midnight.AddDate(0, 0, 1)
	if close.After(endOfDay) {
		close = endOfDay
	}
	return open, close
}

// IsCheckInOpen reports whether the check-in window currently contains now.
// Open boundary inclusive, close exclusive.
func (t *ScheduleTemplate) IsCheckInOpen(now time.Time) bool {
	if !t.Active {
		return false
	}
	open, close := t.CheckInWindow(now)
	return !now.Before(open) && now.Before(close)
}

// IsActiveForCheckOut reports whether an open attendance against this
// schedule may still be checked out: either the check-in window or the
// schedule itself is still running.
func (t *ScheduleTemplate) IsActiveForCheckOut(now time.Time) bool {
	if !t.Active {
		return false
	}
	if t.IsCheckInOpen(now) {
		return true
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := midnight.Add(time.Duration(t.StartTimeOfDay) * time.Minute)
	return !now.Before(start) && now.Before(t.scheduleEnd(midnight))
}

func (t *ScheduleTemplate) scheduleEnd(midnight time.Time) time.Time {
	if t.EndTimeOfDay != nil {
		return midnight.Add(time.Duration(*t.EndTimeOfDay) * time.Minute)
	}
	return midnight.AddDate(0, 0, 1)
}
