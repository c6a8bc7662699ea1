package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 8, hour, minute, 0, 0, time.UTC)
}

func TestCheckInWindowBoundaries(t *testing.T) {
	// 9:00 service, doors open 30 minutes early, check-in closes 20 minutes in.
	tpl := ScheduleTemplate{
		Active:             true,
		StartTimeOfDay:     540,
		EndTimeOfDay:       intPtr(630),
		CheckInStartOffset: 30,
		CheckInEndOffset:   intPtr(20),
	}

	assert.False(t, tpl.IsCheckInOpen(at(8, 29)))
	assert.True(t, tpl.IsCheckInOpen(at(8, 30)), "open boundary is inclusive")
	assert.True(t, tpl.IsCheckInOpen(at(9, 19)))
	assert.False(t, tpl.IsCheckInOpen(at(9, 20)), "close boundary is exclusive")
}

func TestCheckInWindowDefaultsToScheduleEnd(t *testing.T) {
	tpl := ScheduleTemplate{
		Active:             true,
		StartTimeOfDay:     540,
		EndTimeOfDay:       intPtr(630),
		CheckInStartOffset: 15,
	}

	assert.True(t, tpl.IsCheckInOpen(at(10, 29)))
	assert.False(t, tpl.IsCheckInOpen(at(10, 30)))
}

func TestCheckInWindowClampedToEndOfDay(t *testing.T) {
	// 11 PM start with a 3 hour close offset would cross midnight.
	tpl := ScheduleTemplate{
		Active:             true,
		StartTimeOfDay:     1380,
		CheckInStartOffset: 30,
		CheckInEndOffset:   intPtr(180),
	}

	_, close := tpl.CheckInWindow(at(23, 0))
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), close)
}

func TestInactiveScheduleNeverOpens(t *testing.T) {
	tpl := ScheduleTemplate{StartTimeOfDay: 540, CheckInStartOffset: 600}
	assert.False(t, tpl.IsCheckInOpen(at(9, 0)))
	assert.False(t, tpl.IsActiveForCheckOut(at(9, 0)))
}

func TestIsActiveForCheckOutWhileScheduleRuns(t *testing.T) {
	tpl := ScheduleTemplate{
		Active:             true,
		StartTimeOfDay:     540,
		EndTimeOfDay:       intPtr(630),
		CheckInStartOffset: 30,
		CheckInEndOffset:   intPtr(20),
	}

	// Check-in window closed at 9:20 but the service runs until 10:30.
	assert.True(t, tpl.IsActiveForCheckOut(at(10, 0)))
	assert.False(t, tpl.IsActiveForCheckOut(at(10, 30)))
	// Before the window opens nothing is active.
	assert.False(t, tpl.IsActiveForCheckOut(at(8, 0)))
}

func TestDateRangeContains(t *testing.T) {
	window := DateRange{
		Start: time.Date(2026, time.December, 24, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.December, 26, 6, 0, 0, 0, time.UTC),
	}

	assert.False(t, window.Contains(time.Date(2026, time.December, 23, 23, 0, 0, 0, time.UTC)))
	assert.True(t, window.Contains(time.Date(2026, time.December, 24, 1, 0, 0, 0, time.UTC)), "time of day is ignored")
	assert.True(t, window.Contains(time.Date(2026, time.December, 26, 23, 0, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2026, time.December, 27, 0, 0, 0, 0, time.UTC)))
}

func TestAreaTemplateExcludedOn(t *testing.T) {
	tpl := AreaTemplate{Exclusions: []DateRange{{
		Start: time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC),
	}}}

	assert.True(t, tpl.ExcludedOn(time.Date(2026, time.July, 4, 9, 30, 0, 0, time.UTC)))
	assert.False(t, tpl.ExcludedOn(time.Date(2026, time.July, 5, 9, 30, 0, 0, time.UTC)))
}
