package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gracepoint-labs/checkin-api/internal/models"
)

type attendeeAttendanceRepository interface {
	RecentAttendances(ctx context.Context, personIDs []string, since time.Time) ([]models.RecentAttendance, error)
	OpenScheduleIDs(ctx context.Context, personIDs []string, day time.Time) (map[string][]string, error)
	CurrentAttendances(ctx context.Context, personIDs []string, day time.Time) ([]models.CurrentAttendance, error)
}

type membershipRepository interface {
	MembershipGroupIDs(ctx context.Context, personIDs []string) (map[string][]string, error)
}

type scheduleTemplateRepository interface {
	ScheduleTemplates(ctx context.Context) (map[string]models.ScheduleTemplate, error)
}

// AttendeeService combines people with the base opportunity graph: one
// independent graph clone per attendee plus that person's recent history.
type AttendeeService struct {
	attendance attendeeAttendanceRepository
	people     membershipRepository
	schedules  scheduleTemplateRepository
	logger     *zap.Logger
}

// NewAttendeeService constructs the assembler.
func NewAttendeeService(attendance attendeeAttendanceRepository, people membershipRepository, schedules scheduleTemplateRepository, logger *zap.Logger) *AttendeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendeeService{attendance: attendance, people: people, schedules: schedules, logger: logger}
}

// Assemble wraps each person into an attendee holding a deep clone of the
// base graph and the person's attended visits on or after the lookback date.
// Clones share nothing mutable with the base graph or with each other, so
// downstream filtering of one attendee can never leak into another.
func (s *AttendeeService) Assemble(ctx context.Context, people []models.Person, base *models.OpportunityGraph, config *models.CheckInConfiguration, now time.Time) ([]*models.Attendee, error) {
	if len(people) == 0 {
		return nil, nil
	}

	personIDs := make([]string, 0, len(people))
	for _, person := range people {
		personIDs = append(personIDs, person.ID)
	}

	lookback := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -config.LookbackDays())
	records, err := s.attendance.RecentAttendances(ctx, personIDs, lookback)
	if err != nil {
		return nil, err
	}
	recentByPerson := make(map[string][]models.RecentAttendance)
	for _, record := range records {
		recentByPerson[record.PersonID] = append(recentByPerson[record.PersonID], record)
	}

	memberships, err := s.people.MembershipGroupIDs(ctx, personIDs)
	if err != nil {
		return nil, err
	}

	attendees := make([]*models.Attendee, 0, len(people))
	for _, person := range people {
		person.MembershipGroupIDs = memberships[person.ID]
		attendees = append(attendees, &models.Attendee{
			Person:            person,
			Graph:             base.Clone(),
			RecentAttendances: recentByPerson[person.ID],
		})
	}
	return attendees, nil
}

// OpenScheduleIDs returns the schedules each person already has an open
// attendance against today, keyed by person, for the duplicate filter.
func (s *AttendeeService) OpenScheduleIDs(ctx context.Context, personIDs []string, now time.Time) (map[string]map[string]bool, error) {
	raw, err := s.attendance.OpenScheduleIDs(ctx, personIDs, now)
	if err != nil {
		return nil, err
	}
	result := make(map[string]map[string]bool, len(raw))
	for personID, scheduleIDs := range raw {
		set := make(map[string]bool, len(scheduleIDs))
		for _, id := range scheduleIDs {
			set[id] = true
		}
		result[personID] = set
	}
	return result, nil
}

// GetCurrentlyCheckedIn returns today's open attendance for the given
// people, limited to schedules whose check-in window or run time still
// permits a check-out.
func (s *AttendeeService) GetCurrentlyCheckedIn(ctx context.Context, personIDs []string, now time.Time) ([]models.CurrentAttendance, error) {
	rows, err := s.attendance.CurrentAttendances(ctx, personIDs, now)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	templates, err := s.schedules.ScheduleTemplates(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.CurrentAttendance, 0, len(rows))
	for _, row := range rows {
		template, ok := templates[row.ScheduleID]
		if !ok {
			continue
		}
		if !template.IsActiveForCheckOut(now) {
			continue
		}
		result = append(result, row)
	}
	return result, nil
}
