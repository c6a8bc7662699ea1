package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/gracepoint-labs/checkin-api/internal/models"
	"github.com/gracepoint-labs/checkin-api/pkg/config"
	appErrors "github.com/gracepoint-labs/checkin-api/pkg/errors"
	"github.com/gracepoint-labs/checkin-api/pkg/export"
)

type currentAttendanceProvider interface {
	CurrentAttendance(ctx context.Context, personIDs []string, kioskID string) ([]models.CurrentAttendance, error)
}

// LabelService renders printable name tags and roster exports for people
// currently checked in.
type LabelService struct {
	checkIn currentAttendanceProvider
	labels  *export.LabelExporter
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	config  config.LabelsConfig
	logger  *zap.Logger
}

// NewLabelService constructs a LabelService.
func NewLabelService(checkIn currentAttendanceProvider, labels *export.LabelExporter, csv *export.CSVExporter, cfg config.LabelsConfig, logger *zap.Logger) *LabelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelService{checkIn: checkIn, labels: labels, csv: csv, pdf: export.NewPDFExporter(), config: cfg, logger: logger}
}

// RenderLabels produces one name tag per open attendance of the given people.
// All tags printed in one batch share a security code so a family can match
// child tags against the parent receipt.
func (s *LabelService) RenderLabels(ctx context.Context, personIDs []string, kioskID string) ([]byte, error) {
	if !s.config.Enabled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "label printing is disabled")
	}
	rows, err := s.checkIn.CurrentAttendance(ctx, personIDs, kioskID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, appErrors.CheckInMessage("no one is currently checked in")
	}

	code, err := securityCode()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate security code")
	}

	labels := make([]export.Label, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, export.Label{
			PersonName:   row.PersonName,
			GroupName:    row.GroupName,
			LocationName: row.LocationName,
			ScheduleName: row.ScheduleName,
			SecurityCode: code,
			Organization: s.config.Organization,
		})
	}
	return s.labels.Render(labels)
}

// RosterCSV exports the open attendance of the given people as CSV.
func (s *LabelService) RosterCSV(ctx context.Context, personIDs []string, kioskID string) ([]byte, error) {
	dataset, err := s.rosterDataset(ctx, personIDs, kioskID)
	if err != nil {
		return nil, err
	}
	return s.csv.Render(dataset)
}

// RosterPDF exports the open attendance of the given people as a tabular PDF.
func (s *LabelService) RosterPDF(ctx context.Context, personIDs []string, kioskID string) ([]byte, error) {
	dataset, err := s.rosterDataset(ctx, personIDs, kioskID)
	if err != nil {
		return nil, err
	}
	return s.pdf.Render(dataset, "Check-In Roster")
}

func (s *LabelService) rosterDataset(ctx context.Context, personIDs []string, kioskID string) (export.Dataset, error) {
	rows, err := s.checkIn.CurrentAttendance(ctx, personIDs, kioskID)
	if err != nil {
		return export.Dataset{}, err
	}

	dataset := export.Dataset{
		Headers: []string{"Person", "Group", "Location", "Schedule", "Checked In At"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Person":        row.PersonName,
			"Group":         row.GroupName,
			"Location":      row.LocationName,
			"Schedule":      row.ScheduleName,
			"Checked In At": row.StartDateTime.Format("2006-01-02 15:04"),
		})
	}
	return dataset, nil
}

const codeAlphabet = "BCDFGHJKMNPQRSTVWXZ23456789"

func securityCode() (string, error) {
	code := make([]byte, 4)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("draw code character: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
