package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/metrics"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
)

// CustodyLogInput is one physical transfer. Only remarks are optional.
type CustodyLogInput struct {
	FromLocation string `json:"fromLocation" validate:"required"`
	FromOfficer  string `json:"fromOfficer" validate:"required"`
	ToLocation   string `json:"toLocation" validate:"required"`
	ToOfficer    string `json:"toOfficer" validate:"required"`
	Purpose      string `json:"purpose" validate:"required"`
	DateTime     string `json:"dateTime" validate:"required"`
	Remarks      string `json:"remarks"`
}

// AppendCustodyLog adds an entry to the end of the case's custody ledger.
// Entries are never edited or removed afterwards.
func (s *CaseService) AppendCustodyLog(ctx context.Context, caller *models.Caller, caseID primitive.ObjectID, in CustodyLogInput) (*models.Case, error) {
	if err := Permit(caller, policy.CreateCustodyLog); err != nil {
		return nil, err
	}
	if _, err := s.Cases.FindByID(ctx, caseID); err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}

	in = CustodyLogInput{
		FromLocation: strings.TrimSpace(in.FromLocation),
		FromOfficer:  strings.TrimSpace(in.FromOfficer),
		ToLocation:   strings.TrimSpace(in.ToLocation),
		ToOfficer:    strings.TrimSpace(in.ToOfficer),
		Purpose:      plainText(in.Purpose),
		DateTime:     strings.TrimSpace(in.DateTime),
		Remarks:      plainText(in.Remarks),
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	at, err := parseDate("dateTime", in.DateTime)
	if err != nil {
		return nil, err
	}

	entry := models.CustodyLog{
		ID:           primitive.NewObjectID(),
		FromLocation: in.FromLocation,
		FromOfficer:  in.FromOfficer,
		ToLocation:   in.ToLocation,
		ToOfficer:    in.ToOfficer,
		Purpose:      in.Purpose,
		DateTime:     at,
		Remarks:      in.Remarks,
		RecordedBy:   caller.ID,
		CreatedAt:    s.now(),
	}
	c, err := s.Cases.PushCustodyLog(ctx, caseID, entry)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	metrics.RecordCustodyLog()
	s.publish(EventCustodyAppended, caller, c)
	return c, nil
}

// ListCustodyLogs returns the ledger in the order entries were appended
func (s *CaseService) ListCustodyLogs(ctx context.Context, caller *models.Caller, caseID primitive.ObjectID) ([]models.CustodyLog, error) {
	if err := Permit(caller, policy.ViewCustodyLogs); err != nil {
		return nil, err
	}
	c, err := s.Cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	if c.CustodyLogs == nil {
		return []models.CustodyLog{}, nil
	}
	return c.CustodyLogs, nil
}
