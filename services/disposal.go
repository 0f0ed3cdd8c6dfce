package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/databases"
	"github.com/linesmerrill/malkhana-api/metrics"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
)

// DisposalInput closes out a case
type DisposalInput struct {
	DisposalType        string `json:"disposalType" validate:"required,oneof=RETURNED DESTROYED AUCTIONED COURT_CUSTODY"`
	CourtOrderReference string `json:"courtOrderReference" validate:"required"`
	DateOfDisposal      string `json:"dateOfDisposal" validate:"required"`
	Remarks             string `json:"remarks"`
}

// AmendDisposalInput carries the disposal fields to change
type AmendDisposalInput struct {
	DisposalType        *string `json:"disposalType"`
	CourtOrderReference *string `json:"courtOrderReference"`
	DateOfDisposal      *string `json:"dateOfDisposal"`
	Remarks             *string `json:"remarks"`
}

// toDisposal validates in and converts it into a disposal record
func toDisposal(in DisposalInput) (models.Disposal, error) {
	in = DisposalInput{
		DisposalType:        strings.ToUpper(strings.TrimSpace(in.DisposalType)),
		CourtOrderReference: strings.TrimSpace(in.CourtOrderReference),
		DateOfDisposal:      strings.TrimSpace(in.DateOfDisposal),
		Remarks:             strings.TrimSpace(in.Remarks),
	}
	if err := checkInput(in); err != nil {
		return models.Disposal{}, err
	}
	at, err := parseDate("dateOfDisposal", in.DateOfDisposal)
	if err != nil {
		return models.Disposal{}, err
	}
	return models.Disposal{
		DisposalType:        models.DisposalType(in.DisposalType),
		CourtOrderReference: in.CourtOrderReference,
		DateOfDisposal:      at,
		Remarks:             in.Remarks,
	}, nil
}

// Dispose records the disposal and moves the case to DISPOSED. This happens
// once per case.
func (s *CaseService) Dispose(ctx context.Context, caller *models.Caller, caseID primitive.ObjectID, in DisposalInput) (*models.Case, error) {
	if err := Permit(caller, policy.DisposeCase); err != nil {
		return nil, err
	}
	c, err := s.Cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	if c.Status == models.CaseStatusDisposed {
		return nil, models.ErrAlreadyDisposed
	}

	in.Remarks = plainText(in.Remarks)
	d, err := toDisposal(in)
	if err != nil {
		return nil, err
	}
	now := s.now()
	d.DisposedBy = caller.ID
	d.DisposedAt = now
	d.UpdatedAt = now

	updated, err := s.Cases.SetDisposal(ctx, caseID, d)
	if databases.IsNotFound(err) {
		// another disposal won the race, or the case was deleted meanwhile
		if _, ferr := s.Cases.FindByID(ctx, caseID); databases.IsNotFound(ferr) {
			return nil, models.NewNotFound(msgCaseNotFound)
		}
		return nil, models.ErrAlreadyDisposed
	}
	if err != nil {
		return nil, models.NewInternal(err)
	}
	metrics.RecordCaseDisposed(string(d.DisposalType))
	s.publish(EventCaseDisposed, caller, updated)
	return updated, nil
}

// AmendDisposal merges in into the disposal of a DISPOSED case. Fields left
// out keep their recorded values.
func (s *CaseService) AmendDisposal(ctx context.Context, caller *models.Caller, caseID primitive.ObjectID, in AmendDisposalInput) (*models.Case, error) {
	if err := Permit(caller, policy.AmendDisposal); err != nil {
		return nil, err
	}
	c, err := s.Cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	if c.Status != models.CaseStatusDisposed || c.Disposal == nil {
		return nil, models.ErrNotDisposedYet
	}

	current := *c.Disposal
	merged := DisposalInput{
		DisposalType:        string(current.DisposalType),
		CourtOrderReference: current.CourtOrderReference,
		DateOfDisposal:      current.DateOfDisposal.Format(time.RFC3339),
		Remarks:             current.Remarks,
	}
	mergeString(&merged.DisposalType, in.DisposalType)
	mergeString(&merged.CourtOrderReference, in.CourtOrderReference)
	mergeString(&merged.DateOfDisposal, in.DateOfDisposal)
	mergeString(&merged.Remarks, plainTextPtr(in.Remarks))
	d, err := toDisposal(merged)
	if err != nil {
		return nil, err
	}
	d.DisposedBy = current.DisposedBy
	d.DisposedAt = current.DisposedAt
	d.UpdatedAt = s.now()

	updated, err := s.Cases.ReplaceDisposal(ctx, caseID, d)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	s.publish(EventDisposalAmended, caller, updated)
	return updated, nil
}
