package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/databases"
	"github.com/linesmerrill/malkhana-api/metrics"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
	"github.com/linesmerrill/malkhana-api/qr"
)

// MinCrimeYear is the earliest crime year accepted on a case
const MinCrimeYear = 1900

// CaseInput is the body of a new case. Dates accept YYYY-MM-DD, RFC3339 or
// datetime-local values.
type CaseInput struct {
	PoliceStationName        string          `json:"policeStationName"`
	InvestigatingOfficerName string          `json:"investigatingOfficerName"`
	InvestigatingOfficerID   string          `json:"investigatingOfficerId"`
	CrimeNumber              string          `json:"crimeNumber"`
	CrimeYear                int             `json:"crimeYear"`
	DateOfFIR                string          `json:"dateOfFIR"`
	DateOfSeizure            string          `json:"dateOfSeizure"`
	ActAndLaw                string          `json:"actAndLaw"`
	SectionOfLaw             string          `json:"sectionOfLaw"`
	Properties               []PropertyInput `json:"properties"`
}

// UpdateCaseInput carries the case details to change. Status, properties,
// custody logs, disposal and creator are not editable here.
type UpdateCaseInput struct {
	PoliceStationName        *string `json:"policeStationName"`
	InvestigatingOfficerName *string `json:"investigatingOfficerName"`
	InvestigatingOfficerID   *string `json:"investigatingOfficerId"`
	CrimeNumber              *string `json:"crimeNumber"`
	CrimeYear                *int    `json:"crimeYear"`
	DateOfFIR                *string `json:"dateOfFIR"`
	DateOfSeizure            *string `json:"dateOfSeizure"`
	ActAndLaw                *string `json:"actAndLaw"`
	SectionOfLaw             *string `json:"sectionOfLaw"`
}

type caseForm struct {
	PoliceStationName        string    `json:"policeStationName" validate:"required"`
	InvestigatingOfficerName string    `json:"investigatingOfficerName" validate:"required"`
	InvestigatingOfficerID   string    `json:"investigatingOfficerId" validate:"required"`
	CrimeNumber              string    `json:"crimeNumber" validate:"required"`
	CrimeYear                int       `json:"crimeYear" validate:"required,gte=1900"`
	DateOfFIR                time.Time `json:"dateOfFIR" validate:"required"`
	DateOfSeizure            time.Time `json:"dateOfSeizure" validate:"required"`
	ActAndLaw                string    `json:"actAndLaw" validate:"required"`
	SectionOfLaw             string    `json:"sectionOfLaw" validate:"required"`
}

func (f caseForm) details() models.CaseDetails {
	return models.CaseDetails{
		PoliceStationName:        f.PoliceStationName,
		InvestigatingOfficerName: f.InvestigatingOfficerName,
		InvestigatingOfficerID:   f.InvestigatingOfficerID,
		CrimeNumber:              f.CrimeNumber,
		CrimeYear:                f.CrimeYear,
		DateOfFIR:                f.DateOfFIR,
		DateOfSeizure:            f.DateOfSeizure,
		ActAndLaw:                f.ActAndLaw,
		SectionOfLaw:             f.SectionOfLaw,
	}
}

// CaseService owns cases and everything embedded in them
type CaseService struct {
	Cases   databases.CaseDatabase
	Users   databases.UserDatabase
	QR      qr.Renderer
	Events  Publisher
	BaseURL string
	Now     func() time.Time
}

func (s *CaseService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// checkCase validates the merged case details and the FIR/seizure ordering
func (s *CaseService) checkCase(f caseForm) error {
	if err := checkInput(f); err != nil {
		return err
	}
	if current := s.now().Year(); f.CrimeYear > current {
		return models.NewValidation(fmt.Sprintf("crimeYear must be %d or earlier", current))
	}
	if f.DateOfSeizure.Before(f.DateOfFIR) {
		return models.NewValidation(msgSeizureBeforeFIR)
	}
	return nil
}

func (s *CaseService) ensureCrimeNumberFree(ctx context.Context, self primitive.ObjectID, crimeNumber string) error {
	existing, err := s.Cases.FindByCrimeNumber(ctx, crimeNumber)
	if err != nil && !databases.IsNotFound(err) {
		return models.NewInternal(err)
	}
	if existing != nil && existing.ID != self {
		return models.NewConflict(msgCrimeNumberTaken)
	}
	return nil
}

// CreateCase registers a new PENDING case owned by caller
func (s *CaseService) CreateCase(ctx context.Context, caller *models.Caller, in CaseInput) (*models.Case, error) {
	if err := Permit(caller, policy.CreateCase); err != nil {
		return nil, err
	}

	form := caseForm{
		PoliceStationName:        strings.TrimSpace(in.PoliceStationName),
		InvestigatingOfficerName: strings.TrimSpace(in.InvestigatingOfficerName),
		InvestigatingOfficerID:   strings.TrimSpace(in.InvestigatingOfficerID),
		CrimeNumber:              strings.TrimSpace(in.CrimeNumber),
		CrimeYear:                in.CrimeYear,
		ActAndLaw:                strings.TrimSpace(in.ActAndLaw),
		SectionOfLaw:             strings.TrimSpace(in.SectionOfLaw),
	}
	var err error
	if form.DateOfFIR, err = parseDate("dateOfFIR", in.DateOfFIR); err != nil {
		return nil, err
	}
	if form.DateOfSeizure, err = parseDate("dateOfSeizure", in.DateOfSeizure); err != nil {
		return nil, err
	}
	if err := s.checkCase(form); err != nil {
		return nil, err
	}

	now := s.now()
	properties := make([]models.Property, 0, len(in.Properties))
	for _, p := range in.Properties {
		prop, err := newProperty(p, now)
		if err != nil {
			return nil, err
		}
		properties = append(properties, prop)
	}

	if err := s.ensureCrimeNumberFree(ctx, primitive.NilObjectID, form.CrimeNumber); err != nil {
		return nil, err
	}

	c := &models.Case{
		Properties:  properties,
		CustodyLogs: []models.CustodyLog{},
		Status:      models.CaseStatusPending,
		CreatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.ApplyDetails(form.details())

	if err := s.Cases.Insert(ctx, c); err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	metrics.RecordCaseCreated()
	s.publish(EventCaseCreated, caller, c)
	return c, nil
}

// GetCase returns one case with its creator filled in
func (s *CaseService) GetCase(ctx context.Context, caller *models.Caller, id primitive.ObjectID) (*models.Case, error) {
	if err := Permit(caller, policy.ViewCase); err != nil {
		return nil, err
	}
	c, err := s.Cases.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	s.populateCreators(ctx, []*models.Case{c})
	return c, nil
}

// ListCases returns cases newest first. An unknown status filter is ignored
// and search matches crime number, officer or station as a literal substring.
func (s *CaseService) ListCases(ctx context.Context, caller *models.Caller, filter models.CaseFilter) ([]models.Case, error) {
	if err := Permit(caller, policy.ViewCase); err != nil {
		return nil, err
	}
	filter.Status = models.CaseStatus(strings.ToUpper(strings.TrimSpace(string(filter.Status))))
	if !filter.Status.IsValid() {
		filter.Status = ""
	}
	cases, err := s.Cases.Find(ctx, filter)
	if err != nil {
		return nil, models.NewInternal(err)
	}
	ptrs := make([]*models.Case, len(cases))
	for i := range cases {
		ptrs[i] = &cases[i]
	}
	s.populateCreators(ctx, ptrs)
	return cases, nil
}

// populateCreators attaches creator summaries. Missing users are left blank
// since a deleted account must not hide its cases.
func (s *CaseService) populateCreators(ctx context.Context, cases []*models.Case) {
	if s.Users == nil || len(cases) == 0 {
		return
	}
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, c := range cases {
		if !c.CreatedBy.IsZero() && !seen[c.CreatedBy] {
			seen[c.CreatedBy] = true
			ids = append(ids, c.CreatedBy)
		}
	}
	users, err := s.Users.FindByIDs(ctx, ids)
	if err != nil {
		return
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, c := range cases {
		if u, ok := byID[c.CreatedBy]; ok {
			c.Creator = u.Summary()
		}
	}
}

// UpdateCase merges in into the case details. Any authenticated user may
// edit any case.
func (s *CaseService) UpdateCase(ctx context.Context, caller *models.Caller, id primitive.ObjectID, in UpdateCaseInput) (*models.Case, error) {
	if err := Permit(caller, policy.UpdateCase); err != nil {
		return nil, err
	}
	c, err := s.Cases.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}

	d := c.Details()
	form := caseForm{
		PoliceStationName:        d.PoliceStationName,
		InvestigatingOfficerName: d.InvestigatingOfficerName,
		InvestigatingOfficerID:   d.InvestigatingOfficerID,
		CrimeNumber:              d.CrimeNumber,
		CrimeYear:                d.CrimeYear,
		DateOfFIR:                d.DateOfFIR,
		DateOfSeizure:            d.DateOfSeizure,
		ActAndLaw:                d.ActAndLaw,
		SectionOfLaw:             d.SectionOfLaw,
	}
	mergeString(&form.PoliceStationName, in.PoliceStationName)
	mergeString(&form.InvestigatingOfficerName, in.InvestigatingOfficerName)
	mergeString(&form.InvestigatingOfficerID, in.InvestigatingOfficerID)
	mergeString(&form.CrimeNumber, in.CrimeNumber)
	mergeString(&form.ActAndLaw, in.ActAndLaw)
	mergeString(&form.SectionOfLaw, in.SectionOfLaw)
	if in.CrimeYear != nil {
		form.CrimeYear = *in.CrimeYear
	}
	if in.DateOfFIR != nil {
		if form.DateOfFIR, err = parseDate("dateOfFIR", *in.DateOfFIR); err != nil {
			return nil, err
		}
	}
	if in.DateOfSeizure != nil {
		if form.DateOfSeizure, err = parseDate("dateOfSeizure", *in.DateOfSeizure); err != nil {
			return nil, err
		}
	}
	if err := s.checkCase(form); err != nil {
		return nil, err
	}
	if form.CrimeNumber != c.CrimeNumber {
		if err := s.ensureCrimeNumberFree(ctx, c.ID, form.CrimeNumber); err != nil {
			return nil, err
		}
	}

	updated, err := s.Cases.UpdateDetails(ctx, id, form.details(), s.now())
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	s.publish(EventCaseUpdated, caller, updated)
	return updated, nil
}

func mergeString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// DeleteCase removes a case with everything embedded in it
func (s *CaseService) DeleteCase(ctx context.Context, caller *models.Caller, id primitive.ObjectID) error {
	if err := Permit(caller, policy.DeleteCase); err != nil {
		return err
	}
	c, err := s.Cases.FindByID(ctx, id)
	if err != nil {
		return storeErr(err, msgCaseNotFound)
	}
	if err := s.Cases.Delete(ctx, id); err != nil {
		return storeErr(err, msgCaseNotFound)
	}
	s.publish(EventCaseDeleted, caller, c)
	return nil
}

// Stats returns the dashboard counters
func (s *CaseService) Stats(ctx context.Context, caller *models.Caller) (*models.CaseStats, error) {
	if err := Permit(caller, policy.ViewStats); err != nil {
		return nil, err
	}
	total, err := s.Cases.Count(ctx, "")
	if err != nil {
		return nil, models.NewInternal(err)
	}
	disposed, err := s.Cases.Count(ctx, models.CaseStatusDisposed)
	if err != nil {
		return nil, models.NewInternal(err)
	}
	pending, err := s.Cases.Count(ctx, models.CaseStatusPending)
	if err != nil {
		return nil, models.NewInternal(err)
	}
	return &models.CaseStats{TotalCases: total, DisposedCases: disposed, PendingCases: pending}, nil
}
