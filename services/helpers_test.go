package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/malkhana-api/api/testhelpers"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
)

var fixedNow = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

func init() {
	services.PasswordCost = bcrypt.MinCost
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []services.CaseEvent
}

func (p *recordingPublisher) Publish(e services.CaseEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

type countingRenderer struct {
	calls int
}

func (r *countingRenderer) Render(content string) (string, error) {
	r.calls++
	return "data:image/png;base64," + content, nil
}

type fixture struct {
	users      *testhelpers.UserStore
	cases      *testhelpers.CaseStore
	events     *recordingPublisher
	renderer   *countingRenderer
	userSvc    *services.UserService
	caseSvc    *services.CaseService
	superAdmin *models.Caller
	admin      *models.Caller
	officer    *models.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    testhelpers.NewUserStore(),
		cases:    testhelpers.NewCaseStore(),
		events:   &recordingPublisher{},
		renderer: &countingRenderer{},
	}
	now := func() time.Time { return fixedNow }
	f.userSvc = &services.UserService{Users: f.users, Now: now}
	f.caseSvc = &services.CaseService{
		Cases:   f.cases,
		Users:   f.users,
		QR:      f.renderer,
		Events:  f.events,
		BaseURL: "https://malkhana.example.com",
		Now:     now,
	}

	ctx := context.Background()
	sa, err := f.userSvc.CreateUser(ctx, nil, userInput("root", "SA-1", ""))
	require.NoError(t, err)
	f.superAdmin = models.CallerFromUser(*sa)

	admin, err := f.userSvc.CreateUser(ctx, f.superAdmin, userInput("asha", "AD-1", models.RoleAdmin))
	require.NoError(t, err)
	f.admin = models.CallerFromUser(*admin)

	officer, err := f.userSvc.CreateUser(ctx, f.admin, userInput("ravi", "OF-1", models.RoleOfficer))
	require.NoError(t, err)
	f.officer = models.CallerFromUser(*officer)
	return f
}

func userInput(username, badge string, role models.Role) services.CreateUserInput {
	return services.CreateUserInput{
		Username:          username,
		Password:          "secret123",
		FullName:          "Officer " + username,
		PoliceStationName: "Central",
		BadgeID:           badge,
		Role:              role,
	}
}

func caseInput(crimeNumber string) services.CaseInput {
	return services.CaseInput{
		PoliceStationName:        "Central",
		InvestigatingOfficerName: "Inspector Rao",
		InvestigatingOfficerID:   "IO-7",
		CrimeNumber:              crimeNumber,
		CrimeYear:                2025,
		DateOfFIR:                "2025-01-10",
		DateOfSeizure:            "2025-01-12",
		ActAndLaw:                "IPC",
		SectionOfLaw:             "379",
	}
}

func propertyInput() services.PropertyInput {
	return services.PropertyInput{
		Category:    "Electronics",
		BelongingTo: "ACCUSED",
		Nature:      "Mobile phone",
		Quantity:    "1",
		Location:    "Rack A-3",
		Description: "Black handset",
	}
}

func custodyInput(to string) services.CustodyLogInput {
	return services.CustodyLogInput{
		FromLocation: "Rack A-3",
		FromOfficer:  "HC Kumar",
		ToLocation:   to,
		ToOfficer:    "SI Mehta",
		Purpose:      "Forensic examination",
		DateTime:     "2025-02-01T09:30",
	}
}

func disposalInput(kind string) services.DisposalInput {
	return services.DisposalInput{
		DisposalType:        kind,
		CourtOrderReference: "CO/2025/42",
		DateOfDisposal:      "2025-05-20",
	}
}

func strPtr(s string) *string { return &s }

func requireKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, models.KindOf(err), "unexpected error: %v", err)
}

func messageOf(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}
