package services

import (
	"time"

	"github.com/linesmerrill/malkhana-api/models"
)

// Event names published on the activity feed
const (
	EventCaseCreated     = "case.created"
	EventCaseUpdated     = "case.updated"
	EventCaseDeleted     = "case.deleted"
	EventPropertyAdded   = "property.added"
	EventPropertyUpdated = "property.updated"
	EventPropertyRemoved = "property.removed"
	EventCustodyAppended = "custody.appended"
	EventCaseDisposed    = "disposal.created"
	EventDisposalAmended = "disposal.amended"
)

// CaseEvent is broadcast after a case changes
type CaseEvent struct {
	Event       string    `json:"event"`
	CaseID      string    `json:"caseId"`
	CrimeNumber string    `json:"crimeNumber"`
	Actor       string    `json:"actor"`
	At          time.Time `json:"at"`
}

// Publisher receives case events. Implementations must not block.
type Publisher interface {
	Publish(CaseEvent)
}

func (s *CaseService) publish(event string, caller *models.Caller, c *models.Case) {
	if s.Events == nil || c == nil {
		return
	}
	s.Events.Publish(CaseEvent{
		Event:       event,
		CaseID:      c.ID.Hex(),
		CrimeNumber: c.CrimeNumber,
		Actor:       caller.Username,
		At:          s.now(),
	})
}
