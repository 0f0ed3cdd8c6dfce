package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
)

// PropertyInput describes a seized item
type PropertyInput struct {
	Category    string `json:"category" validate:"required"`
	BelongingTo string `json:"belongingTo" validate:"required,oneof=ACCUSED COMPLAINANT UNKNOWN"`
	Nature      string `json:"nature" validate:"required"`
	Quantity    string `json:"quantity" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description" validate:"required"`
	PhotoURL    string `json:"photoUrl" validate:"omitempty,http_url"`
}

// UpdatePropertyInput carries the property fields to change. The QR code is
// never writable by clients.
type UpdatePropertyInput struct {
	Category    *string `json:"category"`
	BelongingTo *string `json:"belongingTo"`
	Nature      *string `json:"nature"`
	Quantity    *string `json:"quantity"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	PhotoURL    *string `json:"photoUrl"`
}

func (in PropertyInput) normalize() PropertyInput {
	return PropertyInput{
		Category:    strings.TrimSpace(in.Category),
		BelongingTo: strings.ToUpper(strings.TrimSpace(in.BelongingTo)),
		Nature:      strings.TrimSpace(in.Nature),
		Quantity:    strings.TrimSpace(in.Quantity),
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
	}
}

func newProperty(in PropertyInput, now time.Time) (models.Property, error) {
	in.Description = plainText(in.Description)
	in = in.normalize()
	if err := checkInput(in); err != nil {
		return models.Property{}, err
	}
	return models.Property{
		ID:          primitive.NewObjectID(),
		Category:    in.Category,
		BelongingTo: models.BelongingTo(in.BelongingTo),
		Nature:      in.Nature,
		Quantity:    in.Quantity,
		Location:    in.Location,
		Description: in.Description,
		PhotoURL:    in.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddProperty appends a property to a case
func (s *CaseService) AddProperty(ctx context.Context, caller *models.Caller, caseID primitive.ObjectID, in PropertyInput) (*models.Case, error) {
	if err := Permit(caller, policy.CreateProperty); err != nil {
		return nil, err
	}
	if _, err := s.Cases.FindByID(ctx, caseID); err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	p, err := newProperty(in, s.now())
	if err != nil {
		return nil, err
	}
	c, err := s.Cases.PushProperty(ctx, caseID, p)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	s.publish(EventPropertyAdded, caller, c)
	return c, nil
}

// UpdateProperty merges in into one property of a case
func (s *CaseService) UpdateProperty(ctx context.Context, caller *models.Caller, caseID, propertyID primitive.ObjectID, in UpdatePropertyInput) (*models.Case, error) {
	if err := Permit(caller, policy.UpdateProperty); err != nil {
		return nil, err
	}
	c, err := s.Cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	existing, ok := c.FindProperty(propertyID)
	if !ok {
		return nil, models.NewNotFound(msgPropertyNotFound)
	}

	merged := PropertyInput{
		Category:    existing.Category,
		BelongingTo: string(existing.BelongingTo),
		Nature:      existing.Nature,
		Quantity:    existing.Quantity,
		Location:    existing.Location,
		Description: existing.Description,
		PhotoURL:    existing.PhotoURL,
	}
	mergeString(&merged.Category, in.Category)
	mergeString(&merged.BelongingTo, in.BelongingTo)
	mergeString(&merged.Nature, in.Nature)
	mergeString(&merged.Quantity, in.Quantity)
	mergeString(&merged.Location, in.Location)
	mergeString(&merged.Description, plainTextPtr(in.Description))
	mergeString(&merged.PhotoURL, in.PhotoURL)
	merged = merged.normalize()
	if err := checkInput(merged); err != nil {
		return nil, err
	}

	p := *existing
	p.Category = merged.Category
	p.BelongingTo = models.BelongingTo(merged.BelongingTo)
	p.Nature = merged.Nature
	p.Quantity = merged.Quantity
	p.Location = merged.Location
	p.Description = merged.Description
	p.PhotoURL = merged.PhotoURL
	p.UpdatedAt = s.now()

	updated, err := s.Cases.SetProperty(ctx, caseID, p)
	if err != nil {
		// the property was removed between the read and the write
		return nil, storeErr(err, msgPropertyNotFound)
	}
	s.publish(EventPropertyUpdated, caller, updated)
	return updated, nil
}

// DeleteProperty removes a property from a case for good
func (s *CaseService) DeleteProperty(ctx context.Context, caller *models.Caller, caseID, propertyID primitive.ObjectID) (*models.Case, error) {
	if err := Permit(caller, policy.DeleteProperty); err != nil {
		return nil, err
	}
	c, err := s.Cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, storeErr(err, msgCaseNotFound)
	}
	if _, ok := c.FindProperty(propertyID); !ok {
		return nil, models.NewNotFound(msgPropertyNotFound)
	}
	updated, err := s.Cases.PullProperty(ctx, caseID, propertyID, s.now())
	if err != nil {
		return nil, storeErr(err, msgPropertyNotFound)
	}
	s.publish(EventPropertyRemoved, caller, updated)
	return updated, nil
}
