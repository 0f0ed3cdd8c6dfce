package services

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/malkhana-api/databases"
	"github.com/linesmerrill/malkhana-api/metrics"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
)

// qrPayload is what a scanned property label decodes to. Field order is fixed
// so the rendered image only depends on the values.
type qrPayload struct {
	PropertyID  string `json:"propertyId"`
	CaseID      string `json:"caseId"`
	CrimeNumber string `json:"crimeNumber"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	URL         string `json:"url"`
}

// CaseURL is the dashboard link printed into property labels
func (s *CaseService) CaseURL(caseID primitive.ObjectID) string {
	return s.BaseURL + "/dashboard/cases/" + caseID.Hex()
}

// GetOrCreateQRCode returns the label image of a property. The image is
// rendered the first time it is asked for and served unchanged afterwards,
// even when the property is later edited.
func (s *CaseService) GetOrCreateQRCode(ctx context.Context, caller *models.Caller, propertyID primitive.ObjectID) (*models.PropertyQRCode, error) {
	if err := Permit(caller, policy.GenerateQRCode); err != nil {
		return nil, err
	}
	c, err := s.Cases.FindByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, storeErr(err, msgPropertyNotFound)
	}
	p, ok := c.FindProperty(propertyID)
	if !ok {
		return nil, models.NewNotFound(msgPropertyNotFound)
	}
	if p.QRCode != "" {
		return &models.PropertyQRCode{QRCode: p.QRCode, PropertyID: p.ID, CrimeNumber: c.CrimeNumber}, nil
	}

	payload, err := json.Marshal(qrPayload{
		PropertyID:  p.ID.Hex(),
		CaseID:      c.ID.Hex(),
		CrimeNumber: c.CrimeNumber,
		Category:    p.Category,
		Location:    p.Location,
		URL:         s.CaseURL(c.ID),
	})
	if err != nil {
		return nil, models.NewInternal(err)
	}
	image, err := s.QR.Render(string(payload))
	if err != nil {
		return nil, models.NewInternal(err)
	}

	updated, err := s.Cases.SetPropertyQRCode(ctx, propertyID, image)
	switch {
	case databases.IsNotFound(err):
		// someone else stored a code first, or the property is gone
		updated, err = s.Cases.FindByPropertyID(ctx, propertyID)
		if err != nil {
			return nil, storeErr(err, msgPropertyNotFound)
		}
	case err != nil:
		return nil, models.NewInternal(err)
	default:
		metrics.RecordQRCodeGenerated()
	}

	stored, ok := updated.FindProperty(propertyID)
	if !ok || stored.QRCode == "" {
		return nil, models.NewNotFound(msgPropertyNotFound)
	}
	return &models.PropertyQRCode{QRCode: stored.QRCode, PropertyID: stored.ID, CrimeNumber: updated.CrimeNumber}, nil
}
