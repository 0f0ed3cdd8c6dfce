package databases

// go generate: mockery --name CaseDatabase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/malkhana-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database. Every
// write to the embedded lists is a single atomic update on the case document.
// Conditional writes that match nothing return mongo.ErrNoDocuments.
type CaseDatabase interface {
	Insert(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error)
	FindByCrimeNumber(ctx context.Context, crimeNumber string) (*models.Case, error)
	FindByPropertyID(ctx context.Context, propertyID primitive.ObjectID) (*models.Case, error)
	Find(ctx context.Context, filter models.CaseFilter) ([]models.Case, error)
	Count(ctx context.Context, status models.CaseStatus) (int64, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, details models.CaseDetails, at time.Time) (*models.Case, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	PushProperty(ctx context.Context, id primitive.ObjectID, p models.Property) (*models.Case, error)
	SetProperty(ctx context.Context, id primitive.ObjectID, p models.Property) (*models.Case, error)
	PullProperty(ctx context.Context, id, propertyID primitive.ObjectID, at time.Time) (*models.Case, error)
	PushCustodyLog(ctx context.Context, id primitive.ObjectID, entry models.CustodyLog) (*models.Case, error)
	SetDisposal(ctx context.Context, id primitive.ObjectID, d models.Disposal) (*models.Case, error)
	ReplaceDisposal(ctx context.Context, id primitive.ObjectID, d models.Disposal) (*models.Case, error)
	SetPropertyQRCode(ctx context.Context, propertyID primitive.ObjectID, qrCode string) (*models.Case, error)
	EnsureIndexes(ctx context.Context) error
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) Insert(ctx context.Context, cs *models.Case) error {
	if cs.ID.IsZero() {
		cs.ID = primitive.NewObjectID()
	}
	if cs.Properties == nil {
		cs.Properties = []models.Property{}
	}
	if cs.CustodyLogs == nil {
		cs.CustodyLogs = []models.CustodyLog{}
	}
	_, err := c.db.Collection(caseName).InsertOne(ctx, cs)
	return err
}

func (c *caseDatabase) findOne(ctx context.Context, filter interface{}) (*models.Case, error) {
	cs := &models.Case{}
	if err := c.db.Collection(caseName).FindOne(ctx, filter).Decode(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *caseDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

func (c *caseDatabase) FindByCrimeNumber(ctx context.Context, crimeNumber string) (*models.Case, error) {
	return c.findOne(ctx, bson.M{"crimeNumber": crimeNumber})
}

func (c *caseDatabase) FindByPropertyID(ctx context.Context, propertyID primitive.ObjectID) (*models.Case, error) {
	return c.findOne(ctx, bson.M{"properties._id": propertyID})
}

// caseListFilter builds the listing query. Search text is matched literally
// and case-insensitively against the three searchable fields.
func caseListFilter(filter models.CaseFilter) bson.M {
	f := bson.M{}
	if filter.Status.IsValid() {
		f["status"] = filter.Status
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		f["$or"] = bson.A{
			bson.M{"crimeNumber": re},
			bson.M{"investigatingOfficerName": re},
			bson.M{"policeStationName": re},
		}
	}
	return f
}

func (c *caseDatabase) Find(ctx context.Context, filter models.CaseFilter) ([]models.Case, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.db.Collection(caseName).Find(ctx, caseListFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	cases := []models.Case{}
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) Count(ctx context.Context, status models.CaseStatus) (int64, error) {
	f := bson.M{}
	if status != "" {
		f["status"] = status
	}
	return c.db.Collection(caseName).CountDocuments(ctx, f)
}

// update applies update to the single case matching filter and returns the
// document as it is after the write.
func (c *caseDatabase) update(ctx context.Context, filter, update interface{}) (*models.Case, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	cs := &models.Case{}
	if err := c.db.Collection(caseName).FindOneAndUpdate(ctx, filter, update, opts).Decode(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *caseDatabase) UpdateDetails(ctx context.Context, id primitive.ObjectID, details models.CaseDetails, at time.Time) (*models.Case, error) {
	set := bson.M{
		"policeStationName":        details.PoliceStationName,
		"investigatingOfficerName": details.InvestigatingOfficerName,
		"investigatingOfficerId":   details.InvestigatingOfficerID,
		"crimeNumber":              details.CrimeNumber,
		"crimeYear":                details.CrimeYear,
		"dateOfFIR":                details.DateOfFIR,
		"dateOfSeizure":            details.DateOfSeizure,
		"actAndLaw":                details.ActAndLaw,
		"sectionOfLaw":             details.SectionOfLaw,
		"updatedAt":                at,
	}
	return c.update(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (c *caseDatabase) Delete(ctx context.Context, id primitive.ObjectID) error {
	n, err := c.db.Collection(caseName).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (c *caseDatabase) PushProperty(ctx context.Context, id primitive.ObjectID, p models.Property) (*models.Case, error) {
	return c.update(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"properties": p},
		"$set":  bson.M{"updatedAt": p.CreatedAt},
	})
}

// SetProperty overwrites the editable fields of one embedded property. The
// cached QR code and creation time are left alone.
func (c *caseDatabase) SetProperty(ctx context.Context, id primitive.ObjectID, p models.Property) (*models.Case, error) {
	filter := bson.M{"_id": id, "properties._id": p.ID}
	set := bson.M{
		"properties.$.category":    p.Category,
		"properties.$.belongingTo": p.BelongingTo,
		"properties.$.nature":      p.Nature,
		"properties.$.quantity":    p.Quantity,
		"properties.$.location":    p.Location,
		"properties.$.description": p.Description,
		"properties.$.photoUrl":    p.PhotoURL,
		"properties.$.updatedAt":   p.UpdatedAt,
		"updatedAt":                p.UpdatedAt,
	}
	return c.update(ctx, filter, bson.M{"$set": set})
}

func (c *caseDatabase) PullProperty(ctx context.Context, id, propertyID primitive.ObjectID, at time.Time) (*models.Case, error) {
	filter := bson.M{"_id": id, "properties._id": propertyID}
	return c.update(ctx, filter, bson.M{
		"$pull": bson.M{"properties": bson.M{"_id": propertyID}},
		"$set":  bson.M{"updatedAt": at},
	})
}

func (c *caseDatabase) PushCustodyLog(ctx context.Context, id primitive.ObjectID, entry models.CustodyLog) (*models.Case, error) {
	return c.update(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"custodyLogs": entry},
		"$set":  bson.M{"updatedAt": entry.CreatedAt},
	})
}

// SetDisposal records the disposal and flips the status in one write. It only
// matches a PENDING case, so two racing disposals cannot both succeed.
func (c *caseDatabase) SetDisposal(ctx context.Context, id primitive.ObjectID, d models.Disposal) (*models.Case, error) {
	filter := bson.M{"_id": id, "status": models.CaseStatusPending}
	return c.update(ctx, filter, bson.M{"$set": bson.M{
		"disposal":  d,
		"status":    models.CaseStatusDisposed,
		"updatedAt": d.UpdatedAt,
	}})
}

func (c *caseDatabase) ReplaceDisposal(ctx context.Context, id primitive.ObjectID, d models.Disposal) (*models.Case, error) {
	filter := bson.M{"_id": id, "status": models.CaseStatusDisposed}
	return c.update(ctx, filter, bson.M{"$set": bson.M{
		"disposal":  d,
		"updatedAt": d.UpdatedAt,
	}})
}

// SetPropertyQRCode stores qrCode on the property only if it has none yet
func (c *caseDatabase) SetPropertyQRCode(ctx context.Context, propertyID primitive.ObjectID, qrCode string) (*models.Case, error) {
	filter := bson.M{"properties": bson.M{"$elemMatch": bson.M{
		"_id": propertyID,
		"$or": bson.A{
			bson.M{"qrCode": bson.M{"$exists": false}},
			bson.M{"qrCode": ""},
		},
	}}}
	return c.update(ctx, filter, bson.M{"$set": bson.M{"properties.$.qrCode": qrCode}})
}

func (c *caseDatabase) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "crimeNumber", Value: 1}},
			Options: options.Index().SetName(crimeNumberIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "properties._id", Value: 1}},
			Options: options.Index().SetName("properties_id"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status"),
		},
	}
	if err := c.db.Collection(caseName).CreateIndexes(ctx, indexes); err != nil {
		return fmt.Errorf("create case indexes: %w", err)
	}
	return nil
}
