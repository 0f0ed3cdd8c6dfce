package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case holds the structure for the case collection in mongo. Properties,
// custody logs and the disposal record are embedded and live and die with
// the case document.
type Case struct {
	ID                       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PoliceStationName        string             `json:"policeStationName" bson:"policeStationName"`
	InvestigatingOfficerName string             `json:"investigatingOfficerName" bson:"investigatingOfficerName"`
	InvestigatingOfficerID   string             `json:"investigatingOfficerId" bson:"investigatingOfficerId"`
	CrimeNumber              string             `json:"crimeNumber" bson:"crimeNumber"`
	CrimeYear                int                `json:"crimeYear" bson:"crimeYear"`
	DateOfFIR                time.Time          `json:"dateOfFIR" bson:"dateOfFIR"`
	DateOfSeizure            time.Time          `json:"dateOfSeizure" bson:"dateOfSeizure"`
	ActAndLaw                string             `json:"actAndLaw" bson:"actAndLaw"`
	SectionOfLaw             string             `json:"sectionOfLaw" bson:"sectionOfLaw"`
	Properties               []Property         `json:"properties" bson:"properties"`
	CustodyLogs              []CustodyLog       `json:"custodyLogs" bson:"custodyLogs"`
	Disposal                 *Disposal          `json:"disposal,omitempty" bson:"disposal,omitempty"`
	Status                   CaseStatus         `json:"status" bson:"status"`
	CreatedBy                primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt                time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt                time.Time          `json:"updatedAt" bson:"updatedAt"`

	// Creator is filled in on reads and never stored
	Creator *UserSummary `json:"creator,omitempty" bson:"-"`
}

// CaseDetails are the editable descriptive fields of a case
type CaseDetails struct {
	PoliceStationName        string    `bson:"policeStationName"`
	InvestigatingOfficerName string    `bson:"investigatingOfficerName"`
	InvestigatingOfficerID   string    `bson:"investigatingOfficerId"`
	CrimeNumber              string    `bson:"crimeNumber"`
	CrimeYear                int       `bson:"crimeYear"`
	DateOfFIR                time.Time `bson:"dateOfFIR"`
	DateOfSeizure            time.Time `bson:"dateOfSeizure"`
	ActAndLaw                string    `bson:"actAndLaw"`
	SectionOfLaw             string    `bson:"sectionOfLaw"`
}

// Details returns the editable fields of the case
func (c Case) Details() CaseDetails {
	return CaseDetails{
		PoliceStationName:        c.PoliceStationName,
		InvestigatingOfficerName: c.InvestigatingOfficerName,
		InvestigatingOfficerID:   c.InvestigatingOfficerID,
		CrimeNumber:              c.CrimeNumber,
		CrimeYear:                c.CrimeYear,
		DateOfFIR:                c.DateOfFIR,
		DateOfSeizure:            c.DateOfSeizure,
		ActAndLaw:                c.ActAndLaw,
		SectionOfLaw:             c.SectionOfLaw,
	}
}

// ApplyDetails overwrites the editable fields of the case
func (c *Case) ApplyDetails(d CaseDetails) {
	c.PoliceStationName = d.PoliceStationName
	c.InvestigatingOfficerName = d.InvestigatingOfficerName
	c.InvestigatingOfficerID = d.InvestigatingOfficerID
	c.CrimeNumber = d.CrimeNumber
	c.CrimeYear = d.CrimeYear
	c.DateOfFIR = d.DateOfFIR
	c.DateOfSeizure = d.DateOfSeizure
	c.ActAndLaw = d.ActAndLaw
	c.SectionOfLaw = d.SectionOfLaw
}

// FindProperty returns the property with the given id, if present
func (c *Case) FindProperty(id primitive.ObjectID) (*Property, bool) {
	for i := range c.Properties {
		if c.Properties[i].ID == id {
			return &c.Properties[i], true
		}
	}
	return nil, false
}

// Property is a seized item held against a case
type Property struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Category    string             `json:"category" bson:"category"`
	BelongingTo BelongingTo        `json:"belongingTo" bson:"belongingTo"`
	Nature      string             `json:"nature" bson:"nature"`
	Quantity    string             `json:"quantity" bson:"quantity"`
	Location    string             `json:"location" bson:"location"` // rack, room or locker id
	Description string             `json:"description" bson:"description"`
	PhotoURL    string             `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	QRCode      string             `json:"qrCode,omitempty" bson:"qrCode,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CustodyLog records one physical transfer of a case's properties
type CustodyLog struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	FromLocation string             `json:"fromLocation" bson:"fromLocation"`
	FromOfficer  string             `json:"fromOfficer" bson:"fromOfficer"`
	ToLocation   string             `json:"toLocation" bson:"toLocation"`
	ToOfficer    string             `json:"toOfficer" bson:"toOfficer"`
	Purpose      string             `json:"purpose" bson:"purpose"`
	DateTime     time.Time          `json:"dateTime" bson:"dateTime"`
	Remarks      string             `json:"remarks,omitempty" bson:"remarks,omitempty"`
	RecordedBy   primitive.ObjectID `json:"recordedBy" bson:"recordedBy"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// Disposal is the terminal resolution of a case
type Disposal struct {
	DisposalType        DisposalType       `json:"disposalType" bson:"disposalType"`
	CourtOrderReference string             `json:"courtOrderReference" bson:"courtOrderReference"`
	DateOfDisposal      time.Time          `json:"dateOfDisposal" bson:"dateOfDisposal"`
	Remarks             string             `json:"remarks,omitempty" bson:"remarks,omitempty"`
	DisposedBy          primitive.ObjectID `json:"disposedBy" bson:"disposedBy"`
	DisposedAt          time.Time          `json:"disposedAt" bson:"disposedAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CaseFilter narrows case listings
type CaseFilter struct {
	Status CaseStatus
	Search string
}

// CaseStats are the dashboard counters
type CaseStats struct {
	TotalCases    int64 `json:"totalCases"`
	DisposedCases int64 `json:"disposedCases"`
	PendingCases  int64 `json:"pendingCases"`
}

// PropertyQRCode is the response for a property's QR image
type PropertyQRCode struct {
	QRCode      string             `json:"qrCode"`
	PropertyID  primitive.ObjectID `json:"propertyId"`
	CrimeNumber string             `json:"crimeNumber"`
}
