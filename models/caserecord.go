package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Case record status values. New records default to StatusUnderInvestigation.
const (
	StatusUnderInvestigation = "under_investigation"
	StatusChargeSheeted      = "charge_sheeted"
	StatusUnderTrial         = "under_trial"
	StatusDisposed           = "disposed"
)

// CaseRecord holds the structure for the caserecords collection in mongo
type CaseRecord struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseRecordDetails  `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseRecordDetails holds the structure for the inner case record details.
// Station and CrimeNumber together form the natural key of a case: they are
// set once at registration and never altered by updates or bulk uploads.
type CaseRecordDetails struct {
	// Identity (immutable once registered)
	Station     string `json:"station" bson:"station"`
	CrimeNumber string `json:"crimeNumber" bson:"crimeNumber"`

	// Registration details
	CrimeDate            string `json:"crimeDate" bson:"crimeDate"`
	Sections             string `json:"sections" bson:"sections"` // e.g. "IPC 379, 420"
	CaseType             string `json:"caseType" bson:"caseType"`
	ComplainantName      string `json:"complainantName" bson:"complainantName"`
	InvestigatingOfficer string `json:"investigatingOfficer" bson:"investigatingOfficer"`

	// Parties
	Accused   []Accused    `json:"accused" bson:"accused"`
	Witnesses WitnessTally `json:"witnesses" bson:"witnesses"`

	// Trial
	ChargeSheetDate string             `json:"chargeSheetDate" bson:"chargeSheetDate"`
	CourtName       string             `json:"courtName" bson:"courtName"`
	Hearings        []Hearing          `json:"hearings" bson:"hearings"`
	NextHearingDate primitive.DateTime `json:"nextHearingDate" bson:"nextHearingDate"`

	// Outcome
	Judgment Judgment          `json:"judgment" bson:"judgment"`
	Appeal   AppealProceeding  `json:"appeal" bson:"appeal"`
	Status   string            `json:"status" bson:"status"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// Accused represents one entry in the accused roster of a case
type Accused struct {
	Name       string `json:"name" bson:"name"`
	ParentName string `json:"parentName" bson:"parentName"`
	Address    string `json:"address" bson:"address"`
	Status     string `json:"status" bson:"status"` // "absconding", "arrested", "bailed", "convicted"
}

// WitnessTally tracks how many witnesses the case carries and how many have
// been examined in court
type WitnessTally struct {
	Total    int `json:"total" bson:"total"`
	Examined int `json:"examined" bson:"examined"`
}

// Hearing records a single hearing date in the case history
type Hearing struct {
	Date    primitive.DateTime `json:"date" bson:"date"`
	Purpose string             `json:"purpose" bson:"purpose"` // "evidence", "arguments", "judgment"
	Notes   string             `json:"notes" bson:"notes"`
}

// Judgment holds the trial outcome once the case is disposed
type Judgment struct {
	Outcome string             `json:"outcome" bson:"outcome"` // "convicted", "acquitted", "abated"
	Date    primitive.DateTime `json:"date" bson:"date"`
	Court   string             `json:"court" bson:"court"`
	Notes   string             `json:"notes" bson:"notes"`
}

// AppealProceeding is the higher-court sub-record attached to a disposed case
// that went to appeal
type AppealProceeding struct {
	Court        string             `json:"court" bson:"court"`
	AppealNumber string             `json:"appealNumber" bson:"appealNumber"`
	Status       string             `json:"status" bson:"status"` // "filed", "admitted", "disposed"
	FiledAt      primitive.DateTime `json:"filedAt" bson:"filedAt"`
}

// CaseRecordPatch is an explicit partial update: keys are the bson field
// names inside the case details document, values are the replacements. A key
// that is absent from the patch leaves the stored value untouched.
type CaseRecordPatch map[string]interface{}
