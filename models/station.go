package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Station holds the structure for the stations collection in mongo
type Station struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details StationDetails     `json:"station" bson:"station"`
	Version int32              `json:"__v" bson:"__v"`
}

// StationDetails holds the structure for the inner station details. Name is
// the value case records carry in their station field and must be unique
// within the district.
type StationDetails struct {
	Name        string `json:"name" bson:"name"`
	District    string `json:"district" bson:"district"`
	Address     string `json:"address" bson:"address"`
	PhoneNumber string `json:"phoneNumber" bson:"phoneNumber"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
