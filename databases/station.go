package databases

// go generate: mockery --name StationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davangere-police/case-registry-api/models"
)

const stationName = "stations"

// StationDatabase contains the methods to use with the station database
type StationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Station, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Station, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type stationDatabase struct {
	db DatabaseHelper
}

// NewStationDatabase initializes a new instance of station database with the provided db connection
func NewStationDatabase(db DatabaseHelper) StationDatabase {
	return &stationDatabase{
		db: db,
	}
}

func (s *stationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Station, error) {
	station := &models.Station{}
	err := s.db.Collection(stationName).FindOne(ctx, filter).Decode(&station)
	if err != nil {
		return nil, err
	}
	return station, nil
}

func (s *stationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Station, error) {
	var stations []models.Station
	curr, err := s.db.Collection(stationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &stations)
	if err != nil {
		return nil, err
	}
	return stations, nil
}

func (s *stationDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := s.db.Collection(stationName).InsertOne(ctx, document, opts...)
	return res, err
}

func (s *stationDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return s.db.Collection(stationName).DeleteOne(ctx, filter, opts...)
}
