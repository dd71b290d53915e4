package databases

// go generate: mockery --name CaseRecordDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davangere-police/case-registry-api/models"
	"github.com/davangere-police/case-registry-api/reconcile"
)

const caseRecordName = "caserecords"

// CaseRecordDatabase contains the methods to use with the case record database
type CaseRecordDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CaseRecord, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaseRecord, error)
	FindPage(ctx context.Context, filter interface{}, limit, page int) ([]models.CaseRecord, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type caseRecordDatabase struct {
	db DatabaseHelper
}

// NewCaseRecordDatabase initializes a new instance of case record database with the provided db connection
func NewCaseRecordDatabase(db DatabaseHelper) CaseRecordDatabase {
	return &caseRecordDatabase{
		db: db,
	}
}

func (c *caseRecordDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CaseRecord, error) {
	caseRecord := &models.CaseRecord{}
	err := c.db.Collection(caseRecordName).FindOne(ctx, filter).Decode(&caseRecord)
	if err != nil {
		return nil, err
	}
	return caseRecord, nil
}

func (c *caseRecordDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaseRecord, error) {
	var caseRecords []models.CaseRecord
	curr, err := c.db.Collection(caseRecordName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &caseRecords)
	if err != nil {
		return nil, err
	}
	return caseRecords, nil
}

// FindPage returns one page of case records, newest first. Pages are
// 1-based; a page below 1 is treated as the first page.
func (c *caseRecordDatabase) FindPage(ctx context.Context, filter interface{}, limit, page int) ([]models.CaseRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	opts.SetSort(bson.M{"_id": -1})
	return c.Find(ctx, filter, opts)
}

func (c *caseRecordDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(caseRecordName).CountDocuments(ctx, filter, opts...)
}

func (c *caseRecordDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(caseRecordName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *caseRecordDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) error {
	return c.db.Collection(caseRecordName).UpdateOne(ctx, filter, update, opts...)
}

func (c *caseRecordDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return c.db.Collection(caseRecordName).DeleteOne(ctx, filter, opts...)
}

type caseStore struct {
	db CaseRecordDatabase
}

// NewCaseStore wraps a case record database as the store the bulk reconciler
// works against
func NewCaseStore(db CaseRecordDatabase) reconcile.Store {
	return &caseStore{db: db}
}

func (s *caseStore) FindByNaturalKey(ctx context.Context, station, crimeNumber string) (*models.CaseRecord, error) {
	rec, err := s.db.FindOne(ctx, bson.M{
		"case.station":     station,
		"case.crimeNumber": crimeNumber,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (s *caseStore) Insert(ctx context.Context, rec models.CaseRecord) (primitive.ObjectID, error) {
	_, err := s.db.InsertOne(ctx, rec)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return rec.ID, nil
}

func (s *caseStore) UpdateFields(ctx context.Context, id primitive.ObjectID, patch models.CaseRecordPatch) error {
	set := bson.M{}
	for field, value := range patch {
		set["case."+field] = value
	}
	set["case.updatedAt"] = primitive.NewDateTimeFromTime(time.Now())
	return s.db.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}
