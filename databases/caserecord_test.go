package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/davangere-police/case-registry-api/config"
	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/databases/mocks"
	"github.com/davangere-police/case-registry-api/models"
)

func TestNewCaseRecordDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	caseDB := databases.NewCaseRecordDatabase(db)

	assert.NotEmpty(t, caseDB)
}

func TestCaseRecordDatabase_FindOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			arg := args.Get(0).(**models.CaseRecord)
			(*arg).Details.Station = "Davangere City PS"
			(*arg).Details.CrimeNumber = "CR/1"
		})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "caserecords").
		Return(collectionHelper)

	caseDB := databases.NewCaseRecordDatabase(dbHelper)

	caseRecord, err := caseDB.FindOne(context.Background(), bson.M{"error": true})
	assert.Empty(t, caseRecord)
	assert.EqualError(t, err, "mocked-error")

	caseRecord, err = caseDB.FindOne(context.Background(), bson.M{"error": false})
	assert.Equal(t, "Davangere City PS", caseRecord.Details.Station)
	assert.Equal(t, "CR/1", caseRecord.Details.CrimeNumber)
	assert.NoError(t, err)
}

func TestCaseStore_FindByNaturalKeyAbsent(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOne", mock.Anything, bson.M{
		"case.station":     "Davangere City PS",
		"case.crimeNumber": "CR/404",
	}).Return(srHelper)
	dbHelper.On("Collection", "caserecords").Return(collectionHelper)

	store := databases.NewCaseStore(databases.NewCaseRecordDatabase(dbHelper))

	rec, err := store.FindByNaturalKey(context.Background(), "Davangere City PS", "CR/404")
	assert.Nil(t, rec)
	assert.NoError(t, err)
}

func TestCaseStore_FindByNaturalKeyError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(errors.New("connection reset"))
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(srHelper)
	dbHelper.On("Collection", "caserecords").Return(collectionHelper)

	store := databases.NewCaseStore(databases.NewCaseRecordDatabase(dbHelper))

	rec, err := store.FindByNaturalKey(context.Background(), "Davangere City PS", "CR/1")
	assert.Nil(t, rec)
	assert.EqualError(t, err, "connection reset")
}

func TestCaseStore_UpdateFieldsPrefixesPatch(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	id := primitive.NewObjectID()
	var gotUpdate interface{}

	collectionHelper.On("UpdateOne", mock.Anything, bson.M{"_id": id}, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			gotUpdate = args.Get(2)
		})
	dbHelper.On("Collection", "caserecords").Return(collectionHelper)

	store := databases.NewCaseStore(databases.NewCaseRecordDatabase(dbHelper))

	err := store.UpdateFields(context.Background(), id, models.CaseRecordPatch{
		"sections": "IPC 379, 420",
		"status":   models.StatusChargeSheeted,
	})
	require.NoError(t, err)

	update, ok := gotUpdate.(bson.M)
	require.True(t, ok)
	set, ok := update["$set"].(bson.M)
	require.True(t, ok)

	assert.Equal(t, "IPC 379, 420", set["case.sections"])
	assert.Equal(t, models.StatusChargeSheeted, set["case.status"])
	assert.Contains(t, set, "case.updatedAt")
	assert.NotContains(t, set, "case.station")
	assert.NotContains(t, set, "case.crimeNumber")
}
