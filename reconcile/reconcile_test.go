package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/davangere-police/case-registry-api/models"
)

// memStore is an in-memory Store keyed by (station, crimeNumber), with
// injectable failures per operation.
type memStore struct {
	records   map[string]*models.CaseRecord
	patches   map[string][]models.CaseRecordPatch
	findErr   error
	insertErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{
		records: map[string]*models.CaseRecord{},
		patches: map[string][]models.CaseRecordPatch{},
	}
}

func key(station, crimeNumber string) string {
	return station + "|" + crimeNumber
}

func (m *memStore) FindByNaturalKey(_ context.Context, station, crimeNumber string) (*models.CaseRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	rec, ok := m.records[key(station, crimeNumber)]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (m *memStore) Insert(_ context.Context, rec models.CaseRecord) (primitive.ObjectID, error) {
	if m.insertErr != nil {
		return primitive.NilObjectID, m.insertErr
	}
	copied := rec
	m.records[key(rec.Details.Station, rec.Details.CrimeNumber)] = &copied
	return rec.ID, nil
}

func (m *memStore) UpdateFields(_ context.Context, id primitive.ObjectID, patch models.CaseRecordPatch) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for k, rec := range m.records {
		if rec.ID == id {
			m.patches[k] = append(m.patches[k], patch)
			if status, ok := patch["status"].(string); ok {
				rec.Details.Status = status
			}
			return nil
		}
	}
	return errors.New("no record with that id")
}

func writer(station string) models.Actor {
	return models.Actor{Role: models.RoleWriter, Station: station}
}

func TestReconcileEmptyBatch(t *testing.T) {
	r := Reconciler{Store: newMemStore()}

	_, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = r.Reconcile(context.TODO(), writer("Davangere City PS"), []models.CaseRecordDetails{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestReconcileMixedBatchAccessIsolation(t *testing.T) {
	store := newMemStore()
	r := Reconciler{Store: store}

	rows := []models.CaseRecordDetails{
		{Station: "Davangere City PS", CrimeNumber: "CR/1"},
		{Station: "Harihar PS", CrimeNumber: "CR/2"},
	}

	res, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), rows)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
	assert.Equal(t, "Cannot access police station: Harihar PS", res.Errors[0].Error)

	// the denied row must not have touched the store
	assert.Contains(t, store.records, key("Davangere City PS", "CR/1"))
	assert.NotContains(t, store.records, key("Harihar PS", "CR/2"))
}

func TestReconcileReuploadIdempotence(t *testing.T) {
	store := newMemStore()
	r := Reconciler{Store: store}

	rows := []models.CaseRecordDetails{
		{Station: "Davangere City PS", CrimeNumber: "CR/10", Sections: "IPC 379"},
		{Station: "Davangere City PS", CrimeNumber: "CR/11", Sections: "IPC 420"},
		{Station: "Davangere City PS", CrimeNumber: "CR/12", Sections: "IPC 302"},
	}

	first, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), rows)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 0, first.Updated)
	assert.Empty(t, first.Errors)

	second, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Updated)
	assert.Empty(t, second.Errors)
	assert.Equal(t, 3, second.Total)
}

func TestReconcileRequiredFieldsMissing(t *testing.T) {
	store := newMemStore()
	r := Reconciler{Store: store}

	rows := []models.CaseRecordDetails{
		{Station: "Davangere City PS", CrimeNumber: "CR/20"},
		{Station: "Davangere City PS", CrimeNumber: "CR/21"},
		{Station: "Davangere City PS"}, // no crime number
		{Station: "Davangere City PS", CrimeNumber: "CR/23"},
		{Station: "Davangere City PS", CrimeNumber: "CR/24"},
	}

	res, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), rows)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Inserted)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, "required fields missing", res.Errors[0].Error)
	assert.Equal(t, res.Total, res.Inserted+res.Updated+len(res.Errors))
}

func TestReconcileSPCrossesStations(t *testing.T) {
	store := newMemStore()
	r := Reconciler{Store: store}

	rows := []models.CaseRecordDetails{
		{Station: "Davangere City PS", CrimeNumber: "CR/30"},
		{Station: "Harihar PS", CrimeNumber: "CR/31"},
		{Station: "Channagiri PS", CrimeNumber: "CR/32"},
	}

	res, err := r.Reconcile(context.TODO(), models.Actor{Role: models.RoleSP}, rows)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Inserted)
	assert.Empty(t, res.Errors)
}

func TestReconcileInBatchDuplicateKey(t *testing.T) {
	store := newMemStore()
	r := Reconciler{Store: store}

	rows := []models.CaseRecordDetails{
		{Station: "Davangere City PS", CrimeNumber: "CR/40", Sections: "IPC 379"},
		{Station: "Davangere City PS", CrimeNumber: "CR/40", Status: models.StatusChargeSheeted},
	}

	res, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), rows)
	require.NoError(t, err)

	// second occurrence must observe the first row's insert
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Empty(t, res.Errors)
	assert.Equal(t, models.StatusChargeSheeted, store.records[key("Davangere City PS", "CR/40")].Details.Status)
}

func TestReconcileStorageFailures(t *testing.T) {
	t.Run("lookup failure", func(t *testing.T) {
		store := newMemStore()
		store.findErr = errors.New("connection reset")
		r := Reconciler{Store: store}

		res, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), []models.CaseRecordDetails{
			{Station: "Davangere City PS", CrimeNumber: "CR/50"},
		})
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 1, res.Errors[0].Row)
		assert.Equal(t, "failed to look up case record", res.Errors[0].Error)
	})

	t.Run("insert failure", func(t *testing.T) {
		store := newMemStore()
		store.insertErr = errors.New("write concern error")
		r := Reconciler{Store: store}

		res, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), []models.CaseRecordDetails{
			{Station: "Davangere City PS", CrimeNumber: "CR/51"},
		})
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "failed to save case record", res.Errors[0].Error)
	})

	t.Run("update failure does not abort the batch", func(t *testing.T) {
		store := newMemStore()
		r := Reconciler{Store: store}

		_, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), []models.CaseRecordDetails{
			{Station: "Davangere City PS", CrimeNumber: "CR/52"},
		})
		require.NoError(t, err)

		store.updateErr = errors.New("write concern error")
		res, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), []models.CaseRecordDetails{
			{Station: "Davangere City PS", CrimeNumber: "CR/52"},
			{Station: "Davangere City PS", CrimeNumber: "CR/53"},
		})
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 1, res.Errors[0].Row)
		assert.Equal(t, "failed to update case record", res.Errors[0].Error)
		assert.Equal(t, 1, res.Inserted)
		assert.Equal(t, res.Total, res.Inserted+res.Updated+len(res.Errors))
	})
}

func TestReconcileInsertDefaults(t *testing.T) {
	store := newMemStore()
	r := Reconciler{Store: store}

	_, err := r.Reconcile(context.TODO(), writer("Davangere City PS"), []models.CaseRecordDetails{
		{Station: "Davangere City PS", CrimeNumber: "CR/60"},
	})
	require.NoError(t, err)

	rec := store.records[key("Davangere City PS", "CR/60")]
	require.NotNil(t, rec)
	assert.False(t, rec.ID.IsZero())
	assert.Equal(t, models.StatusUnderInvestigation, rec.Details.Status)
	assert.NotZero(t, rec.Details.CreatedAt)
	assert.NotZero(t, rec.Details.UpdatedAt)
}

func TestBuildPatchSparseMerge(t *testing.T) {
	patch := BuildPatch(models.CaseRecordDetails{
		Station:         "Davangere City PS",
		CrimeNumber:     "CR/70",
		Sections:        "IPC 379, 420",
		Status:          models.StatusUnderTrial,
		NextHearingDate: primitive.DateTime(1700000000000),
	})

	assert.Equal(t, models.CaseRecordPatch{
		"sections":        "IPC 379, 420",
		"status":          models.StatusUnderTrial,
		"nextHearingDate": primitive.DateTime(1700000000000),
	}, patch)
}

func TestBuildPatchOmitsIdentityAndZeroValues(t *testing.T) {
	patch := BuildPatch(models.CaseRecordDetails{
		Station:     "Davangere City PS",
		CrimeNumber: "CR/71",
	})
	assert.Empty(t, patch)

	patch = BuildPatch(models.CaseRecordDetails{
		Station:     "Davangere City PS",
		CrimeNumber: "CR/71",
		Accused:     []models.Accused{{Name: "N Kumar", Status: "arrested"}},
		Witnesses:   models.WitnessTally{Total: 4, Examined: 1},
		Judgment:    models.Judgment{Outcome: "convicted"},
	})
	assert.NotContains(t, patch, "station")
	assert.NotContains(t, patch, "crimeNumber")
	assert.NotContains(t, patch, "createdAt")
	assert.NotContains(t, patch, "updatedAt")
	assert.Contains(t, patch, "accused")
	assert.Contains(t, patch, "witnesses")
	assert.Contains(t, patch, "judgment")
}
