package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/davangere-police/case-registry-api/models"
)

// ErrEmptyBatch rejects a bulk call before any row is processed
var ErrEmptyBatch = errors.New("batch must contain at least one case record")

// Store is the record store the reconciler works against. FindByNaturalKey
// returns (nil, nil) when no record matches; lookups must be consistent
// within a batch.
type Store interface {
	FindByNaturalKey(ctx context.Context, station, crimeNumber string) (*models.CaseRecord, error)
	Insert(ctx context.Context, rec models.CaseRecord) (primitive.ObjectID, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, patch models.CaseRecordPatch) error
}

// Reconciler applies a batch of incoming case rows against the store,
// deciding insert vs update per row by the (station, crimeNumber) natural
// key. Rows are processed one at a time in input order: a later row with the
// same natural key as an earlier one must observe the earlier row's write.
type Reconciler struct {
	Store Store
}

// Reconcile runs the batch and returns the row-indexed result. A failed row
// never aborts the remaining rows; the only fatal condition is an empty
// batch. For every result Inserted + Updated + len(Errors) == Total.
func (r Reconciler) Reconcile(ctx context.Context, actor models.Actor, rows []models.CaseRecordDetails) (models.BatchResult, error) {
	if len(rows) == 0 {
		return models.BatchResult{}, ErrEmptyBatch
	}

	res := models.BatchResult{
		Errors: []models.RowError{},
		Total:  len(rows),
	}

	for i, row := range rows {
		rowNum := i + 1

		if row.Station == "" || row.CrimeNumber == "" {
			res.Errors = append(res.Errors, models.RowError{Row: rowNum, Error: "required fields missing"})
			continue
		}

		if !CanAccess(actor, row.Station) {
			zap.S().Debugw("bulk row denied",
				"row", rowNum,
				"station", row.Station,
				"role", actor.Role,
			)
			res.Errors = append(res.Errors, models.RowError{Row: rowNum, Error: fmt.Sprintf("Cannot access police station: %s", row.Station)})
			continue
		}

		existing, err := r.Store.FindByNaturalKey(ctx, row.Station, row.CrimeNumber)
		if err != nil {
			zap.S().Warnw("bulk row lookup failed", "row", rowNum, "error", err)
			res.Errors = append(res.Errors, models.RowError{Row: rowNum, Error: "failed to look up case record"})
			continue
		}

		if existing != nil {
			if err := r.Store.UpdateFields(ctx, existing.ID, BuildPatch(row)); err != nil {
				zap.S().Warnw("bulk row update failed", "row", rowNum, "error", err)
				res.Errors = append(res.Errors, models.RowError{Row: rowNum, Error: "failed to update case record"})
				continue
			}
			res.Updated++
			continue
		}

		rec := models.CaseRecord{
			ID:      primitive.NewObjectID(),
			Details: row,
		}
		if rec.Details.Status == "" {
			rec.Details.Status = models.StatusUnderInvestigation
		}
		now := primitive.NewDateTimeFromTime(time.Now())
		rec.Details.CreatedAt = now
		rec.Details.UpdatedAt = now

		if _, err := r.Store.Insert(ctx, rec); err != nil {
			zap.S().Warnw("bulk row insert failed", "row", rowNum, "error", err)
			res.Errors = append(res.Errors, models.RowError{Row: rowNum, Error: "failed to save case record"})
			continue
		}
		res.Inserted++
	}

	return res, nil
}

// BuildPatch turns an incoming row into an explicit partial update holding
// only the populated fields. A zero value (empty string, empty slice, zero
// struct) is treated as "not provided" and leaves the stored value
// untouched; clearing a field is only possible through the single-record
// update endpoint. Station and crime number are identity and never appear in
// the patch, nor do the record timestamps, which the store maintains.
func BuildPatch(row models.CaseRecordDetails) models.CaseRecordPatch {
	patch := models.CaseRecordPatch{}

	setString := func(key, val string) {
		if val != "" {
			patch[key] = val
		}
	}

	setString("crimeDate", row.CrimeDate)
	setString("sections", row.Sections)
	setString("caseType", row.CaseType)
	setString("complainantName", row.ComplainantName)
	setString("investigatingOfficer", row.InvestigatingOfficer)
	setString("chargeSheetDate", row.ChargeSheetDate)
	setString("courtName", row.CourtName)
	setString("status", row.Status)

	if len(row.Accused) > 0 {
		patch["accused"] = row.Accused
	}
	if row.Witnesses != (models.WitnessTally{}) {
		patch["witnesses"] = row.Witnesses
	}
	if len(row.Hearings) > 0 {
		patch["hearings"] = row.Hearings
	}
	if row.NextHearingDate != 0 {
		patch["nextHearingDate"] = row.NextHearingDate
	}
	if row.Judgment != (models.Judgment{}) {
		patch["judgment"] = row.Judgment
	}
	if row.Appeal != (models.AppealProceeding{}) {
		patch["appeal"] = row.Appeal
	}

	return patch
}
