package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/davangere-police/case-registry-api/config"
	"github.com/davangere-police/case-registry-api/models"
	"github.com/davangere-police/case-registry-api/reconcile"
)

// BulkUploadHandler reconciles a spreadsheet export against the case record
// store. Each row is matched by (station, crimeNumber): known cases are
// sparsely updated, unknown cases inserted. A bad row is reported in the
// result and never aborts the rest of the batch; the only whole-batch
// failure is an empty upload.
func (c Case) BulkUploadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var rows []models.CaseRecordDetails
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	rec := reconcile.Reconciler{Store: c.Store}
	result, err := rec.Reconcile(r.Context(), actor, rows)
	if err != nil {
		if errors.Is(err, reconcile.ErrEmptyBatch) {
			config.ErrorStatus("empty batch", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to reconcile batch", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("bulk upload reconciled",
		"total", result.Total,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"errors", len(result.Errors),
	)

	b, err := json.Marshal(result)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
