package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/davangere-police/case-registry-api/api"
	"github.com/davangere-police/case-registry-api/config"
	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/models"
)

// Report handles report-related requests
type Report struct {
	DB databases.CaseRecordDatabase
}

// SummaryHandler returns case counts by status within the caller's scope.
// The SP sees the whole district, or one station with ?station=; everyone
// else sees their home station.
func (re Report) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	scope := bson.M{}
	station := ""
	if actor.Role == models.RoleSP {
		station = r.URL.Query().Get("station")
	} else {
		station = actor.Station
	}
	if station != "" {
		scope["case.station"] = station
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	statuses := []string{
		models.StatusUnderInvestigation,
		models.StatusChargeSheeted,
		models.StatusUnderTrial,
		models.StatusDisposed,
	}

	byStatus := map[string]int64{}
	for _, status := range statuses {
		filter := bson.M{"case.status": status}
		for k, v := range scope {
			filter[k] = v
		}
		count, err := re.DB.CountDocuments(ctx, filter)
		if err != nil {
			config.ErrorStatus("failed to count case records", http.StatusInternalServerError, w, err)
			return
		}
		byStatus[status] = count
	}

	total, err := re.DB.CountDocuments(ctx, scope)
	if err != nil {
		config.ErrorStatus("failed to count case records", http.StatusInternalServerError, w, err)
		return
	}

	response := map[string]interface{}{
		"station":  station,
		"total":    total,
		"byStatus": byStatus,
	}

	b, err := json.Marshal(response)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
