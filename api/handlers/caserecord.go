package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/davangere-police/case-registry-api/api"
	"github.com/davangere-police/case-registry-api/config"
	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/models"
	"github.com/davangere-police/case-registry-api/reconcile"
)

// Case exported for testing purposes
type Case struct {
	DB    databases.CaseRecordDatabase
	Store reconcile.Store
}

// requireActor pulls the authenticated actor off the request context. The
// auth middleware always sets it; a missing actor means the route was wired
// without the middleware.
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no authenticated actor", http.StatusUnauthorized, w, errors.New("actor missing from request context"))
	}
	return actor, ok
}

// CreateCaseHandler registers a new case record
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var caseRecord models.CaseRecord
	if err := json.NewDecoder(r.Body).Decode(&caseRecord.Details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if caseRecord.Details.Station == "" || caseRecord.Details.CrimeNumber == "" {
		config.ErrorStatus("required fields missing", http.StatusBadRequest, w, errors.New("station and crimeNumber are required"))
		return
	}

	if !reconcile.CanAccess(actor, caseRecord.Details.Station) {
		config.ErrorStatus("cannot access police station", http.StatusForbidden, w, fmt.Errorf("Cannot access police station: %s", caseRecord.Details.Station))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// a natural key collision always means "this is the same case"
	existing, err := c.Store.FindByNaturalKey(ctx, caseRecord.Details.Station, caseRecord.Details.CrimeNumber)
	if err != nil {
		config.ErrorStatus("failed to look up case record", http.StatusInternalServerError, w, err)
		return
	}
	if existing != nil {
		config.ErrorStatus("case already registered", http.StatusConflict, w,
			fmt.Errorf("crime number %s already exists for station %s", caseRecord.Details.CrimeNumber, caseRecord.Details.Station))
		return
	}

	caseRecord.ID = primitive.NewObjectID()
	if caseRecord.Details.Status == "" {
		caseRecord.Details.Status = models.StatusUnderInvestigation
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	caseRecord.Details.CreatedAt = now
	caseRecord.Details.UpdatedAt = now

	_, err = c.DB.InsertOne(ctx, caseRecord)
	if err != nil {
		config.ErrorStatus("failed to create case record", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Case record created successfully",
		"id":      caseRecord.ID.Hex(),
		"status":  caseRecord.Details.Status,
	})
}

// CaseByIDHandler returns a case record by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	zap.S().Debugf("case_id: %v", caseID)

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get case record by ID", http.StatusNotFound, w, err)
		return
	}

	if !reconcile.CanAccess(actor, dbResp.Details.Station) {
		config.ErrorStatus("cannot access police station", http.StatusForbidden, w, fmt.Errorf("Cannot access police station: %s", dbResp.Details.Station))
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateCaseHandler updates a case record's mutable details. Station and
// crime number are identity and silently dropped from the incoming body.
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case record", http.StatusNotFound, w, err)
		return
	}

	if !reconcile.CanAccess(actor, existing.Details.Station) {
		config.ErrorStatus("cannot access police station", http.StatusForbidden, w, fmt.Errorf("Cannot access police station: %s", existing.Details.Station))
		return
	}

	// Convert existing details to a map for merging
	existingDetailsMap := make(map[string]interface{})
	data, _ := json.Marshal(existing.Details)
	json.Unmarshal(data, &existingDetailsMap)

	var updateData map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	delete(updateData, "station")
	delete(updateData, "crimeNumber")
	for key, value := range updateData {
		existingDetailsMap[key] = value
	}
	existingDetailsMap["updatedAt"] = primitive.NewDateTimeFromTime(time.Now())

	updatedDetails := models.CaseRecordDetails{}
	data, _ = json.Marshal(existingDetailsMap)
	json.Unmarshal(data, &updatedDetails)

	err = c.DB.UpdateOne(ctx, bson.M{"_id": cID}, bson.M{"$set": bson.M{"case": updatedDetails}})
	if err != nil {
		config.ErrorStatus("failed to update case record", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Case record updated successfully",
	})
}

// DeleteCaseHandler deletes a case record by its ID. Writers may not delete
// records; only the SHO of the owning station or the SP may.
func (c Case) DeleteCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if actor.Role == models.RoleWriter {
		config.ErrorStatus("insufficient rank to delete case records", http.StatusForbidden, w, errors.New("writers may not delete case records"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case record", http.StatusNotFound, w, err)
		return
	}

	if !reconcile.CanAccess(actor, existing.Details.Station) {
		config.ErrorStatus("cannot access police station", http.StatusForbidden, w, fmt.Errorf("Cannot access police station: %s", existing.Details.Station))
		return
	}

	err = c.DB.DeleteOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to delete case record", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Case record deleted successfully",
	})
}

// CasesHandler returns all case records within the caller's scope. Non-SP
// actors always get their own station; the SP may narrow with ?station=.
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	page := getPage(0, r)

	filter := bson.M{}
	if actor.Role == models.RoleSP {
		if station := r.URL.Query().Get("station"); station != "" {
			filter["case.station"] = station
		}
	} else {
		filter["case.station"] = actor.Station
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindPage(ctx, filter, limit, page+1)
	if err != nil {
		config.ErrorStatus("failed to get case records", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.CaseRecord{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CasesSearchHandler searches case records by crime number prefix, status or
// legal section, within the caller's scope
func (c Case) CasesSearchHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	crimeNumber := r.URL.Query().Get("crimeNumber")
	status := r.URL.Query().Get("status")
	section := r.URL.Query().Get("section")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	page := getPage(0, r)

	query := bson.M{}
	if actor.Role == models.RoleSP {
		if station := r.URL.Query().Get("station"); station != "" {
			query["case.station"] = station
		}
	} else {
		query["case.station"] = actor.Station
	}
	if crimeNumber != "" {
		query["case.crimeNumber"] = bson.M{"$regex": "^" + crimeNumber, "$options": "i"}
	}
	if status != "" {
		query["case.status"] = status
	}
	if section != "" {
		query["case.sections"] = bson.M{"$regex": section, "$options": "i"}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	type findResult struct {
		cases []models.CaseRecord
		err   error
	}
	type countResult struct {
		count int64
		err   error
	}

	findChan := make(chan findResult, 1)
	countChan := make(chan countResult, 1)

	go func() {
		cases, err := c.DB.FindPage(ctx, query, limit, page+1)
		findChan <- findResult{cases: cases, err: err}
	}()

	go func() {
		count, err := c.DB.CountDocuments(ctx, query)
		countChan <- countResult{count: count, err: err}
	}()

	findRes := <-findChan
	countRes := <-countChan

	if findRes.err != nil {
		config.ErrorStatus("failed to search case records", http.StatusNotFound, w, findRes.err)
		return
	}

	dbResp := findRes.cases
	var totalCount int64
	if countRes.err != nil {
		totalCount = int64(len(dbResp))
	} else {
		totalCount = countRes.count
	}

	if len(dbResp) == 0 {
		dbResp = []models.CaseRecord{}
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(limit)))

	response := map[string]interface{}{
		"data":       dbResp,
		"page":       page,
		"limit":      limit,
		"totalCount": totalCount,
		"totalPages": totalPages,
	}

	b, err := json.Marshal(response)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AddHearingHandler appends a hearing to a case's hearing history and
// advances the next hearing date
func (c Case) AddHearingHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var hearing models.Hearing
	if err := json.NewDecoder(r.Body).Decode(&hearing); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case record", http.StatusNotFound, w, err)
		return
	}

	if !reconcile.CanAccess(actor, existing.Details.Station) {
		config.ErrorStatus("cannot access police station", http.StatusForbidden, w, fmt.Errorf("Cannot access police station: %s", existing.Details.Station))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	set := bson.M{
		"case.updatedAt": now,
	}
	if hearing.Date != 0 {
		set["case.nextHearingDate"] = hearing.Date
	}
	// a case with hearings on record is under trial unless already disposed
	if existing.Details.Status != models.StatusDisposed {
		set["case.status"] = models.StatusUnderTrial
	}

	update := bson.M{
		"$push": bson.M{"case.hearings": hearing},
		"$set":  set,
	}

	err = c.DB.UpdateOne(ctx, bson.M{"_id": cID}, update)
	if err != nil {
		config.ErrorStatus("failed to add hearing", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Hearing added successfully",
	})
}

// RecordJudgmentHandler records the trial outcome and disposes the case
func (c Case) RecordJudgmentHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var judgment models.Judgment
	if err := json.NewDecoder(r.Body).Decode(&judgment); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if judgment.Outcome == "" {
		config.ErrorStatus("judgment outcome is required", http.StatusBadRequest, w, errors.New("outcome must be set"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case record", http.StatusNotFound, w, err)
		return
	}

	if !reconcile.CanAccess(actor, existing.Details.Station) {
		config.ErrorStatus("cannot access police station", http.StatusForbidden, w, fmt.Errorf("Cannot access police station: %s", existing.Details.Station))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	update := bson.M{
		"$set": bson.M{
			"case.judgment":  judgment,
			"case.status":    models.StatusDisposed,
			"case.updatedAt": now,
		},
	}

	err = c.DB.UpdateOne(ctx, bson.M{"_id": cID}, update)
	if err != nil {
		config.ErrorStatus("failed to record judgment", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Judgment recorded successfully",
		"status":  models.StatusDisposed,
	})
}

// UpdateAppealHandler sets the higher-court proceeding sub-record on a
// disposed case
func (c Case) UpdateAppealHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var appeal models.AppealProceeding
	if err := json.NewDecoder(r.Body).Decode(&appeal); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case record", http.StatusNotFound, w, err)
		return
	}

	if !reconcile.CanAccess(actor, existing.Details.Station) {
		config.ErrorStatus("cannot access police station", http.StatusForbidden, w, fmt.Errorf("Cannot access police station: %s", existing.Details.Station))
		return
	}

	if existing.Details.Status != models.StatusDisposed {
		config.ErrorStatus("case is not disposed", http.StatusBadRequest, w,
			fmt.Errorf("case status is '%s', expected '%s'", existing.Details.Status, models.StatusDisposed))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	update := bson.M{
		"$set": bson.M{
			"case.appeal":    appeal,
			"case.updatedAt": now,
		},
	}

	err = c.DB.UpdateOne(ctx, bson.M{"_id": cID}, update)
	if err != nil {
		config.ErrorStatus("failed to update appeal", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Appeal updated successfully",
	})
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
