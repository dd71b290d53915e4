package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/davangere-police/case-registry-api/api"
	"github.com/davangere-police/case-registry-api/config"
	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/models"
)

// Station exported for testing purposes
type Station struct {
	DB databases.StationDatabase
}

// CreateStationHandler registers a new police station. SP only.
func (s Station) CreateStationHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != models.RoleSP {
		config.ErrorStatus("insufficient rank to manage stations", http.StatusForbidden, w, errors.New("station management is SP only"))
		return
	}

	var station models.Station
	if err := json.NewDecoder(r.Body).Decode(&station.Details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if station.Details.Name == "" {
		config.ErrorStatus("station name required", http.StatusBadRequest, w, errors.New("name must be set"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	station.ID = primitive.NewObjectID()
	now := primitive.NewDateTimeFromTime(time.Now())
	station.Details.CreatedAt = now
	station.Details.UpdatedAt = now

	_, err := s.DB.InsertOne(ctx, station)
	if err != nil {
		config.ErrorStatus("failed to create station", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Station created successfully",
		"id":      station.ID.Hex(),
	})
}

// StationsHandler returns all stations in the district
func (s Station) StationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := s.DB.Find(ctx, bson.D{})
	if err != nil {
		config.ErrorStatus("failed to get stations", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Station{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// StationByIDHandler returns a station by ID
func (s Station) StationByIDHandler(w http.ResponseWriter, r *http.Request) {
	stationID := mux.Vars(r)["station_id"]

	sID, err := primitive.ObjectIDFromHex(stationID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := s.DB.FindOne(ctx, bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to get station by ID", http.StatusNotFound, w, err)
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

// DeleteStationHandler deletes a station by its ID. SP only.
func (s Station) DeleteStationHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != models.RoleSP {
		config.ErrorStatus("insufficient rank to manage stations", http.StatusForbidden, w, errors.New("station management is SP only"))
		return
	}

	stationID := mux.Vars(r)["station_id"]

	sID, err := primitive.ObjectIDFromHex(stationID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err = s.DB.DeleteOne(ctx, bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to delete station", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Station deleted successfully",
	})
}
