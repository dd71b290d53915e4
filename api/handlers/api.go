package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/davangere-police/case-registry-api/api"
	"github.com/davangere-police/case-registry-api/api/scheduler"
	"github.com/davangere-police/case-registry-api/config"
	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	DB        databases.CollectionHelper
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	caseDB := databases.NewCaseRecordDatabase(a.dbHelper)
	c := Case{DB: caseDB, Store: databases.NewCaseStore(caseDB)}
	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	st := Station{DB: databases.NewStationDatabase(a.dbHelper)}
	rep := Report{DB: caseDB}
	ev := Evidence{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/login", http.HandlerFunc(u.UserLoginHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UpdateUserByIDHandler))).Methods("PUT")

	apiCreate.Handle("/case", api.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(c.UpdateCaseHandler))).Methods("PUT")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(c.DeleteCaseHandler))).Methods("DELETE")
	apiCreate.Handle("/case/{case_id}/hearings", api.Middleware(http.HandlerFunc(c.AddHearingHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/judgment", api.Middleware(http.HandlerFunc(c.RecordJudgmentHandler))).Methods("PUT")
	apiCreate.Handle("/case/{case_id}/appeal", api.Middleware(http.HandlerFunc(c.UpdateAppealHandler))).Methods("PUT")
	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CasesHandler))).Methods("GET")
	apiCreate.Handle("/cases/search", api.Middleware(http.HandlerFunc(c.CasesSearchHandler))).Methods("GET")
	apiCreate.Handle("/cases/bulk", api.Middleware(http.HandlerFunc(c.BulkUploadHandler))).Methods("POST")

	apiCreate.Handle("/station", api.Middleware(http.HandlerFunc(st.CreateStationHandler))).Methods("POST")
	apiCreate.Handle("/stations", api.Middleware(http.HandlerFunc(st.StationsHandler))).Methods("GET")
	apiCreate.Handle("/station/{station_id}", api.Middleware(http.HandlerFunc(st.StationByIDHandler))).Methods("GET")
	apiCreate.Handle("/station/{station_id}", api.Middleware(http.HandlerFunc(st.DeleteStationHandler))).Methods("DELETE")

	apiCreate.Handle("/reports/summary", api.Middleware(http.HandlerFunc(rep.SummaryHandler))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(ev.GenerateSignature))).Methods("POST")

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("case-registry-api has connected to the database")

	// start the hearing reminder scheduler
	a.Scheduler = scheduler.NewScheduler(
		databases.NewCaseRecordDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
