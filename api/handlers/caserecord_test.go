package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/davangere-police/case-registry-api/api/handlers"
	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/databases/mocks"
	"github.com/davangere-police/case-registry-api/models"
)

func TestCase_CaseByIDHandlerBadHex(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/case/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": "1234"})

	c := handlers.Case{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.CaseByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	expected := `{"Response":{"Message":"failed to get objectID from Hex","Error":"the provided hex string is not a valid ObjectID"}}`
	assert.Equal(t, expected, rr.Body.String())
}

func TestCase_CaseByIDHandlerNoActor(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/case/60e2a8f1b2f5a43b9c1d2e3f", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": "60e2a8f1b2f5a43b9c1d2e3f"})

	c := handlers.Case{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.CaseByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "no authenticated actor")
}

func TestCase_CaseByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/case/60e2a8f1b2f5a43b9c1d2e3f", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": "60e2a8f1b2f5a43b9c1d2e3f"})
	req = spContext(req)

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "caserecords").Return(conn)

	c := handlers.Case{DB: databases.NewCaseRecordDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.CaseByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get case record by ID")
}

func TestCase_CaseByIDHandlerScopeDenied(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/case/60e2a8f1b2f5a43b9c1d2e3f", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": "60e2a8f1b2f5a43b9c1d2e3f"})
	req = writerContext(req, "Davangere City PS")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.CaseRecord)
		(*arg).Details.Station = "Harihar PS"
		(*arg).Details.CrimeNumber = "CR/2"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "caserecords").Return(conn)

	c := handlers.Case{DB: databases.NewCaseRecordDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.CaseByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "Cannot access police station: Harihar PS")
}

func TestCase_CaseByIDHandlerOwnStation(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/case/60e2a8f1b2f5a43b9c1d2e3f", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": "60e2a8f1b2f5a43b9c1d2e3f"})
	req = writerContext(req, "Davangere City PS")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.CaseRecord)
		(*arg).Details.Station = "Davangere City PS"
		(*arg).Details.CrimeNumber = "CR/1"
		(*arg).Details.Status = models.StatusUnderInvestigation
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "caserecords").Return(conn)

	c := handlers.Case{DB: databases.NewCaseRecordDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.CaseByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"crimeNumber":"CR/1"`)
}

func TestCase_CreateCaseHandlerMissingKey(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/case", strings.NewReader(`{"station":"Davangere City PS"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = writerContext(req, "Davangere City PS")

	c := handlers.Case{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.CreateCaseHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "required fields missing")
}

func TestCase_CreateCaseHandlerScopeDenied(t *testing.T) {
	body := `{"station":"Harihar PS","crimeNumber":"CR/2"}`
	req, err := http.NewRequest("POST", "/api/v1/case", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = writerContext(req, "Davangere City PS")

	c := handlers.Case{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.CreateCaseHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "Cannot access police station: Harihar PS")
}

func TestCase_DeleteCaseHandlerWriterForbidden(t *testing.T) {
	req, err := http.NewRequest("DELETE", "/api/v1/case/60e2a8f1b2f5a43b9c1d2e3f", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": "60e2a8f1b2f5a43b9c1d2e3f"})
	req = writerContext(req, "Davangere City PS")

	c := handlers.Case{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(c.DeleteCaseHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "insufficient rank to delete case records")
}
