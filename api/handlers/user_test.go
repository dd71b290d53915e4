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

	"github.com/davangere-police/case-registry-api/api"
	"github.com/davangere-police/case-registry-api/api/handlers"
	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/databases/mocks"
	"github.com/davangere-police/case-registry-api/models"
)

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

func spContext(r *http.Request) *http.Request {
	return r.WithContext(api.WithActor(r.Context(), models.Actor{Role: models.RoleSP}))
}

func writerContext(r *http.Request, station string) *http.Request {
	return r.WithContext(api.WithActor(r.Context(), models.Actor{Role: models.RoleWriter, Station: station}))
}

func TestUser_UserHandlerBadHex(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/user/asdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "asdf"})

	u := handlers.User{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UserHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}

func TestUser_UserHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/user/60e2a8f1b2f5a43b9c1d2e3f", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "60e2a8f1b2f5a43b9c1d2e3f"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UserHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get user by ID")
}

func TestUser_UserHandlerStripsPassword(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/user/60e2a8f1b2f5a43b9c1d2e3f", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "60e2a8f1b2f5a43b9c1d2e3f"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).Details.Email = "writer@davangerepolice.gov.in"
		(*arg).Details.Password = "$2a$10$secret-hash"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db)}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UserHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "writer@davangerepolice.gov.in")
	assert.NotContains(t, rr.Body.String(), "secret-hash")
}

func TestUser_UserCreateHandlerMissingCredentials(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/user/create-user", strings.NewReader(`{"name":"K Manjunath"}`))
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.User{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UserCreateHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "email and password required")
}

func TestUser_UserCreateHandlerInvalidRole(t *testing.T) {
	body := `{"email":"x@davangerepolice.gov.in","password":"hunter2","role":"constable","station":"Davangere City PS"}`
	req, err := http.NewRequest("POST", "/api/v1/user/create-user", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.User{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UserCreateHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid role")
}

func TestUser_UserCreateHandlerStationRequired(t *testing.T) {
	body := `{"email":"x@davangerepolice.gov.in","password":"hunter2","role":"writer"}`
	req, err := http.NewRequest("POST", "/api/v1/user/create-user", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.User{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UserCreateHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "station required")
}

func TestUser_UserLoginHandlerMissingCredentials(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/user/login", strings.NewReader(`{"email":"x@davangerepolice.gov.in"}`))
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.User{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UserLoginHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "email and password required")
}

func TestUser_UpdateUserByIDHandlerRoleChangeForbidden(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/user/60e2a8f1b2f5a43b9c1d2e3f", strings.NewReader(`{"role":"sho"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "60e2a8f1b2f5a43b9c1d2e3f"})
	req = writerContext(req, "Davangere City PS")

	u := handlers.User{}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(u.UpdateUserByIDHandler)

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "insufficient rank to reassign users")
}
