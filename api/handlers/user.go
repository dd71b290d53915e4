package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/davangere-police/case-registry-api/api"
	"github.com/davangere-police/case-registry-api/config"
	"github.com/davangere-police/case-registry-api/databases"
	"github.com/davangere-police/case-registry-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

// UserCreateHandler creates a new user with a bcrypt-hashed password
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var details models.UserDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	details.Email = strings.TrimSpace(strings.ToLower(details.Email))
	if details.Email == "" || details.Password == "" {
		config.ErrorStatus("email and password required", http.StatusBadRequest, w, errors.New("missing credentials"))
		return
	}
	if !models.ValidRole(details.Role) {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, fmt.Errorf("role must be one of writer, sho, sp; got %q", details.Role))
		return
	}
	if details.Role != models.RoleSP && details.Station == "" {
		config.ErrorStatus("station required", http.StatusBadRequest, w, fmt.Errorf("role %s requires a home station", details.Role))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if existing, err := u.DB.FindOne(ctx, bson.M{"user.email": details.Email}); err == nil && existing != nil {
		config.ErrorStatus("email already registered", http.StatusConflict, w, fmt.Errorf("user %s already exists", details.Email))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(details.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	details.Password = string(hashedPassword)

	user := models.User{
		ID:      primitive.NewObjectID(),
		Details: details,
	}
	now := primitive.NewDateTimeFromTime(time.Now())
	user.Details.CreatedAt = now
	user.Details.UpdatedAt = now

	_, err = u.DB.InsertOne(ctx, user)
	if err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User created successfully",
		"id":      user.ID.Hex(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Role    string `json:"role"`
		Station string `json:"station"`
	} `json:"user"`
}

// UserLoginHandler handles login via email/password and returns a JWT
// carrying the role and home station claims the frontend scopes its views by
func (u User) UserLoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		config.ErrorStatus("email and password required", http.StatusBadRequest, w, errors.New("missing credentials"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"user.email": email})
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, errors.New("no matching user"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Details.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, errors.New("password mismatch"))
		return
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, errors.New("JWT_SECRET is not set"))
		return
	}

	claims := jwt.MapClaims{
		"sub":     user.ID.Hex(),
		"email":   user.Details.Email,
		"role":    user.Details.Role,
		"station": user.Details.Station,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		config.ErrorStatus("token generation failed", http.StatusInternalServerError, w, err)
		return
	}

	var resp loginResponse
	resp.Token = signed
	resp.User.ID = user.ID.Hex()
	resp.User.Email = user.Details.Email
	resp.User.Role = user.Details.Role
	resp.User.Station = user.Details.Station

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// UserHandler returns a user by ID with the password hash stripped
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := u.DB.FindOne(ctx, bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusNotFound, w, err)
		return
	}

	dbResp.Details.Password = ""

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateUserByIDHandler updates a user's name, role or station. Only the SP
// may change roles and stations; users may update their own name.
func (u User) UpdateUserByIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var updateData struct {
		Name    string `json:"name"`
		Role    string `json:"role"`
		Station string `json:"station"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{
		"user.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}
	if updateData.Name != "" {
		set["user.name"] = updateData.Name
	}
	if updateData.Role != "" || updateData.Station != "" {
		if actor.Role != models.RoleSP {
			config.ErrorStatus("insufficient rank to reassign users", http.StatusForbidden, w, errors.New("only the SP may change roles and stations"))
			return
		}
		if updateData.Role != "" {
			if !models.ValidRole(updateData.Role) {
				config.ErrorStatus("invalid role", http.StatusBadRequest, w, fmt.Errorf("role must be one of writer, sho, sp; got %q", updateData.Role))
				return
			}
			set["user.role"] = updateData.Role
		}
		if updateData.Station != "" {
			set["user.station"] = updateData.Station
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err = u.DB.UpdateOne(ctx, bson.M{"_id": uID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User updated successfully",
	})
}
