package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Evidence handles evidence upload related requests
type Evidence struct{}

// GenerateSignature generates a short-lived signature the browser presents
// to the upload service when attaching evidence photos to a case
func (e Evidence) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uploadPreset := os.Getenv("UPLOAD_PRESET")
	signingSecret := os.Getenv("UPLOAD_SIGNING_SECRET")

	// Create the signature
	h := hmac.New(sha1.New, []byte(signingSecret))
	h.Write([]byte("timestamp=" + timestamp + "&upload_preset=" + uploadPreset))
	signature := hex.EncodeToString(h.Sum(nil))

	// Respond with the timestamp and signature
	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
