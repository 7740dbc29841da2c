package errors

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type body struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// JSON writes an {ok, message} response with the given status.
func JSON(w http.ResponseWriter, status int, ok bool, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body{OK: ok, Message: message})
}

// InternalError logs the underlying error with the request ID. The client
// sees the upstream error message so provider failures stay diagnosable.
func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	LogError(r, message, err)
	JSON(w, http.StatusInternalServerError, false, err.Error())
}

// BadRequest answers 400 with a client-facing message.
func BadRequest(w http.ResponseWriter, r *http.Request, clientMessage string) {
	requestID := middleware.GetReqID(r.Context())
	if requestID != "" {
		log.Printf("[WARN] RequestID=%s: bad request: %s", requestID, clientMessage)
	} else {
		log.Printf("[WARN] bad request: %s", clientMessage)
	}
	JSON(w, http.StatusBadRequest, false, clientMessage)
}

// MethodNotAllowed answers 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusMethodNotAllowed, false, "Method not allowed")
}

// Unauthorized answers 401 with a generic message.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusUnauthorized, false, "Unauthorized")
}

func LogError(r *http.Request, message string, err error) {
	requestID := middleware.GetReqID(r.Context())
	if requestID != "" {
		log.Printf("[ERROR] RequestID=%s: %s: %v", requestID, message, err)
	} else {
		log.Printf("[ERROR] %s: %v", message, err)
	}
}

func LogInfo(r *http.Request, message string) {
	requestID := middleware.GetReqID(r.Context())
	if requestID != "" {
		log.Printf("[INFO] RequestID=%s: %s", requestID, message)
	} else {
		log.Printf("[INFO] %s", message)
	}
}
