package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/services"
	"github.com/mediajenny/the-oracle/src/utils"
)

const internalErrorMessage = "An internal error occurred. Please try again later."

// sendServiceError maps service sentinels to status codes. Anything
// unrecognised is logged and hidden behind a generic 500.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapServiceError(err)
	log := logger.FromContext(r.Context())
	if status >= 500 {
		log.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Warn("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	utils.SendJSONError(w, message, status)
}

func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyInput):
		return http.StatusBadRequest, trimSentinel(err, services.ErrEmptyInput)
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrParsingFailed),
		errors.Is(err, services.ErrMissingColumns),
		errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, services.ErrInvalidCredentials.Error()
	case errors.Is(err, services.ErrInvalidSession):
		return http.StatusUnauthorized, services.ErrInvalidSession.Error()
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict, services.ErrEmailTaken.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// trimSentinel drops the "<sentinel>: " prefix so clients see only the detail.
func trimSentinel(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

func requireUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
	}
	return userID, ok
}

func pathID(w http.ResponseWriter, r *http.Request, what string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		utils.SendJSONError(w, fmt.Sprintf("Invalid %s ID", what), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.SendJSONError(w, fmt.Sprintf("Request body too large (max %s)", utils.HumanFileSize(maxBytes)), http.StatusRequestEntityTooLarge)
			return false
		}
		logger.FromContext(r.Context()).Debug("Invalid request body", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
