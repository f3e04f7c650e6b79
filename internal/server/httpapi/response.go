package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// errorBody is the error envelope: {"detail": "..."}.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps a service error onto a status code and detail.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, common.ErrorUnauthorized):
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, common.ErrorForbidden):
		writeDetail(w, http.StatusForbidden, "Inactive user")
	case errors.Is(err, common.ErrDuplicateUsername):
		writeDetail(w, http.StatusConflict, "Username already registered")
	case errors.Is(err, common.ErrorValidation):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
