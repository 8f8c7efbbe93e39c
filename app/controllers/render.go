package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskhub/app/models"
)

// actorHeader carries the caller-supplied actor id stamped onto writes.
// The core has no session concept; whoever fronts this API decides what
// goes here.
const actorHeader = "X-Actor-ID"

func actorID(r *http.Request) string {
	return r.Header.Get(actorHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses: missing records to
// 404, rejected writes to 400, anything else to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case models.IsValidation(err):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
