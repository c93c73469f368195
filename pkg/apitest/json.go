package apitest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError answers with the {"detail": ...} envelope the real API uses.
func writeError(w http.ResponseWriter, status int, detail string) {
	type envelope struct {
		Detail string `json:"detail"`
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, &envelope{Detail: detail})
}

func readJSON(r *http.Request, data any) error {
	return json.NewDecoder(r.Body).Decode(data)
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func optionalLocation(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("location_id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
