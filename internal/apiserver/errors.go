package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
)

// errorEnvelope is the body written for every non-2xx response.
type errorEnvelope struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, err error) {
	status := qaerr.HTTPStatus(err)
	writeJSON(w, status, errorEnvelope{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
