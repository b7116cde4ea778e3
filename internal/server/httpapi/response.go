package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/walletauth/internal/logging"
)

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON writes data as JSON with the given status. Encoding errors are
// logged with the request logger.
func RespondJSON(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.FromContext(r.Context(), logging.Nop()).Error(r.Context(), "failed to encode JSON response", "error", err)
	}
}

func RespondError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	RespondJSON(w, r, ErrorResponse{Error: message}, statusCode)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
