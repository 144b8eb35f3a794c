package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/aqar/pkg/slogx"
)

// ErrorBody is the JSON shape of every rejection.
type ErrorBody struct {
	Error   string `json:"error"`
	ErrorEn string `json:"errorEn"`
	Code    string `json:"code,omitempty"`
}

// WriteJSON sends v with status code. Responses of this API carry session
// state, so they are never cacheable.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a bilingual rejection. code is omitted when empty.
func WriteError(w http.ResponseWriter, status int, msg Message, code string) {
	WriteJSON(w, status, ErrorBody{Error: msg.Ar, ErrorEn: msg.En, Code: code})
}

// WriteInternal logs err with the request logger and answers a bare 500.
// The client sees only the generic message and the X-Request-ID header.
func WriteInternal(w http.ResponseWriter, r *http.Request, what string, err error) {
	slogx.FromContext(r.Context()).Error(what, "err", err)
	WriteError(w, http.StatusInternalServerError, MsgInternal, "")
}

// NoCache marks the response as carrying credentials.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
