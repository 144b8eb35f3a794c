package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/aqar/pkg/httpx"
	"github.com/aussiebroadwan/aqar/pkg/slogx"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads a JSON body into dst and validates it. On failure it has
// already written a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	log := slogx.FromContext(r.Context())

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		log.Info("rejected request body", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgValidation, httpx.CodeValidation)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
			log.Info("request validation failed", "fields", fields)
		}
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgValidation, httpx.CodeValidation)
		return false
	}
	return true
}
