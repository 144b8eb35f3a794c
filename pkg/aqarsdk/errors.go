package aqarsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	MessageEn  string `json:"errorEn"`
	Code       string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("aqar: %d %s (%s)", e.StatusCode, e.MessageEn, e.Code)
	}
	return fmt.Sprintf("aqar: %d %s", e.StatusCode, e.MessageEn)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.MessageEn == "" {
		apiErr.MessageEn = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
