package apperrors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorResponse is the JSON error envelope returned by every failing
// endpoint.
type ErrorResponse struct {
	Error      bool   `json:"error"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	Path       string `json:"path,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// Write renders err as the standard error envelope. Unknown error types are
// collapsed to a generic internal error first.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr := From(err)

	w.Header().Set("Content-Type", "application/json")
	if appErr.Kind == KindRateLimit && appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}
	w.WriteHeader(appErr.Status())

	resp := ErrorResponse{
		Error:      true,
		ErrorCode:  appErr.Code(),
		Message:    appErr.Message,
		Detail:     appErr.Detail,
		RetryAfter: appErr.RetryAfter,
	}
	if r != nil {
		resp.Path = r.URL.Path
	}

	json.NewEncoder(w).Encode(resp)
}
