package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/matzehuels/marketlink/pkg/errors"
)

type errorBody struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Attempts []attemptBody `json:"attempts,omitempty"`
}

type attemptBody struct {
	Source string `json:"source"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error:     errorBody{Code: code, Message: message},
		RequestID: w.Header().Get(RequestIDHeader),
	})
}

// writeRouteError writes err with the status its code maps to. An
// all-failed error lists every attempt.
func (s *Server) writeRouteError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)

	body := errorBody{Code: string(code), Message: errors.UserMessage(err)}
	var af *errors.AllFailedError
	if stderrors.As(err, &af) {
		for _, a := range af.Attempts {
			body.Attempts = append(body.Attempts, attemptBody{
				Source: a.Source,
				Code:   string(errors.GetCode(a.Err)),
				Error:  errors.UserMessage(a.Err),
			})
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Warn("route failed", "path", r.URL.Path, "code", code, "request_id", RequestIDFromContext(r.Context()))
	}

	writeJSON(w, status, errorResponse{Error: body, RequestID: RequestIDFromContext(r.Context())})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch {
	case code == errors.ErrCodeSourceNotAvailable:
		return http.StatusBadRequest
	case code == errors.ErrCodeNoProviders:
		return http.StatusServiceUnavailable
	case code == errors.ErrCodeAllProvidersFailed:
		return http.StatusBadGateway
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
