package adminsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// SessionExpiredMessage is the user-facing text for a torn-down session.
const SessionExpiredMessage = "Session expired. Please log in again."

// ErrSessionExpired matches any *SessionExpiredError via errors.Is.
var ErrSessionExpired = errors.New(SessionExpiredMessage)

// SessionExpiredError is returned when the access token was rejected and the
// session could not be refreshed. By the time it is returned the stored
// credentials are gone; the caller should navigate to RedirectTo.
type SessionExpiredError struct {
	// RedirectTo is the sign-in route.
	RedirectTo string

	// Cause is why the refresh failed (missing refresh token, rejection,
	// network error). It is for logs, not for operators.
	Cause error
}

func (e *SessionExpiredError) Error() string { return SessionExpiredMessage }

func (e *SessionExpiredError) Unwrap() error { return e.Cause }

func (e *SessionExpiredError) Is(target error) bool { return target == ErrSessionExpired }

// APIError is a non-success response from the marketplace API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// parseErrorResponse turns a non-2xx response body into an *APIError. It
// understands the API's {code, message} envelope and the {error,
// error_description} shape some gateways emit, and falls back to the status
// text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: body}

	var envelope struct {
		Code             string `json:"code"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Code != "" || envelope.Message != "":
			apiErr.Code, apiErr.Message = envelope.Code, envelope.Message
			return apiErr
		case envelope.Error != "":
			apiErr.Code, apiErr.Message = envelope.Error, envelope.ErrorDescription
			return apiErr
		}
	}

	apiErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	return apiErr
}
