// Package liveconnect implements the Live Connect credential lifecycle and a
// typed transport over the Live Connect REST API. Successful response bodies
// are decoded into caller-supplied values; failure bodies are classified into
// AuthError (OAuth shaped) or APIError (API shaped).
package liveconnect

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// Sentinel errors for HTTP status code classification of failures that carry
// no classifiable body. Use errors.Is(err, liveconnect.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("liveconnect: bad request")
	ErrUnauthorized = errors.New("liveconnect: unauthorized")
	ErrForbidden    = errors.New("liveconnect: forbidden")
	ErrNotFound     = errors.New("liveconnect: not found")
	ErrConflict     = errors.New("liveconnect: conflict")
	ErrThrottled    = errors.New("liveconnect: throttled")
	ErrServerError  = errors.New("liveconnect: server error")
)

var (
	// ErrInteractionUnavailable is wrapped by the AuthError returned when an
	// interactive grant is needed but no consent function is configured.
	ErrInteractionUnavailable = errors.New("liveconnect: interactive consent unavailable")

	// ErrConsentCancelled is returned by a ConsentFunc when the user closes
	// the consent prompt without completing it.
	ErrConsentCancelled = errors.New("liveconnect: consent cancelled")

	// ErrAccessDenied matches any AuthError whose code is access_denied.
	ErrAccessDenied = errors.New("liveconnect: access denied")

	// ErrInvalidResponse reports a successful response that broke its
	// content contract, e.g. a byte upload not echoing UTF-8 JSON.
	ErrInvalidResponse = errors.New("liveconnect: invalid response")
)

const codeAccessDenied = "access_denied"

// AuthError is an OAuth-shaped failure from the authorize or token endpoints,
// or from the consent step itself.
type AuthError struct {
	Code        string
	Description string
	Err         error // optional cause, for errors.Is()
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("liveconnect: authentication failed: %s: %s", e.Code, e.Description)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrAccessDenied) match by OAuth error code.
func (e *AuthError) Is(target error) bool {
	return target == ErrAccessDenied && e.Code == codeAccessDenied
}

// APIError is an API-shaped failure body returned by a resource call.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("liveconnect: HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// TransportError is a non-2xx response whose body could not be classified.
// It wraps a status sentinel, which is nil for unmapped codes.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error // sentinel, for errors.Is()
}

func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("liveconnect: %s: %s", e.Status, e.Body)
	}

	return fmt.Sprintf("liveconnect: %s", e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// oauthErrorBody mirrors {error, error_description}.
type oauthErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// apiErrorBody mirrors {error: {code, message}}.
type apiErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorShape selects which body layout classifyFailure expects.
type errorShape int

const (
	shapeAPI errorShape = iota
	shapeOAuth
)

// maxErrorBodyLen bounds the raw body kept on a TransportError.
const maxErrorBodyLen = 512

// classifyFailure turns a failed response into an AuthError or APIError when
// the body is JSON of the expected shape, and a TransportError otherwise.
func classifyFailure(resp *http.Response, body []byte, shape errorShape) error {
	if isJSON(resp.Header.Get("Content-Type")) {
		switch shape {
		case shapeOAuth:
			var e oauthErrorBody
			if json.Unmarshal(body, &e) == nil && e.Error != "" {
				return &AuthError{Code: e.Error, Description: e.Description}
			}
		case shapeAPI:
			var e apiErrorBody
			if json.Unmarshal(body, &e) == nil && e.Error != nil && e.Error.Code != "" {
				return &APIError{StatusCode: resp.StatusCode, Code: e.Error.Code, Message: e.Error.Message}
			}
		}
	}

	raw := string(body)
	if len(raw) > maxErrorBodyLen {
		raw = raw[:maxErrorBodyLen]
	}

	return &TransportError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       raw,
		Err:        classifyStatus(resp.StatusCode),
	}
}

// classifyStatus maps an HTTP status code to a sentinel error.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isJSON reports whether a Content-Type header names application/json.
func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}

// isUTF8JSON reports whether a Content-Type header is exactly JSON with a
// UTF-8 charset.
func isUTF8JSON(contentType string) bool {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "application/json" && strings.EqualFold(params["charset"], "utf-8")
}

// redactURLError replaces the URL inside a *url.Error, which would otherwise
// print access tokens and client secrets from the query string.
func redactURLError(err error, safeURL string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = safeURL
	}

	return err
}
