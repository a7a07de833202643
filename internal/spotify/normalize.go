package spotify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Messages surfaced to API consumers. Raw upstream bodies and transport
// errors are logged, never returned.
const (
	msgUnauthorized = "unauthorized: check client credentials"
	msgServerError  = "upstream server error, retry later"
	msgUnknown      = "unknown error"
)

// ErrMissingCredentials reports a configuration fault: the token endpoint
// URL, client id, or client secret is not set. It is a hard error rather
// than a normalized upstream failure and is never retried.
var ErrMissingCredentials = errors.New("missing Spotify API credentials")

// ErrTokenExpired reports a catalog call attempted without a cached access
// token. The caller must re-acquire one via the token endpoint.
var ErrTokenExpired = errors.New("spotify access token missing or expired: request a new one")

// UpstreamError is a normalized failure from the Spotify API. Status is
// the upstream HTTP status (or 500 when the call failed before a status
// was received) and Message is safe to surface to API consumers.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("spotify: %s (status %d)", e.Message, e.Status)
}

// upstreamErrorBody is the error shape the accounts and API services
// return on 4xx responses.
type upstreamErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// normalize maps an upstream response to a typed outcome. The mapping is
// shared by the token, artist, and album paths; only the 200-case payload
// extractor differs per call. Non-200 statuses are logged here with the
// raw body so call sites stay uniform.
func normalize[T any](op string, resp *http.Response, extract func(body []byte) (T, error)) (T, error) {
	var zero T

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.WithError(err).WithField("call", op).Error("Reading Spotify response body")
		return zero, &UpstreamError{Status: http.StatusInternalServerError, Message: msgServerError}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return extract(body)

	case http.StatusBadRequest:
		var upErr upstreamErrorBody
		_ = json.Unmarshal(body, &upErr)
		if upErr.ErrorDescription == "" {
			upErr.ErrorDescription = "Bad Request"
		}
		logrus.WithFields(logrus.Fields{
			"call":     op,
			"response": string(body),
		}).Warn("Spotify API: bad request")
		return zero, &UpstreamError{
			Status:  http.StatusBadRequest,
			Message: "bad request: " + upErr.ErrorDescription,
		}

	case http.StatusUnauthorized:
		logrus.WithFields(logrus.Fields{
			"call":     op,
			"response": string(body),
		}).Error("Spotify API: unauthorized")
		return zero, &UpstreamError{
			Status:  http.StatusUnauthorized,
			Message: msgUnauthorized,
		}

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		logrus.WithFields(logrus.Fields{
			"call":   op,
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("Spotify API: server error")
		return zero, &UpstreamError{
			Status:  resp.StatusCode,
			Message: msgServerError,
		}

	default:
		logrus.WithFields(logrus.Fields{
			"call":   op,
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("Spotify API: unknown status code")
		return zero, &UpstreamError{
			Status:  resp.StatusCode,
			Message: msgUnknown,
		}
	}
}

// networkFailure logs a transport-level error and converts it to a
// generic retry-later failure. The raw error stays in the logs.
func networkFailure(op string, err error) *UpstreamError {
	logrus.WithError(err).WithField("call", op).Error("Spotify API request failed")
	return &UpstreamError{Status: http.StatusInternalServerError, Message: msgServerError}
}
