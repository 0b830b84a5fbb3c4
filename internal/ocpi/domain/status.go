package ocpi

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusCode is an OCPI response status code. 1000 is the single success
// value; everything else from the fixed table below is an error.
type StatusCode int

const (
	StatusCodeSuccess StatusCode = 1000

	StatusCodeClientError          StatusCode = 2000
	StatusCodeInvalidParameters    StatusCode = 2001
	StatusCodeNotEnoughInformation StatusCode = 2002
	StatusCodeUnknownLocation      StatusCode = 2003

	StatusCodeServerError        StatusCode = 3000
	StatusCodeUnableToUseAPI     StatusCode = 3001
	StatusCodeUnsupportedVersion StatusCode = 3002
	StatusCodeNoMatchingEndpoint StatusCode = 3003
)

var statusCodeMessages = map[StatusCode]string{
	StatusCodeSuccess:              "Success",
	StatusCodeClientError:          "Generic client error",
	StatusCodeInvalidParameters:    "Invalid or missing parameters",
	StatusCodeNotEnoughInformation: "Not enough information",
	StatusCodeUnknownLocation:      "Unknown location",
	StatusCodeServerError:          "Generic server error",
	StatusCodeUnableToUseAPI:       "Unable to use the client's API",
	StatusCodeUnsupportedVersion:   "Unsupported version",
	StatusCodeNoMatchingEndpoint:   "No matching endpoints or expected endpoints missing",
}

// Message returns the fixed-table description for the code.
func (c StatusCode) Message() string {
	if msg, ok := statusCodeMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown status code %d", int(c))
}

// IsSuccess reports whether the code is the success value.
func (c StatusCode) IsSuccess() bool { return c == StatusCodeSuccess }

// Envelope is the OCPI response wrapper carried by every remote reply.
type Envelope struct {
	Data          json.RawMessage `json:"data,omitempty"`
	StatusCode    StatusCode      `json:"status_code"`
	StatusMessage string          `json:"status_message,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
