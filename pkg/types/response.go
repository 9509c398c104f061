// Package types holds the JSON envelope shapes shared by every API
// response. Successes wrap their payload under "data", failures under
// "error", so clients branch on one top-level key.
package types

// SuccessEnvelope wraps any successful response payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details carries
// structured context (field names, stock availability) only for codes
// that allow it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for transport.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
