package response

import (
	"net/http"

	"quartz-storefront/internal/core/errs"
)

// Codes for failures that do not come from a service.
const (
	CodeOK          = "OK"
	CodeBadRequest  = "BadRequest"
	CodeTooMany     = "TooManyRequests"
	CodeBusy        = "ServerBusy"
	CodeTimeout     = "Timeout"
	CodeTooLarge    = "PayloadTooLarge"
	CodeInternal    = "Internal"
	msgInternal     = "internal error"
	msgUnauthorized = "unauthorized"
)

var statusByKind = map[errs.Kind]int{
	errs.NotFound:           http.StatusNotFound,
	errs.Conflict:           http.StatusConflict,
	errs.InvalidOperation:   http.StatusUnprocessableEntity,
	errs.Unauthenticated:    http.StatusUnauthorized,
	errs.Unauthorized:       http.StatusForbidden,
	errs.ValidationFailed:   http.StatusBadRequest,
	errs.UpstreamFailure:    http.StatusBadGateway,
	errs.InvalidCredentials: http.StatusUnauthorized,
	errs.InvalidToken:       http.StatusUnauthorized,
}

// Status maps an error kind onto an HTTP status. Unknown kinds are 500.
func Status(k errs.Kind) int {
	if s, ok := statusByKind[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// KeyRequestID is the header and gin context key carrying the request id.
const KeyRequestID = "X-Request-ID"
