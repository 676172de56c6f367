package handlers

import (
	"errors"
	"net/http"

	"owner-console/console"
	"owner-console/editor"
	"owner-console/mapping"
	"owner-console/ownerapi"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var fieldErr *mapping.FieldError
	var apiErr *ownerapi.APIError

	switch {
	case errors.As(err, &fieldErr),
		errors.Is(err, console.ErrBlankQuery),
		errors.Is(err, console.ErrInvalidKind),
		errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrImageIndex),
		errors.Is(err, editor.ErrEmptyVariantList):
		return http.StatusBadRequest
	case errors.Is(err, console.ErrSessionNotFound),
		errors.Is(err, editor.ErrVariantNotFound),
		errors.Is(err, editor.ErrPreviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, console.ErrOperationInFlight),
		errors.Is(err, console.ErrNotConfirmed),
		errors.Is(err, console.ErrNoProduct),
		errors.Is(err, console.ErrWrongKind):
		return http.StatusConflict
	case errors.Is(err, ownerapi.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, ownerapi.ErrTransport),
		errors.Is(err, ownerapi.ErrMalformedResponse),
		errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// isRemote reports whether err came back from the owner API, in which case
// the session's status message is the text to show.
func isRemote(err error) bool {
	var apiErr *ownerapi.APIError
	return errors.Is(err, ownerapi.ErrTransport) ||
		errors.Is(err, ownerapi.ErrMalformedResponse) ||
		errors.Is(err, ownerapi.ErrMissingToken) ||
		errors.As(err, &apiErr)
}
