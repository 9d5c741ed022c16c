package httpadapter

import (
	"net/http"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
)

// mapDomainError translates a pipeline error into a status code and the
// fixed client-facing message for that status. Collaborator error text
// stays in the server logs and is never part of a response body.
func mapDomainError(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound, "document not found"
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
