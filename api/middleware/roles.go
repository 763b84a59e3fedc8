package middleware

import (
	"net/http"

	"github.com/geniustaku/docuflow-backend/api/responses"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

// RequireActorType rejects requests whose token carries a different actor
// type than the route expects.
func RequireActorType(actorType string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ActorTypeFromContext(r.Context()) != actorType {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient privileges"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCompanyScope rejects tokens that carry no tenant scope. Tenant
// routes must always be bound to a company.
func RequireCompanyScope(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CompanyIDFromContext(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company scope required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
