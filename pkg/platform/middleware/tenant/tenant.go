// Package tenant lifts the tenant path segment into the request context.
package tenant

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"selfreg/pkg/domain"
	"selfreg/pkg/requestcontext"
)

// URLParam is the chi route parameter carrying the tenant domain.
const URLParam = "tenantDomain"

// Middleware stores the {tenantDomain} route parameter, when present, as the
// ambient tenant. Routes without the parameter leave the context untouched.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, URLParam))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := requestcontext.WithTenantDomain(r.Context(), domain.TenantDomain(raw))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
