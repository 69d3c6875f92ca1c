package middleware

import (
	"net/http"

	"github.com/frahmantamala/access-management/internal"
)

// ClientFlag marks every request in a route group as client-facing. The
// navigation projector and module visibility queries branch on this flag;
// admin route groups simply never pass through it.
func ClientFlag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := internal.ContextWithClientRoute(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
