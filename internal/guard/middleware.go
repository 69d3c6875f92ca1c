package guard

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
)

// Middleware enforces the checks registered for routeID. It must sit inside
// the auth middleware so a principal is already on the context. Routes that
// never declared checks cannot be wrapped; that is a wiring bug and panics
// at startup.
func (g *Guard) Middleware(routeID string) func(http.Handler) http.Handler {
	if len(g.registry.RequiredChecks(routeID)) == 0 {
		panic("guard: no checks registered for route " + routeID)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, internal.Response{
					Error: internal.NewUnauthorizedError("Authentication required", internal.ErrCodeInvalidToken),
				})
				return
			}

			decision, err := g.DecideRoute(*principal, routeID)
			if err != nil {
				g.logger.Error("guard evaluation failed", "error", err, "route", routeID)
				writeJSON(w, http.StatusInternalServerError, internal.Response{
					Error: internal.NewInternalError("Failed to evaluate permissions", err),
				})
				return
			}
			if !decision.Allowed {
				writeJSON(w, http.StatusForbidden, decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
