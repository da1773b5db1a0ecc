package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/module-swap/pkg/logger"
)

// WorkflowTokenHeader carries the relocation workflow token. The cookie of the
// configured name is read when the header is absent.
const WorkflowTokenHeader = "X-Workflow-Token"

// WorkflowToken lifts the relocation workflow token into the request context.
func WorkflowToken(cookieName string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(WorkflowTokenHeader))
			if token == "" && cookieName != "" {
				if cookie, err := r.Cookie(cookieName); err == nil {
					token = strings.TrimSpace(cookie.Value)
				}
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithWorkflowToken(r.Context(), token)
			if logg != nil {
				ctx = logg.WithWorkflowToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
