package middleware

import (
	"net/http"

	"github.com/angelmondragon/module-swap/api/responses"
	pkgAuth "github.com/angelmondragon/module-swap/pkg/auth"
	"github.com/angelmondragon/module-swap/pkg/config"
	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
	"github.com/angelmondragon/module-swap/pkg/logger"
)

// Auth requires a host-issued bearer token on every request and stores the
// acting user on the context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := pkgAuth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, err.Error()))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID := claims.Actor()
			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
				if claims.Username != "" {
					ctx = logg.WithField(ctx, "username", claims.Username)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
