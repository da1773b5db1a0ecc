package middleware

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/angelmondragon/module-swap/pkg/logger"
)

const (
	RequestIDHeader    = "X-Request-Id"
	maxRequestIDLength = 128
)

// RequestID propagates an inbound request id or mints a uuid, echoes it on the
// response and attaches it to the context and logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if !usableRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			ctx := WithRequestID(r.Context(), reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func usableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return r > unicode.MaxASCII || !unicode.IsPrint(r) || r == ' '
	}) < 0
}
