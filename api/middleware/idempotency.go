package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/module-swap/api/responses"
	"github.com/angelmondragon/module-swap/api/validators"
	pkgerrors "github.com/angelmondragon/module-swap/pkg/errors"
	"github.com/angelmondragon/module-swap/pkg/logger"
	pkgredis "github.com/angelmondragon/module-swap/pkg/redis"
)

const (
	// IdempotencyKeyHeader lets clients retry a relocation or link creation safely.
	IdempotencyKeyHeader = "Idempotency-Key"
	IdempotentReplay     = "Idempotent-Replay"

	maxIdempotencyKeyLength = 255
	pendingTTL              = time.Minute
)

// idempotentRoutes are matched on the raw path: the middleware runs before
// chi has resolved a route pattern.
var idempotentRoutes = map[string]string{
	"/api/v1/module-swap/place": http.MethodPost,
	"/api/v1/module-swap/links": http.MethodPost,
}

var replayedHeaders = []string{"Content-Type", "Location"}

type idempotencyRecord struct {
	Pending     bool              `json:"pending,omitempty"`
	RequestHash string            `json:"request_hash"`
	Status      int               `json:"status,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        []byte            `json:"body,omitempty"`
}

// Idempotency stores the first response to a keyed request on a covered route
// and replays it for repeats with the same key and body. The key is reserved
// before the handler runs, so a concurrent repeat gets a conflict. 5xx
// responses release the key.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	guard := &idempotencyGuard{store: store, ttl: ttl, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if store == nil || key == "" || !coveredRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if err := guard.serve(w, r, key, next); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
			}
		})
	}
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, key string, next http.Handler) error {
	if len(key) > maxIdempotencyKeyLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key is too long")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
				WithDetails(map[string]any{"limit_bytes": tooLarge.Limit})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	ctx := r.Context()
	hash := hashBody(body)
	storeKey := g.store.IdempotencyKey(requestScope(r), key)

	payload, err := json.Marshal(idempotencyRecord{Pending: true, RequestHash: hash})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency reservation")
	}
	reserved, err := g.store.SetNX(ctx, storeKey, string(payload), pendingTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	if !reserved {
		return g.replay(ctx, w, storeKey, hash)
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)
	g.remember(ctx, storeKey, hash, capture)
	return nil
}

func (g *idempotencyGuard) replay(ctx context.Context, w http.ResponseWriter, storeKey, hash string) error {
	raw, err := g.store.Get(ctx, storeKey)
	if errors.Is(err, pkgredis.Nil) {
		return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key expired while in use, retry the request")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record")
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	switch {
	case record.RequestHash != hash:
		return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	case record.Pending:
		return pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress")
	}

	for name, value := range record.Headers {
		w.Header().Set(name, value)
	}
	w.Header().Set(IdempotentReplay, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
	return nil
}

// remember replaces the reservation with the final record in one write, so a
// repeat never finds the key empty. 5xx responses drop the reservation.
func (g *idempotencyGuard) remember(ctx context.Context, storeKey, hash string, capture *responseCapture) {
	status := capture.statusCode()
	if status >= http.StatusInternalServerError {
		if err := g.store.Del(ctx, storeKey); err != nil {
			g.logError(ctx, "release idempotency reservation", err)
		}
		return
	}

	record := idempotencyRecord{RequestHash: hash, Status: status, Body: capture.body.Bytes()}
	for _, name := range replayedHeaders {
		if value := capture.Header().Get(name); value != "" {
			if record.Headers == nil {
				record.Headers = map[string]string{}
			}
			record.Headers[name] = value
		}
	}
	payload, err := json.Marshal(record)
	if err == nil {
		err = g.store.Set(ctx, storeKey, string(payload), g.ttl)
	}
	if err != nil {
		g.logError(ctx, "persist idempotency record", err)
	}
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

// requestScope keys records per user, method and path.
func requestScope(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
}

func coveredRoute(method, path string) bool {
	path = strings.TrimSuffix(path, "/")
	want, ok := idempotentRoutes[path]
	return ok && want == method
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
