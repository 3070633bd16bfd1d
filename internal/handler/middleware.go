package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/storefront-api/internal/domain"
	"github.com/msomdec/storefront-api/internal/metrics"
	"github.com/msomdec/storefront-api/internal/service"
)

type contextKey string

const (
	identityContextKey  contextKey = "identity"
	requestIDContextKey contextKey = "request_id"
)

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id service.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, &id)
}

// IdentityFromContext extracts the authenticated identity from the request context.
func IdentityFromContext(ctx context.Context) (*service.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*service.Identity)
	return id, ok && id != nil
}

// RequestIDFromContext returns the id assigned by RequestLogger, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// Authenticate is middleware that requires a valid bearer token. It reads the
// Authorization header, verifies the token and injects the identity into the
// request context. Returns 401 for unauthenticated requests.
func Authenticate(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeDomainError(w, r, domain.ErrUnauthenticated)
			return
		}

		id, err := auth.Authenticate(token)
		if err != nil {
			slog.DebugContext(r.Context(), "token rejected", "error", err)
			writeDomainError(w, r, domain.ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Guard applies the access policy for operation to the identity placed in
// the context by Authenticate.
func Guard(policy service.AccessPolicy, m *metrics.Metrics, operation string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		if err := policy.Authorize(operation, id); err != nil {
			decision := metrics.DecisionForbidden
			if id == nil {
				decision = metrics.DecisionMisconfig
			}
			m.AuthorizationDecision(operation, decision)
			if id != nil {
				slog.WarnContext(r.Context(), "access denied",
					"operation", operation, "user_id", id.UserID, "role", id.Role)
			}
			writeDomainError(w, r, err)
			return
		}

		m.AuthorizationDecision(operation, metrics.DecisionAllowed)
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects requests with 429 once the client address has used up
// its bucket.
func RateLimit(limiter *service.TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !limiter.Allow(ip) {
			slog.WarnContext(r.Context(), "rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestLogger assigns every request an id, echoes it in X-Request-ID and
// logs the request once it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		slog.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// SecurityHeaders sets conservative response headers for a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
