package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/storefront-api/internal/domain"
	"github.com/msomdec/storefront-api/internal/handler"
	"github.com/msomdec/storefront-api/internal/metrics"
	"github.com/msomdec/storefront-api/internal/repository/sqlite"
	"github.com/msomdec/storefront-api/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests"

type testServices struct {
	auth     *service.AuthService
	products *service.ProductService
	metrics  *metrics.Metrics
}

func newTestServices(t *testing.T) testServices {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := metrics.New("test")
	return testServices{
		auth: service.NewAuthService(
			db.Users(),
			service.NewBcryptHasher(4),
			service.NewTokenIssuer([]byte(testJWTSecret), time.Hour),
			service.WithMetrics(m),
		),
		products: service.NewProductService(db.Products()),
		metrics:  m,
	}
}

// loginAs registers email with role and returns a bearer token for it.
func loginAs(t *testing.T, auth *service.AuthService, email string, role domain.Role) string {
	t.Helper()
	ctx := context.Background()
	if _, err := auth.Register(ctx, email, "password123", role); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := auth.Login(ctx, email, "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return token
}

func TestAuthenticate_ValidToken(t *testing.T) {
	svc := newTestServices(t)
	token := loginAs(t, svc.auth, "valid@example.com", "")

	var got *service.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = handler.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.Authenticate(svc.auth, inner).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got == nil || got.Email != "valid@example.com" || got.Role != domain.RoleUser {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc := newTestServices(t)
	token := loginAs(t, svc.auth, "tamper@example.com", "")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer invalid.jwt.token"},
		{"tampered token", "Bearer " + token[:len(token)-1] + "X"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("inner handler should not be called")
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			handler.Authenticate(svc.auth, inner).ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestGuard(t *testing.T) {
	policy := service.AccessPolicy{"admin.op": {domain.RoleAdmin}, "any.op": nil}

	tests := []struct {
		name      string
		operation string
		identity  *service.Identity
		want      int
	}{
		{"admin allowed", "admin.op", &service.Identity{UserID: 1, Role: domain.RoleAdmin}, http.StatusOK},
		{"user forbidden", "admin.op", &service.Identity{UserID: 2, Role: domain.RoleUser}, http.StatusForbidden},
		{"no roles required", "any.op", &service.Identity{UserID: 2, Role: domain.RoleUser}, http.StatusOK},
		{"missing identity", "any.op", nil, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
			if tc.identity != nil {
				req = req.WithContext(handler.WithIdentity(req.Context(), *tc.identity))
			}
			w := httptest.NewRecorder()

			handler.Guard(policy, nil, tc.operation, inner).ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := service.NewTokenBucket(0.001, 2)
	t.Cleanup(limiter.Stop)

	h := handler.RateLimit(limiter, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 200 429], got %v", codes)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "192.0.2.2:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a second client, got %d", w.Code)
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	var seen string
	h := handler.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = handler.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", w.Code)
	}
	id := w.Header().Get("X-Request-ID")
	if id == "" || id != seen {
		t.Fatalf("expected matching request id, header=%q context=%q", id, seen)
	}
}

func TestWithRequestID_TagsContextRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(handler.WithRequestID(slog.NewJSONHandler(&buf, nil)))

	h := handler.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.InfoContext(r.Context(), "inside handler")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record %q: %v", buf.String(), err)
	}
	if record["request_id"] != w.Header().Get("X-Request-ID") {
		t.Fatalf("expected request_id %q in log record, got %v", w.Header().Get("X-Request-ID"), record["request_id"])
	}

	// Records without a request context are left alone.
	buf.Reset()
	logger.Info("outside request")
	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("unexpected request_id in %s", buf.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := handler.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected DENY, got %q", got)
	}
}
