package handler

import (
	"net/http"

	"github.com/msomdec/storefront-api/internal/metrics"
	"github.com/msomdec/storefront-api/internal/service"
)

// Deps are the services the HTTP API is built on. Metrics may be nil; the
// registry itself is served on a separate listener.
type Deps struct {
	Auth         *service.AuthService
	Products     *service.ProductService
	Policy       service.AccessPolicy
	LoginLimiter *service.TokenBucket
	Metrics      *metrics.Metrics
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	authHandler := NewAuthHandler(d.Auth)
	productHandler := NewProductHandler(d.Products)

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, d.Metrics.Instrument(pattern, h))
	}
	protected := func(operation string, h http.HandlerFunc) http.Handler {
		return Authenticate(d.Auth, Guard(d.Policy, d.Metrics, operation, h))
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)

	handle("POST /auth/register", http.HandlerFunc(authHandler.HandleRegister))
	login := http.Handler(http.HandlerFunc(authHandler.HandleLogin))
	if d.LoginLimiter != nil {
		login = RateLimit(d.LoginLimiter, login)
	}
	handle("POST /auth/login", login)
	handle("GET /auth/me", protected(service.OpAuthMe, authHandler.HandleMe))

	handle("GET /products", http.HandlerFunc(productHandler.HandleList))
	handle("GET /products/{id}", http.HandlerFunc(productHandler.HandleGet))
	handle("POST /products", protected(service.OpProductsCreate, productHandler.HandleCreate))
	handle("PUT /products/{id}", protected(service.OpProductsUpdate, productHandler.HandleUpdate))
	handle("DELETE /products/{id}", protected(service.OpProductsDelete, productHandler.HandleDelete))
}
