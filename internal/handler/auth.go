package handler

import (
	"errors"
	"net/http"

	"github.com/msomdec/storefront-api/internal/domain"
	"github.com/msomdec/storefront-api/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleRegister processes a JSON registration request.
// POST /auth/register
// Request:  {"email":"...","password":"...","role":"user"}
// Response: 201 {"id":1,"email":"...","role":"user",...}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// HandleLogin processes a JSON login request.
// POST /auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"accessToken":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenDTO{AccessToken: token})
}

// HandleMe returns the stored account of the caller.
// GET /auth/me
// Response: {"id":1,"email":"...","role":"user",...} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, domain.ErrMissingIdentity)
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Validly signed, but the account no longer exists.
			writeDomainError(w, r, domain.ErrUnauthenticated)
			return
		}
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(user))
}
