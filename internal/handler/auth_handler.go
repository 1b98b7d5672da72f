package handler

import (
	"net/http"

	"go-market-auth/internal/middleware"
	"go-market-auth/internal/model"
	"go-market-auth/internal/service"
	"go-market-auth/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	cookie  RefreshCookie
}

func NewAuthHandler(service *service.AuthService, cookie RefreshCookie) *AuthHandler {
	if cookie.TTL <= 0 {
		cookie.TTL = service.Tokens().RefreshTTL()
	}
	return &AuthHandler{service: service, cookie: cookie}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookie.set(w, pair.RefreshToken)
	writeSuccess(w, http.StatusCreated, pair, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookie.set(w, pair.RefreshToken)
	writeSuccess(w, http.StatusOK, pair, nil)
}

// Refresh rotates the session. The refresh token is read from the cookie only.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.service.Refresh(r.Context(), h.cookie.read(r))
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookie.set(w, pair.RefreshToken)
	writeSuccess(w, http.StatusOK, model.AccessTokenData{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   pair.ExpiresIn,
	}, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookie.clear(w)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	detail, err := h.service.Me(r.Context(), principal.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, detail, nil)
}
