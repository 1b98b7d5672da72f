package handler

import (
	"net/http"

	"go-market-auth/internal/middleware"
	"go-market-auth/internal/service"
	"go-market-auth/pkg/apierror"
)

type StorefrontHandler struct {
	service *service.AuthService
}

func NewStorefrontHandler(service *service.AuthService) *StorefrontHandler {
	return &StorefrontHandler{service: service}
}

// Profile returns the caller's storefront profile. Routed behind the
// approval gate, so only approved storefronts reach it.
func (h *StorefrontHandler) Profile(w http.ResponseWriter, r *http.Request) {
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

	if detail.Profile == nil || detail.Profile.Storefront == nil {
		writeError(w, apierror.NotFound("storefront profile not found", principal.ID))
		return
	}

	writeSuccess(w, http.StatusOK, detail.Profile.Storefront, nil)
}
