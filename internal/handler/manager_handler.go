package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-market-auth/internal/model"
	"go-market-auth/internal/service"
)

type ManagerHandler struct {
	service *service.ApprovalService
}

func NewManagerHandler(service *service.ApprovalService) *ManagerHandler {
	return &ManagerHandler{service: service}
}

func (h *ManagerHandler) Pending(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	items, meta, err := h.service.ListPending(r.Context(),
		query.Get("role"),
		parseIntOrDefault(query.Get("page"), 1),
		parseIntOrDefault(query.Get("limit"), model.DefaultPageLimit),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.IdentityList{Identities: items}, &meta)
}

func (h *ManagerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, identity.Summary(), nil)
}

func (h *ManagerHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Reject(r.Context(), id, actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"id": strings.TrimSpace(id), "rejected": true}, nil)
}

func (h *ManagerHandler) Identities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	items, meta, err := h.service.ListIdentities(r.Context(),
		query.Get("role"),
		query.Get("status"),
		parseIntOrDefault(query.Get("page"), 1),
		parseIntOrDefault(query.Get("limit"), model.DefaultPageLimit),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.IdentityList{Identities: items}, &meta)
}

func (h *ManagerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stats, nil)
}

func (h *ManagerHandler) Audit(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	items, meta, err := h.service.AuditLog(r.Context(), model.AuditQuery{
		Action: strings.TrimSpace(query.Get("action")),
		Page:   parseIntOrDefault(query.Get("page"), 1),
		Limit:  parseIntOrDefault(query.Get("limit"), model.DefaultPageLimit),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}
