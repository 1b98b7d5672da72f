package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-market-auth/internal/model"
	"go-market-auth/pkg/apierror"
)

// ApprovalService drives the manager-side workflow for roles that require
// approval before they may use gated endpoints.
type ApprovalService struct {
	store  IdentityStore
	audit  *AuditService
	logger *slog.Logger
}

func NewApprovalService(store IdentityStore, audit *AuditService, logger *slog.Logger) *ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalService{store: store, audit: audit, logger: logger}
}

// ListPending returns pending identities of rawRole, storefront when empty.
func (s *ApprovalService) ListPending(ctx context.Context, rawRole string, page int, limit int) ([]model.Identity, model.Meta, error) {
	role := model.RoleStorefront
	if strings.TrimSpace(rawRole) != "" {
		parsed, ok := model.ParseRole(rawRole)
		if !ok {
			return nil, model.Meta{}, invalidFilter("role", rawRole)
		}
		role = parsed
	}

	return s.list(ctx, model.IdentityQuery{Role: role, Status: model.StatusPending, Page: page, Limit: limit})
}

func (s *ApprovalService) ListIdentities(ctx context.Context, rawRole string, rawStatus string, page int, limit int) ([]model.Identity, model.Meta, error) {
	query := model.IdentityQuery{Page: page, Limit: limit}

	if strings.TrimSpace(rawRole) != "" {
		role, ok := model.ParseRole(rawRole)
		if !ok {
			return nil, model.Meta{}, invalidFilter("role", rawRole)
		}
		query.Role = role
	}
	if strings.TrimSpace(rawStatus) != "" {
		status, ok := model.ParseApprovalStatus(rawStatus)
		if !ok {
			return nil, model.Meta{}, invalidFilter("status", rawStatus)
		}
		query.Status = status
	}

	return s.list(ctx, query)
}

func (s *ApprovalService) list(ctx context.Context, query model.IdentityQuery) ([]model.Identity, model.Meta, error) {
	query.Page, query.Limit = model.NormalizePage(query.Page, query.Limit)

	items, meta, err := s.store.ListIdentities(ctx, query)
	if err != nil {
		s.logger.Error("list identities failed", "role", query.Role, "status", query.Status, "error", err)
		return nil, model.Meta{}, apierror.Internal()
	}
	return items, meta, nil
}

// Approve moves a pending identity to approved. The transition is a
// conditional update, so of two concurrent approvals only one succeeds.
func (s *ApprovalService) Approve(ctx context.Context, id string, actor model.AuditActor) (model.Identity, error) {
	identity, err := s.pendingTarget(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}

	updated, err := s.store.UpdateApprovalStatus(ctx, identity.ID, model.StatusPending, model.StatusApproved)
	if err != nil {
		s.logger.Error("approve identity failed", "identity_id", identity.ID, "error", err)
		return model.Identity{}, apierror.Internal()
	}
	if !updated {
		return model.Identity{}, notPending(identity.ID)
	}

	before := identity.ApprovalStatus
	identity.ApprovalStatus = model.StatusApproved
	identity.UpdatedAt = time.Now().UTC()

	s.audit.Record(ctx, model.AuditEntry{
		Action:       model.AuditActionApprove,
		Actor:        actor,
		TargetID:     identity.ID,
		TargetRole:   identity.Role,
		TargetName:   identity.Username,
		StatusBefore: before,
		StatusAfter:  identity.ApprovalStatus,
	})
	s.logger.Info("identity approved", "identity_id", identity.ID, "actor_id", actor.UserID)

	return identity, nil
}

// Reject permanently deletes a pending identity; its role profile goes with it.
func (s *ApprovalService) Reject(ctx context.Context, id string, actor model.AuditActor) error {
	identity, err := s.pendingTarget(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteIfStatus(ctx, identity.ID, model.StatusPending)
	if err != nil {
		s.logger.Error("reject identity failed", "identity_id", identity.ID, "error", err)
		return apierror.Internal()
	}
	if !deleted {
		return notPending(identity.ID)
	}

	s.audit.Record(ctx, model.AuditEntry{
		Action:       model.AuditActionReject,
		Actor:        actor,
		TargetID:     identity.ID,
		TargetRole:   identity.Role,
		TargetName:   identity.Username,
		StatusBefore: identity.ApprovalStatus,
	})
	s.logger.Info("identity rejected and removed", "identity_id", identity.ID, "actor_id", actor.UserID)

	return nil
}

func (s *ApprovalService) pendingTarget(ctx context.Context, id string) (model.Identity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Identity{}, apierror.New(apierror.CodeBadRequest, "identity id is required", "id", http.StatusBadRequest)
	}

	identity, err := s.store.FindByID(ctx, id)
	if errors.Is(err, model.ErrIdentityNotFound) {
		return model.Identity{}, apierror.NotFound("identity not found", id)
	}
	if err != nil {
		s.logger.Error("identity lookup failed", "identity_id", id, "error", err)
		return model.Identity{}, apierror.Internal()
	}

	if !identity.Role.RequiresApproval() {
		return model.Identity{}, apierror.New(apierror.CodeBadRequest, "identity role does not require approval", string(identity.Role), http.StatusBadRequest)
	}

	switch identity.ApprovalStatus {
	case model.StatusPending:
		return identity, nil
	case model.StatusApproved:
		return model.Identity{}, apierror.Conflict("identity is already approved", identity.ID)
	default:
		return model.Identity{}, notPending(identity.ID)
	}
}

func (s *ApprovalService) Stats(ctx context.Context) (model.IdentityStats, error) {
	stats, err := s.store.CountStats(ctx)
	if err != nil {
		s.logger.Error("identity stats failed", "error", err)
		return model.IdentityStats{}, apierror.Internal()
	}
	return stats, nil
}

func (s *ApprovalService) AuditLog(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.audit.Query(ctx, query)
}

func notPending(id string) *apierror.APIError {
	return apierror.Conflict("identity is not pending approval", id)
}

func invalidFilter(field string, value string) *apierror.APIError {
	return apierror.Validation(apierror.CodeValidation, "invalid filter", map[string]string{
		field: "Unknown value " + value,
	})
}
