package service

import (
	"context"

	"go-market-auth/internal/model"
)

// IdentityStore is the persistence surface the auth and approval services
// depend on. Implementations report failures with the sentinel errors in
// internal/model.
type IdentityStore interface {
	// CreateWithProfile persists identity and its role profile atomically.
	// Neither row remains if any step fails.
	CreateWithProfile(ctx context.Context, identity model.Identity, profile model.RoleProfile) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindByUsername(ctx context.Context, username string) (model.Identity, error)
	FindByID(ctx context.Context, id string) (model.Identity, error)
	FindProfile(ctx context.Context, identityID string, role model.Role) (model.RoleProfile, error)
	ListIdentities(ctx context.Context, query model.IdentityQuery) ([]model.Identity, model.Meta, error)
	// UpdateApprovalStatus moves id from one status to another and reports
	// whether the row was in the expected status.
	UpdateApprovalStatus(ctx context.Context, id string, from model.ApprovalStatus, to model.ApprovalStatus) (bool, error)
	// DeleteIfStatus removes id only while it holds status.
	DeleteIfStatus(ctx context.Context, id string, status model.ApprovalStatus) (bool, error)
	CountStats(ctx context.Context) (model.IdentityStats, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}
