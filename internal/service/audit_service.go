package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-market-auth/internal/model"
	"go-market-auth/pkg/apierror"
)

type AuditService struct {
	store  AuditStore
	logger *slog.Logger
}

func NewAuditService(store AuditStore, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{store: store, logger: logger}
}

// Record stores entry. Failures are logged and never surface to the caller.
func (s *AuditService) Record(ctx context.Context, entry model.AuditEntry) {
	if s == nil || s.store == nil {
		return
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	if len(entry.Actor.IP) > model.MaxActorIPLength {
		entry.Actor.IP = entry.Actor.IP[:model.MaxActorIPLength]
	}

	if err := s.store.Log(ctx, entry); err != nil {
		s.logger.Error("audit write failed", "action", entry.Action, "target_id", entry.TargetID, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query.Page, query.Limit = model.NormalizePage(query.Page, query.Limit)
	query.Action = strings.ToLower(strings.TrimSpace(query.Action))

	switch query.Action {
	case "", model.AuditActionApprove, model.AuditActionReject:
	default:
		return nil, model.Meta{}, apierror.New(apierror.CodeBadRequest, "invalid audit action filter", query.Action, http.StatusBadRequest)
	}

	items, meta, err := s.store.Query(ctx, query)
	if err != nil {
		s.logger.Error("audit query failed", "error", err)
		return nil, model.Meta{}, apierror.Internal()
	}
	return items, meta, nil
}
