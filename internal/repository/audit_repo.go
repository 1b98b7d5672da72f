package repository

import (
	"context"
	"fmt"
	"strings"

	"go-market-auth/internal/database"
	"go-market-auth/internal/model"
)

type AuditRepository struct {
	db database.PgxIface
}

func NewAuditRepository(db database.PgxIface) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO approval_audit
		 (action, occurred_at, actor_user_id, actor_username, actor_ip,
		  target_id, target_role, target_username, status_before, status_after)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.Action, entry.OccurredAt,
		entry.Actor.UserID, entry.Actor.Username, entry.Actor.IP,
		entry.TargetID, entry.TargetRole, entry.TargetName, entry.StatusBefore, entry.StatusAfter)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit)

	whereClause := ""
	args := make([]any, 0, 3)
	argIdx := 1
	if action := strings.TrimSpace(query.Action); action != "" {
		whereClause = fmt.Sprintf("WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM approval_audit "+whereClause, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	dataQuery := fmt.Sprintf(
		`SELECT action, occurred_at, actor_user_id, actor_username, actor_ip,
		        target_id, target_role, target_username, status_before, status_after
		 FROM approval_audit %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0, limit)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(
			&e.Action, &e.OccurredAt,
			&e.Actor.UserID, &e.Actor.Username, &e.Actor.IP,
			&e.TargetID, &e.TargetRole, &e.TargetName, &e.StatusBefore, &e.StatusAfter,
		); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan audit entry: %w", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Meta{}, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, model.NewMeta(page, limit, total), nil
}
