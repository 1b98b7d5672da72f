package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"go-market-auth/internal/database"
	"go-market-auth/internal/model"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgStringTooLong       = "22001"
)

const identityColumns = `id, username, password_hash, display_name, role, approval_status,
	gender, bank_account, bank_name, phone, address, created_at, updated_at`

type IdentityRepository struct {
	db     database.PgxIface
	logger *slog.Logger
}

func NewIdentityRepository(db database.PgxIface, logger *slog.Logger) *IdentityRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityRepository{db: db, logger: logger}
}

// CreateWithProfile inserts the identity row and its profile row in one
// transaction. Constraint violations are translated into model sentinels.
func (r *IdentityRepository) CreateWithProfile(ctx context.Context, identity model.Identity, profile model.RoleProfile) error {
	if !profile.Matches(identity.Role) {
		return model.ErrProfileMismatch
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO identities (`+identityColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			identity.ID, identity.Username, identity.PasswordHash, identity.DisplayName,
			identity.Role, identity.ApprovalStatus, identity.Gender, identity.BankAccount,
			identity.BankName, identity.Phone, identity.Address, identity.CreatedAt, identity.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert identity: %w", err)
		}

		if err := insertProfile(ctx, tx, profile); err != nil {
			return fmt.Errorf("insert %s profile: %w", profile.Role, err)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	if mapped := mapConstraintError(err); mapped != nil {
		r.logger.Debug("identity insert rejected by constraint", "identity_id", identity.ID, "error", err)
		return mapped
	}
	return fmt.Errorf("create identity with profile: %w", err)
}

func insertProfile(ctx context.Context, tx pgx.Tx, profile model.RoleProfile) error {
	var err error
	switch {
	case profile.Buyer != nil:
		p := profile.Buyer
		_, err = tx.Exec(ctx,
			`INSERT INTO buyer_profiles (id, identity_id, weight, height) VALUES ($1, $2, $3, $4)`,
			p.ID, p.IdentityID, p.Weight, p.Height)
	case profile.Shipper != nil:
		p := profile.Shipper
		_, err = tx.Exec(ctx,
			`INSERT INTO shipper_profiles (id, identity_id, vehicle_plate, vehicle_type) VALUES ($1, $2, $3, $4)`,
			p.ID, p.IdentityID, p.VehiclePlate, p.VehicleType)
	case profile.Storefront != nil:
		p := profile.Storefront
		_, err = tx.Exec(ctx,
			`INSERT INTO storefront_profiles (id, identity_id, name, market_code, location, manager_code, rating, registered_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.IdentityID, p.Name, p.MarketCode, p.Location, p.ManagerCode, p.Rating, p.RegisteredAt)
	case profile.Manager != nil:
		p := profile.Manager
		_, err = tx.Exec(ctx,
			`INSERT INTO manager_profiles (id, identity_id, market_code) VALUES ($1, $2, $3)`,
			p.ID, p.IdentityID, p.MarketCode)
	default:
		err = model.ErrProfileMismatch
	}
	return err
}

// mapConstraintError returns the sentinel for a known constraint violation,
// or nil when err is not one.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		switch {
		case pgErr.ConstraintName == "identities_username_key":
			return model.ErrUsernameTaken
		case strings.HasSuffix(pgErr.ConstraintName, "_pkey"):
			return model.ErrIDCollision
		}
	case pgForeignKeyViolation:
		switch pgErr.ConstraintName {
		case "storefront_profiles_market_code_fkey", "manager_profiles_market_code_fkey":
			return model.ErrMarketNotFound
		case "storefront_profiles_manager_code_fkey":
			return model.ErrManagerNotFound
		}
	case pgStringTooLong:
		return model.ErrValueTooLong
	}
	return nil
}

func (r *IdentityRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM identities WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (model.Identity, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Identity{}, model.ErrIdentityNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("find identity by username: %w", err)
	}
	return identity, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (model.Identity, error) {
	row := r.db.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Identity{}, model.ErrIdentityNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("find identity by id: %w", err)
	}
	return identity, nil
}

func scanIdentity(row pgx.Row) (model.Identity, error) {
	var i model.Identity
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.DisplayName, &i.Role, &i.ApprovalStatus,
		&i.Gender, &i.BankAccount, &i.BankName, &i.Phone, &i.Address, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (r *IdentityRepository) FindProfile(ctx context.Context, identityID string, role model.Role) (model.RoleProfile, error) {
	profile := model.RoleProfile{Role: role}

	var err error
	switch role {
	case model.RoleBuyer:
		p := &model.BuyerProfile{}
		err = r.db.QueryRow(ctx,
			`SELECT id, identity_id, weight, height FROM buyer_profiles WHERE identity_id = $1`, identityID).
			Scan(&p.ID, &p.IdentityID, &p.Weight, &p.Height)
		profile.Buyer = p
	case model.RoleShipper:
		p := &model.ShipperProfile{}
		err = r.db.QueryRow(ctx,
			`SELECT id, identity_id, vehicle_plate, vehicle_type FROM shipper_profiles WHERE identity_id = $1`, identityID).
			Scan(&p.ID, &p.IdentityID, &p.VehiclePlate, &p.VehicleType)
		profile.Shipper = p
	case model.RoleStorefront:
		p := &model.StorefrontProfile{}
		err = r.db.QueryRow(ctx,
			`SELECT id, identity_id, name, market_code, location, manager_code, rating, registered_at
			 FROM storefront_profiles WHERE identity_id = $1`, identityID).
			Scan(&p.ID, &p.IdentityID, &p.Name, &p.MarketCode, &p.Location, &p.ManagerCode, &p.Rating, &p.RegisteredAt)
		profile.Storefront = p
	case model.RoleManager:
		p := &model.ManagerProfile{}
		err = r.db.QueryRow(ctx,
			`SELECT id, identity_id, market_code FROM manager_profiles WHERE identity_id = $1`, identityID).
			Scan(&p.ID, &p.IdentityID, &p.MarketCode)
		profile.Manager = p
	default:
		return model.RoleProfile{}, model.ErrProfileNotFound
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return model.RoleProfile{}, model.ErrProfileNotFound
	}
	if err != nil {
		return model.RoleProfile{}, fmt.Errorf("find %s profile: %w", role, err)
	}
	return profile, nil
}

func (r *IdentityRepository) ListIdentities(ctx context.Context, query model.IdentityQuery) ([]model.Identity, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit)

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	argIdx := 1

	if query.Role != "" {
		where = append(where, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, query.Role)
		argIdx++
	}
	if query.Status != "" {
		where = append(where, fmt.Sprintf("approval_status = $%d", argIdx))
		args = append(args, query.Status)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM identities "+whereClause, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count identities: %w", err)
	}

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM identities %s
		 ORDER BY created_at DESC, id
		 LIMIT $%d OFFSET $%d`, identityColumns, whereClause, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	identities := make([]model.Identity, 0, limit)
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Meta{}, fmt.Errorf("iterate identities: %w", err)
	}

	return identities, model.NewMeta(page, limit, total), nil
}

func (r *IdentityRepository) UpdateApprovalStatus(ctx context.Context, id string, from model.ApprovalStatus, to model.ApprovalStatus) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE identities SET approval_status = $3, updated_at = now()
		 WHERE id = $1 AND approval_status = $2`,
		id, from, to)
	if err != nil {
		return false, fmt.Errorf("update approval status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdentityRepository) DeleteIfStatus(ctx context.Context, id string, status model.ApprovalStatus) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM identities WHERE id = $1 AND approval_status = $2`, id, status)
	if err != nil {
		return false, fmt.Errorf("delete identity: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *IdentityRepository) CountStats(ctx context.Context) (model.IdentityStats, error) {
	rows, err := r.db.Query(ctx,
		`SELECT role, COUNT(*), COUNT(*) FILTER (WHERE approval_status = 'pending')
		 FROM identities GROUP BY role`)
	if err != nil {
		return model.IdentityStats{}, fmt.Errorf("count identities by role: %w", err)
	}
	defer rows.Close()

	stats := model.IdentityStats{
		ByRole: map[model.Role]int{
			model.RoleBuyer:      0,
			model.RoleShipper:    0,
			model.RoleStorefront: 0,
			model.RoleManager:    0,
		},
	}
	for rows.Next() {
		var role model.Role
		var count, pending int
		if err := rows.Scan(&role, &count, &pending); err != nil {
			return model.IdentityStats{}, fmt.Errorf("scan role count: %w", err)
		}
		stats.ByRole[role] = count
		stats.Total += count
		stats.PendingApprovals += pending
	}
	if err := rows.Err(); err != nil {
		return model.IdentityStats{}, fmt.Errorf("iterate role counts: %w", err)
	}

	return stats, nil
}
