package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-market-auth/internal/idgen"
	"go-market-auth/internal/model"
	"go-market-auth/internal/validation"
	"go-market-auth/pkg/apierror"
)

// maxIDAttempts bounds regeneration after a generated id collides with an
// existing row.
const maxIDAttempts = 3

const (
	msgInvalidCredentials = "invalid username or password"
	msgUnauthorized       = "authentication required"
)

type AuthService struct {
	store  IdentityStore
	hasher *PasswordHasher
	tokens *TokenService
	ids    idgen.Generator
	logger *slog.Logger

	// dummyHash is compared against on unknown usernames so both login
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

func NewAuthService(store IdentityStore, hasher *PasswordHasher, tokens *TokenService, ids idgen.Generator, logger *slog.Logger) (*AuthService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ids == nil {
		ids = idgen.NewRandomGenerator()
	}

	dummyHash, err := hasher.Hash("market-auth-dummy-password-1")
	if err != nil {
		return nil, err
	}

	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		ids:       ids,
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}

func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

// Register creates an identity plus its role profile and signs the caller in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error) {
	req = normalizeRegister(req)

	role, apiErr := validation.Register(req)
	if apiErr != nil {
		return model.TokenPair{}, apiErr
	}

	exists, err := s.store.ExistsByUsername(ctx, req.Username)
	if err != nil {
		s.logger.Error("username lookup failed", "username", req.Username, "error", err)
		return model.TokenPair{}, apierror.Internal()
	}
	if exists {
		return model.TokenPair{}, usernameConflict(req.Username)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err)
		return model.TokenPair{}, apierror.Internal()
	}

	identity, err := s.createIdentity(ctx, role, hash, req)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.logger.Info("identity registered", "identity_id", identity.ID, "role", identity.Role, "approval_status", identity.ApprovalStatus)
	return s.issue(identity)
}

// normalizeRegister trims free-text fields so length rules apply to what is stored.
// A blank manager code counts as absent.
func normalizeRegister(req model.RegisterRequest) model.RegisterRequest {
	for _, field := range []*string{
		&req.Username, &req.DisplayName, &req.BankAccount, &req.BankName, &req.Phone, &req.Address,
		&req.VehiclePlate, &req.StorefrontName, &req.MarketCode, &req.Location,
	} {
		*field = strings.TrimSpace(*field)
	}

	if req.ManagerCode != nil {
		code := strings.TrimSpace(*req.ManagerCode)
		req.ManagerCode = nil
		if code != "" {
			req.ManagerCode = &code
		}
	}
	return req
}

func (s *AuthService) createIdentity(ctx context.Context, role model.Role, hash string, req model.RegisterRequest) (model.Identity, error) {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		identity, profile, err := s.buildRecords(role, hash, req)
		if err != nil {
			s.logger.Error("id generation failed", "error", err)
			return model.Identity{}, apierror.Internal()
		}

		err = s.store.CreateWithProfile(ctx, identity, profile)
		switch {
		case err == nil:
			return identity, nil
		case errors.Is(err, model.ErrIDCollision):
			s.logger.Warn("generated id collided; retrying", "attempt", attempt, "identity_id", identity.ID)
			continue
		case errors.Is(err, model.ErrUsernameTaken):
			return model.Identity{}, usernameConflict(req.Username)
		case errors.Is(err, model.ErrMarketNotFound):
			return model.Identity{}, apierror.Validation(apierror.CodeForeignKeyMissing, "referenced record does not exist", map[string]string{
				"market_code": "Market does not exist",
			})
		case errors.Is(err, model.ErrManagerNotFound):
			return model.Identity{}, apierror.Validation(apierror.CodeForeignKeyMissing, "referenced record does not exist", map[string]string{
				"manager_code": "Manager does not exist",
			})
		case errors.Is(err, model.ErrValueTooLong):
			return model.Identity{}, apierror.Validation(apierror.CodeValidation, "a field value is too long", nil)
		default:
			s.logger.Error("create identity failed", "username", req.Username, "role", role, "error", err)
			return model.Identity{}, apierror.Internal()
		}
	}

	s.logger.Error("id generation exhausted retries", "attempts", maxIDAttempts, "role", role)
	return model.Identity{}, apierror.Internal()
}

func (s *AuthService) buildRecords(role model.Role, hash string, req model.RegisterRequest) (model.Identity, model.RoleProfile, error) {
	identityID, err := s.ids.New(model.IdentityIDPrefix)
	if err != nil {
		return model.Identity{}, model.RoleProfile{}, err
	}
	profileID, err := s.ids.New(role.IDPrefix())
	if err != nil {
		return model.Identity{}, model.RoleProfile{}, err
	}

	now := time.Now().UTC()
	identity := model.Identity{
		ID:             identityID,
		Username:       req.Username,
		PasswordHash:   hash,
		DisplayName:    req.DisplayName,
		Role:           role,
		ApprovalStatus: role.InitialStatus(),
		Gender:         req.Gender,
		BankAccount:    strings.TrimSpace(req.BankAccount),
		BankName:       strings.TrimSpace(req.BankName),
		Phone:          strings.TrimSpace(req.Phone),
		Address:        strings.TrimSpace(req.Address),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	profile := model.RoleProfile{Role: role}
	switch role {
	case model.RoleBuyer:
		profile.Buyer = &model.BuyerProfile{Weight: req.Weight, Height: req.Height}
	case model.RoleShipper:
		profile.Shipper = &model.ShipperProfile{
			VehiclePlate: strings.TrimSpace(req.VehiclePlate),
			VehicleType:  req.VehicleType,
		}
	case model.RoleStorefront:
		profile.Storefront = &model.StorefrontProfile{
			Name:         strings.TrimSpace(req.StorefrontName),
			MarketCode:   strings.TrimSpace(req.MarketCode),
			Location:     strings.TrimSpace(req.Location),
			ManagerCode:  req.ManagerCode,
			RegisteredAt: now,
		}
	case model.RoleManager:
		profile.Manager = &model.ManagerProfile{}
	default:
		return model.Identity{}, model.RoleProfile{}, fmt.Errorf("%w: role %q", model.ErrInvalidInput, role)
	}
	profile.SetIDs(profileID, identityID)

	return identity, profile, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	if apiErr := validation.Login(req); apiErr != nil {
		return model.TokenPair{}, apiErr
	}

	identity, err := s.store.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, model.ErrIdentityNotFound) {
		s.hasher.Verify(req.Password, s.dummyHash)
		s.logger.Warn("login rejected", "reason", "unknown username", "username", req.Username)
		return model.TokenPair{}, apierror.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		s.logger.Error("login lookup failed", "username", req.Username, "error", err)
		return model.TokenPair{}, apierror.Internal()
	}

	if !s.hasher.Verify(req.Password, identity.PasswordHash) {
		s.logger.Warn("login rejected", "reason", "password mismatch", "identity_id", identity.ID)
		return model.TokenPair{}, apierror.Unauthorized(msgInvalidCredentials)
	}

	return s.issue(identity)
}

// Refresh verifies a refresh token, reloads its identity and issues a new
// pair carrying the identity's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		s.logger.Warn("refresh rejected", "reason", "missing refresh token")
		return model.TokenPair{}, apierror.Unauthorized(msgUnauthorized)
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Warn("refresh rejected", "reason", err.Error())
		return model.TokenPair{}, apierror.Unauthorized(msgUnauthorized)
	}

	identity, err := s.loadIdentity(ctx, claims.Subject)
	if err != nil {
		return model.TokenPair{}, err
	}

	return s.issue(identity)
}

// ResolvePrincipal authenticates an access token and returns the caller as
// currently stored, not as described by the token.
func (s *AuthService) ResolvePrincipal(ctx context.Context, accessToken string) (model.Principal, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		s.logger.Warn("access token rejected", "reason", err.Error())
		return model.Principal{}, apierror.Unauthorized(msgUnauthorized)
	}

	identity, err := s.loadIdentity(ctx, claims.Subject)
	if err != nil {
		return model.Principal{}, err
	}

	return identity.Principal(), nil
}

// Me returns the caller's identity together with its role profile.
func (s *AuthService) Me(ctx context.Context, identityID string) (model.IdentityDetail, error) {
	identity, err := s.loadIdentity(ctx, identityID)
	if err != nil {
		return model.IdentityDetail{}, err
	}

	detail := model.IdentityDetail{Identity: identity}

	profile, err := s.store.FindProfile(ctx, identity.ID, identity.Role)
	switch {
	case err == nil:
		detail.Profile = &profile
	case errors.Is(err, model.ErrProfileNotFound):
		s.logger.Warn("identity has no role profile", "identity_id", identity.ID, "role", identity.Role)
	default:
		s.logger.Error("load role profile failed", "identity_id", identity.ID, "error", err)
		return model.IdentityDetail{}, apierror.Internal()
	}

	return detail, nil
}

// EnsureManager creates a manager identity with the given credentials unless
// the username is already taken.
func (s *AuthService) EnsureManager(ctx context.Context, username string, password string, displayName string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}
	if displayName == "" {
		displayName = username
	}

	exists, err := s.store.ExistsByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check manager username: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}

	req := model.RegisterRequest{Username: username, DisplayName: displayName}
	identity, err := s.createIdentity(ctx, model.RoleManager, hash, req)
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.CodeConflict {
			return false, nil
		}
		return false, fmt.Errorf("create manager: %w", err)
	}

	s.logger.Info("manager account seeded", "identity_id", identity.ID, "username", identity.Username)
	return true, nil
}

func (s *AuthService) loadIdentity(ctx context.Context, id string) (model.Identity, error) {
	identity, err := s.store.FindByID(ctx, id)
	if errors.Is(err, model.ErrIdentityNotFound) {
		s.logger.Warn("token subject no longer exists", "identity_id", id)
		return model.Identity{}, apierror.Unauthorized(msgUnauthorized)
	}
	if err != nil {
		s.logger.Error("identity lookup failed", "identity_id", id, "error", err)
		return model.Identity{}, apierror.Internal()
	}
	return identity, nil
}

func (s *AuthService) issue(identity model.Identity) (model.TokenPair, error) {
	pair, err := s.tokens.IssuePair(identity)
	if err != nil {
		s.logger.Error("token issuance failed", "identity_id", identity.ID, "error", err)
		return model.TokenPair{}, apierror.Internal()
	}
	return pair, nil
}

func usernameConflict(username string) *apierror.APIError {
	return apierror.Conflict("username already exists", username)
}
