package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-market-auth/internal/model"
)

const bearerTokenType = "Bearer"

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService signs and verifies the HS256 access/refresh pair. Each token
// kind has its own secret and typ claim, so neither is accepted in place of
// the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccess(identity model.Identity) (string, error) {
	claims := &model.AccessClaims{
		Username:         identity.Username,
		Role:             identity.Role,
		Type:             model.TokenTypeAccess,
		RegisteredClaims: s.registered(identity.ID, s.accessTTL),
	}
	return sign(claims, s.accessSecret)
}

func (s *TokenService) IssueRefresh(identity model.Identity) (string, error) {
	claims := &model.RefreshClaims{
		Username:         identity.Username,
		Type:             model.TokenTypeRefresh,
		RegisteredClaims: s.registered(identity.ID, s.refreshTTL),
	}
	return sign(claims, s.refreshSecret)
}

// IssuePair mints a fresh access and refresh token for identity.
func (s *TokenService) IssuePair(identity model.Identity) (model.TokenPair, error) {
	access, err := s.IssueAccess(identity)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, err := s.IssueRefresh(identity)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    bearerTokenType,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         identity.Summary(),
	}, nil
}

func (s *TokenService) VerifyAccess(raw string) (*model.AccessClaims, error) {
	claims := &model.AccessClaims{}
	if err := s.parse(raw, claims, s.accessSecret); err != nil {
		return nil, err
	}
	if claims.Type != model.TokenTypeAccess {
		return nil, fmt.Errorf("%w: unexpected token type %q", model.ErrTokenInvalid, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", model.ErrTokenInvalid)
	}
	return claims, nil
}

func (s *TokenService) VerifyRefresh(raw string) (*model.RefreshClaims, error) {
	claims := &model.RefreshClaims{}
	if err := s.parse(raw, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != model.TokenTypeRefresh {
		return nil, fmt.Errorf("%w: unexpected token type %q", model.ErrTokenInvalid, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", model.ErrTokenInvalid)
	}
	return claims, nil
}

func (s *TokenService) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now().UTC()
	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *TokenService) parse(raw string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return model.ErrTokenInvalid
	}
	return nil
}

func sign(claims jwt.Claims, secret []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
