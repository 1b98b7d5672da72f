package model

import "github.com/golang-jwt/jwt/v5"

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessClaims are carried by the short-lived bearer token.
type AccessClaims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims never carry a role: every rotation re-reads it from the store.
type RefreshClaims struct {
	Username string `json:"username"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"-"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	User         IdentitySummary `json:"user"`
}

type AccessTokenData struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
