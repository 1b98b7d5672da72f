package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-market-auth/internal/idgen"
	"go-market-auth/internal/model"
	"go-market-auth/internal/repository/memory"
	"go-market-auth/pkg/apierror"
)

const testMarket = "CHOLON"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()

	tokens, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "market-auth-test",
	})
	require.NoError(t, err)
	return tokens
}

func newTestAuthService(t *testing.T, store IdentityStore) *AuthService {
	t.Helper()

	svc, err := NewAuthService(store, NewPasswordHasher(bcrypt.MinCost), newTestTokens(t), idgen.NewRandomGenerator(), discardLogger())
	require.NoError(t, err)
	return svc
}

func newMemoryStore() *memory.Store {
	return memory.NewStore(model.Market{Code: testMarket, Name: "Cho Lon"})
}

func requireAPIError(t *testing.T, err error, status int, code string) *apierror.APIError {
	t.Helper()

	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected *apierror.APIError, got %v", err)
	require.Equal(t, status, apiErr.HTTPStatus)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func buyerRequest(username string) model.RegisterRequest {
	return model.RegisterRequest{
		Username:    username,
		Password:    "secret123",
		DisplayName: "Buyer " + username,
		Role:        "buyer",
	}
}

func storefrontRequest(username string) model.RegisterRequest {
	return model.RegisterRequest{
		Username:       username,
		Password:       "secret123",
		DisplayName:    "Stall " + username,
		Role:           "storefront",
		StorefrontName: "Fresh Fish",
		MarketCode:     testMarket,
		Location:       "Row B, stall 4",
	}
}

func registerStorefront(t *testing.T, svc *AuthService, username string) string {
	t.Helper()

	pair, err := svc.Register(context.Background(), storefrontRequest(username))
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, pair.User.ApprovalStatus)

	return pair.User.ID
}
