package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-market-auth/internal/model"
	"go-market-auth/pkg/apierror"
)

type principalResolver interface {
	ResolvePrincipal(ctx context.Context, accessToken string) (model.Principal, error)
}

type contextKey string

const principalContextKey contextKey = "auth_principal"

const (
	msgAuthRequired    = "authentication required"
	msgPendingApproval = "account is awaiting manager approval"
	msgForbidden       = "insufficient permissions"
)

type AuthMiddleware struct {
	resolver principalResolver
}

func NewAuthMiddleware(resolver principalResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth authenticates the bearer token and attaches the caller, as
// currently stored, to the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			slog.Debug("authentication rejected", "reason", "missing bearer token", "path", r.URL.Path)
			writeAPIError(w, apierror.Unauthorized(msgAuthRequired))
			return
		}

		principal, err := m.resolver.ResolvePrincipal(r.Context(), token)
		if err != nil {
			var apiErr *apierror.APIError
			if !errors.As(err, &apiErr) {
				slog.Error("resolve principal failed", "error", err)
				apiErr = apierror.Internal()
			}
			writeAPIError(w, apiErr)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Authorize runs the approval gate and then the role gate. An empty role list
// admits any approved caller.
func (m *AuthMiddleware) Authorize(allowedRoles ...model.Role) func(http.Handler) http.Handler {
	roleSet := make(map[model.Role]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAPIError(w, apierror.Unauthorized(msgAuthRequired))
				return
			}

			if principal.Role.RequiresApproval() && principal.ApprovalStatus != model.StatusApproved {
				slog.Info("approval gate denied request", "identity_id", principal.ID, "status", principal.ApprovalStatus, "path", r.URL.Path)
				writeAPIError(w, apierror.Forbidden(apierror.CodePendingApproval, msgPendingApproval))
				return
			}

			if len(roleSet) > 0 {
				if _, allowed := roleSet[principal.Role]; !allowed {
					slog.Info("role gate denied request", "identity_id", principal.ID, "role", principal.Role, "path", r.URL.Path)
					writeAPIError(w, apierror.Forbidden(apierror.CodeForbidden, msgForbidden))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func WithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	return principal, ok
}

func writeAPIError(w http.ResponseWriter, apiErr *apierror.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
			Fields:  apiErr.Fields,
		},
	})
}
