package handler

import (
	"net/http"

	"go-market-auth/internal/middleware"
	"go-market-auth/internal/model"
)

// actorFromRequest identifies who made an audited decision.
func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}

	if principal, ok := middleware.PrincipalFromContext(r.Context()); ok {
		actor.UserID = principal.ID
		actor.Username = principal.Username
	}

	return actor
}
