package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/servline/servline-backend/api/responses"
	"github.com/servline/servline-backend/pkg/enums"
	pkgerrors "github.com/servline/servline-backend/pkg/errors"
	"github.com/servline/servline-backend/pkg/logger"
)

type contextKey string

const (
	ctxActorRole contextKey = "actor_role"
	ctxBranchID  contextKey = "branch_id"
)

// The gateway terminates authentication and forwards the session-derived
// identity in these headers; this service trusts them as-is.
const (
	actorRoleHeader = "X-Actor-Role"
	branchIDHeader  = "X-Branch-Id"
)

// ActorContext extracts the actor role and branch scope for every fulfillment
// route and rejects requests that arrive without them.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawRole := strings.TrimSpace(r.Header.Get(actorRoleHeader))
			if rawRole == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor role missing"))
				return
			}
			role, err := enums.ParseActorRole(rawRole)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown actor role"))
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ctxActorRole, role)

			if rawBranch := strings.TrimSpace(r.Header.Get(branchIDHeader)); rawBranch != "" {
				branchID, err := uuid.Parse(rawBranch)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid branch id"))
					return
				}
				ctx = context.WithValue(ctx, ctxBranchID, branchID)
				if logg != nil {
					ctx = logg.WithBranchID(ctx, branchID.String())
				}
			}

			if logg != nil {
				ctx = logg.WithActorRole(ctx, role.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleFromContext returns the actor role injected by ActorContext.
func RoleFromContext(ctx context.Context) (enums.ActorRole, bool) {
	if ctx == nil {
		return "", false
	}
	role, ok := ctx.Value(ctxActorRole).(enums.ActorRole)
	return role, ok
}

// BranchIDFromContext returns the branch scope injected by ActorContext.
func BranchIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	branchID, ok := ctx.Value(ctxBranchID).(uuid.UUID)
	return branchID, ok
}
