package lifecycle

import (
	"fmt"

	"github.com/servline/servline-backend/pkg/enums"
	pkgerrors "github.com/servline/servline-backend/pkg/errors"
)

type edge struct {
	to    enums.OrderStatus
	roles []enums.ActorRole
}

var opsOnly = []enums.ActorRole{enums.ActorRoleOperations}

// transitionTable is the single source of truth for which status moves exist
// and who may request them. Views derive their buttons from it instead of
// keeping per-screen copies.
var transitionTable = map[enums.OrderStatus][]edge{
	enums.OrderStatusPending: {
		{to: enums.OrderStatusConfirmed, roles: opsOnly},
		{to: enums.OrderStatusCancelled, roles: opsOnly},
	},
	enums.OrderStatusConfirmed: {
		{to: enums.OrderStatusPreparing, roles: []enums.ActorRole{enums.ActorRoleOperations, enums.ActorRoleKitchen}},
	},
	enums.OrderStatusPreparing: {
		{to: enums.OrderStatusReady, roles: []enums.ActorRole{enums.ActorRoleKitchen}},
	},
	enums.OrderStatusReady: {
		{to: enums.OrderStatusInTransit, roles: opsOnly},
		// direct pickup, no courier leg
		{to: enums.OrderStatusDelivered, roles: opsOnly},
	},
	enums.OrderStatusInTransit: {
		{to: enums.OrderStatusPickedUp, roles: opsOnly},
		{to: enums.OrderStatusDeliveryFailed, roles: opsOnly},
	},
	enums.OrderStatusPickedUp: {
		{to: enums.OrderStatusDelivered, roles: opsOnly},
	},
	enums.OrderStatusDeliveryFailed: {
		{to: enums.OrderStatusReturned, roles: opsOnly},
	},
}

// CanTransition reports whether role may move an order from one status to
// another. It returns nil when the edge exists and the role is permitted, a
// Forbidden error when the edge exists but the role does not match, and an
// InvalidTransition error when there is no such edge.
func CanTransition(from, to enums.OrderStatus, role enums.ActorRole) error {
	for _, candidate := range transitionTable[from] {
		if candidate.to != to {
			continue
		}
		if !roleAllowed(candidate.roles, role) {
			return pkgerrors.New(pkgerrors.CodeForbidden,
				fmt.Sprintf("role %s may not move an order from %s to %s", role, from, to))
		}
		return nil
	}

	// administrative refund override, available from any non-terminal status
	if to == enums.OrderStatusRefunded && !from.IsTerminal() {
		if role != enums.ActorRoleOperations {
			return pkgerrors.New(pkgerrors.CodeForbidden,
				fmt.Sprintf("role %s may not refund an order", role))
		}
		return nil
	}

	return pkgerrors.New(pkgerrors.CodeInvalidTransition,
		fmt.Sprintf("no transition from %s to %s", from, to))
}

// AllowedTargets lists the statuses role may move an order in the given
// status to. Views use it to render only legal actions.
func AllowedTargets(from enums.OrderStatus, role enums.ActorRole) []enums.OrderStatus {
	var targets []enums.OrderStatus
	for _, candidate := range transitionTable[from] {
		if roleAllowed(candidate.roles, role) {
			targets = append(targets, candidate.to)
		}
	}
	if role == enums.ActorRoleOperations && !from.IsTerminal() {
		targets = append(targets, enums.OrderStatusRefunded)
	}
	return targets
}

func roleAllowed(roles []enums.ActorRole, role enums.ActorRole) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}
