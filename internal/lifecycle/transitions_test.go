package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/servline/servline-backend/pkg/enums"
	pkgerrors "github.com/servline/servline-backend/pkg/errors"
)

func TestCanTransitionTable(t *testing.T) {
	tests := []struct {
		name string
		from enums.OrderStatus
		to   enums.OrderStatus
		role enums.ActorRole
		code pkgerrors.Code // empty = allowed
	}{
		{name: "pending confirm", from: enums.OrderStatusPending, to: enums.OrderStatusConfirmed, role: enums.ActorRoleOperations},
		{name: "pending cancel", from: enums.OrderStatusPending, to: enums.OrderStatusCancelled, role: enums.ActorRoleOperations},
		{name: "confirmed prepare ops", from: enums.OrderStatusConfirmed, to: enums.OrderStatusPreparing, role: enums.ActorRoleOperations},
		{name: "confirmed prepare kitchen", from: enums.OrderStatusConfirmed, to: enums.OrderStatusPreparing, role: enums.ActorRoleKitchen},
		{name: "preparing ready", from: enums.OrderStatusPreparing, to: enums.OrderStatusReady, role: enums.ActorRoleKitchen},
		{name: "ready dispatch", from: enums.OrderStatusReady, to: enums.OrderStatusInTransit, role: enums.ActorRoleOperations},
		{name: "ready direct pickup", from: enums.OrderStatusReady, to: enums.OrderStatusDelivered, role: enums.ActorRoleOperations},
		{name: "in transit picked up", from: enums.OrderStatusInTransit, to: enums.OrderStatusPickedUp, role: enums.ActorRoleOperations},
		{name: "in transit failed", from: enums.OrderStatusInTransit, to: enums.OrderStatusDeliveryFailed, role: enums.ActorRoleOperations},
		{name: "picked up delivered", from: enums.OrderStatusPickedUp, to: enums.OrderStatusDelivered, role: enums.ActorRoleOperations},
		{name: "failed returned", from: enums.OrderStatusDeliveryFailed, to: enums.OrderStatusReturned, role: enums.ActorRoleOperations},
		{name: "refund override from ready", from: enums.OrderStatusReady, to: enums.OrderStatusRefunded, role: enums.ActorRoleOperations},
		{name: "refund override from pending", from: enums.OrderStatusPending, to: enums.OrderStatusRefunded, role: enums.ActorRoleOperations},

		{name: "no pending to ready edge", from: enums.OrderStatusPending, to: enums.OrderStatusReady, role: enums.ActorRoleOperations, code: pkgerrors.CodeInvalidTransition},
		{name: "no backwards edge", from: enums.OrderStatusReady, to: enums.OrderStatusPreparing, role: enums.ActorRoleKitchen, code: pkgerrors.CodeInvalidTransition},
		{name: "no refund from delivered", from: enums.OrderStatusDelivered, to: enums.OrderStatusRefunded, role: enums.ActorRoleOperations, code: pkgerrors.CodeInvalidTransition},
		{name: "no exit from cancelled", from: enums.OrderStatusCancelled, to: enums.OrderStatusConfirmed, role: enums.ActorRoleOperations, code: pkgerrors.CodeInvalidTransition},

		{name: "kitchen cannot dispatch", from: enums.OrderStatusReady, to: enums.OrderStatusInTransit, role: enums.ActorRoleKitchen, code: pkgerrors.CodeForbidden},
		{name: "kitchen cannot confirm", from: enums.OrderStatusPending, to: enums.OrderStatusConfirmed, role: enums.ActorRoleKitchen, code: pkgerrors.CodeForbidden},
		{name: "ops cannot mark ready", from: enums.OrderStatusPreparing, to: enums.OrderStatusReady, role: enums.ActorRoleOperations, code: pkgerrors.CodeForbidden},
		{name: "kitchen cannot refund", from: enums.OrderStatusConfirmed, to: enums.OrderStatusRefunded, role: enums.ActorRoleKitchen, code: pkgerrors.CodeForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CanTransition(tc.from, tc.to, tc.role)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestAllowedTargetsPerRole(t *testing.T) {
	assert.ElementsMatch(t,
		[]enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
		AllowedTargets(enums.OrderStatusPending, enums.ActorRoleOperations))

	assert.ElementsMatch(t,
		[]enums.OrderStatus{enums.OrderStatusPreparing},
		AllowedTargets(enums.OrderStatusConfirmed, enums.ActorRoleKitchen))

	assert.Empty(t, AllowedTargets(enums.OrderStatusReady, enums.ActorRoleKitchen))
	assert.Empty(t, AllowedTargets(enums.OrderStatusDelivered, enums.ActorRoleOperations))
}
