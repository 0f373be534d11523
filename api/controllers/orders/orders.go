package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servline/servline-backend/api/middleware"
	"github.com/servline/servline-backend/api/responses"
	"github.com/servline/servline-backend/api/validators"
	internalorders "github.com/servline/servline-backend/internal/orders"
	"github.com/servline/servline-backend/internal/reconciliation"
	"github.com/servline/servline-backend/pkg/db/models"
	"github.com/servline/servline-backend/pkg/enums"
	pkgerrors "github.com/servline/servline-backend/pkg/errors"
	"github.com/servline/servline-backend/pkg/logger"
	"github.com/servline/servline-backend/pkg/pagination"
)

// LifecycleService is the slice of the lifecycle engine the handlers need.
type LifecycleService interface {
	RequestTransition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, role enums.ActorRole) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, branchID uuid.UUID, params pagination.Params, filters internalorders.Filters) (*internalorders.OrderList, error)
	NextActions(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) (enums.OrderStatus, []enums.OrderStatus, error)
}

// ReconciliationService exposes the preview and commit halves of the stock
// reconciliation step.
type ReconciliationService interface {
	Reconcile(ctx context.Context, orderID uuid.UUID) (*reconciliation.Result, error)
	Apply(ctx context.Context, orderID uuid.UUID, resolutions []reconciliation.LineResolution) (*models.Order, error)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type applyResolutionRequest struct {
	OrderItemID  string `json:"order_item_id" validate:"required,uuid"`
	Resolution   string `json:"resolution" validate:"required,oneof=refund transfer_to_other_branch wallet_credit"`
	FulfilledQty *int   `json:"fulfilled_qty,omitempty"`
}

type applyRequest struct {
	Resolutions []applyResolutionRequest `json:"resolutions" validate:"omitempty,dive"`
}

type actionsResponse struct {
	OrderID uuid.UUID           `json:"order_id"`
	Status  enums.OrderStatus   `json:"status"`
	Actions []enums.OrderStatus `json:"actions"`
}

// List returns the branch-scoped order page the kitchen and operations
// consoles poll.
func List(svc LifecycleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}

		branchID, ok := middleware.BranchIDFromContext(r.Context())
		if !ok {
			parsed, err := validators.ParseQueryUUID(r, "branch_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			branchID = parsed
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		status, err := validators.ParseQueryStatus(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), branchID,
			pagination.Params{Limit: limit, Cursor: cursor},
			internalorders.Filters{Status: status})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// Detail returns one order with its line items.
func Detail(svc LifecycleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, internalorders.Summarize(*order))
	}
}

// UpdateStatus requests a single lifecycle transition for the caller's role.
func UpdateStatus(svc LifecycleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, ok := middleware.RoleFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor role missing"))
			return
		}

		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}

		order, err := svc.RequestTransition(r.Context(), orderID, target, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, internalorders.Summarize(*order))
	}
}

// Actions returns the transitions the caller's role may legally request next,
// so consoles render buttons from the engine instead of hard-coding edges.
func Actions(svc LifecycleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, ok := middleware.RoleFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor role missing"))
			return
		}

		status, actions, err := svc.NextActions(r.Context(), orderID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, actionsResponse{OrderID: orderID, Status: status, Actions: actions})
	}
}

// ReconciliationPreview returns the computed shortage set for a confirmed
// order without committing anything.
func ReconciliationPreview(svc ReconciliationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Reconcile(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ReconciliationApply commits the per-line resolutions and moves the order
// into preparing as one operation.
func ReconciliationApply(svc ReconciliationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body applyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolutions := make([]reconciliation.LineResolution, 0, len(body.Resolutions))
		for _, res := range body.Resolutions {
			itemID, err := uuid.Parse(res.OrderItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order item id"))
				return
			}
			resolution, err := enums.ParseShortageResolution(res.Resolution)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown shortage resolution"))
				return
			}
			resolutions = append(resolutions, reconciliation.LineResolution{
				OrderItemID:  itemID,
				Resolution:   resolution,
				FulfilledQty: res.FulfilledQty,
			})
		}

		order, err := svc.Apply(r.Context(), orderID, resolutions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, internalorders.Summarize(*order))
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}
