package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servline/servline-backend/internal/orders"
	"github.com/servline/servline-backend/internal/reconciliation"
	"github.com/servline/servline-backend/pkg/db/models"
	"github.com/servline/servline-backend/pkg/enums"
	pkgerrors "github.com/servline/servline-backend/pkg/errors"
	"github.com/servline/servline-backend/pkg/logger"
	"github.com/servline/servline-backend/pkg/metrics"
	"github.com/servline/servline-backend/pkg/pagination"
)

// reconciler is the slice of the reconciliation service the engine needs:
// the combined commit that writes fulfilled quantities and moves the order
// into preparing.
type reconciler interface {
	Apply(ctx context.Context, orderID uuid.UUID, resolutions []reconciliation.LineResolution) (*models.Order, error)
}

// Service is the order state machine. Every status write in the system goes
// through RequestTransition or the reconciliation commit it delegates to.
type Service struct {
	repo    orders.Repository
	recon   reconciler
	metrics *metrics.FulfillmentMetrics
	logg    *logger.Logger
}

func NewService(repo orders.Repository, recon reconciler, fm *metrics.FulfillmentMetrics, logg *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		recon:   recon,
		metrics: fm,
		logg:    logg,
	}
}

// RequestTransition validates the requested edge against the current status
// and the actor's role, then applies it with a guarded status write.
// Requesting the status the order already has is a no-op success so polling
// clients may double-submit safely.
func (s *Service) RequestTransition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, role enums.ActorRole) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": target})
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown actor role").
			WithDetails(map[string]any{"role": role})
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == target {
		s.metrics.IncTransition(order.Status.String(), target.String(), "noop")
		return order, nil
	}

	from := order.Status
	if err := CanTransition(from, target, role); err != nil {
		s.metrics.IncTransition(from.String(), target.String(), "rejected")
		return nil, err
	}

	// entering preparation runs through reconciliation, which owns the
	// combined item-update + status commit
	if from == enums.OrderStatusConfirmed && target == enums.OrderStatusPreparing {
		return s.recon.Apply(ctx, orderID, nil)
	}

	moved, err := s.repo.UpdateStatusGuarded(ctx, orderID, from, target)
	if err != nil {
		s.metrics.IncTransition(from.String(), target.String(), "error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing order status")
	}
	if !moved {
		s.metrics.IncTransition(from.String(), target.String(), "conflict")
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			"order status changed concurrently, re-fetch before retrying")
	}

	s.metrics.IncTransition(from.String(), target.String(), "success")
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID,
			"from":     from,
			"to":       target,
			"role":     role,
		})
		s.logg.Info(ctx, "order transition applied")
	}

	return s.findOrder(ctx, orderID)
}

// GetOrder loads a single order with its line items.
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.findOrder(ctx, orderID)
}

// ListOrders returns the branch-scoped order page the role views poll.
func (s *Service) ListOrders(ctx context.Context, branchID uuid.UUID, params pagination.Params, filters orders.Filters) (*orders.OrderList, error) {
	list, err := s.repo.ListOrders(ctx, branchID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

// NextActions returns the transitions role may legally request for an order
// in its current status.
func (s *Service) NextActions(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) (enums.OrderStatus, []enums.OrderStatus, error) {
	if !role.IsValid() {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown actor role").
			WithDetails(map[string]any{"role": role})
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return "", nil, err
	}
	return order.Status, AllowedTargets(order.Status, role), nil
}

func (s *Service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}
