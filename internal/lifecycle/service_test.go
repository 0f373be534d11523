package lifecycle

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/servline/servline-backend/internal/orders"
	"github.com/servline/servline-backend/internal/reconciliation"
	"github.com/servline/servline-backend/pkg/db/models"
	"github.com/servline/servline-backend/pkg/enums"
	pkgerrors "github.com/servline/servline-backend/pkg/errors"
)

type fakeReconciler struct {
	calls  int
	result *models.Order
	err    error
}

func (f *fakeReconciler) Apply(_ context.Context, _ uuid.UUID, resolutions []reconciliation.LineResolution) (*models.Order, error) {
	f.calls++
	if len(resolutions) != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unexpected resolutions")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// losingRepo simulates a concurrent writer: every guarded status write loses
// its compare-and-swap.
type losingRepo struct {
	orders.Repository
}

func (r *losingRepo) UpdateStatusGuarded(context.Context, uuid.UUID, enums.OrderStatus, enums.OrderStatus) (bool, error) {
	return false, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return conn
}

func seedOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:          uuid.New(),
		BranchID:    uuid.New(),
		Status:      status,
		TotalAmount: decimal.NewFromInt(42),
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func TestRequestTransitionHappyPath(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(orders.NewRepository(conn), &fakeReconciler{}, nil, nil)
	order := seedOrder(t, conn, enums.OrderStatusPending)

	updated, err := service.RequestTransition(context.Background(), order.ID, enums.OrderStatusConfirmed, enums.ActorRoleOperations)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
}

func TestRequestTransitionIdempotentNoop(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(orders.NewRepository(conn), &fakeReconciler{}, nil, nil)
	order := seedOrder(t, conn, enums.OrderStatusReady)

	first, err := service.RequestTransition(context.Background(), order.ID, enums.OrderStatusInTransit, enums.ActorRoleOperations)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusInTransit, first.Status)

	// same target again: success with no second status write
	second, err := service.RequestTransition(context.Background(), order.ID, enums.OrderStatusInTransit, enums.ActorRoleOperations)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInTransit, second.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestRequestTransitionRejectsMissingEdge(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(orders.NewRepository(conn), &fakeReconciler{}, nil, nil)
	order := seedOrder(t, conn, enums.OrderStatusPending)

	_, err := service.RequestTransition(context.Background(), order.ID, enums.OrderStatusReady, enums.ActorRoleOperations)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
	status, err := orders.NewRepository(conn).FindOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, status.Status)
}

func TestRequestTransitionRejectsWrongRole(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(orders.NewRepository(conn), &fakeReconciler{}, nil, nil)
	order := seedOrder(t, conn, enums.OrderStatusReady)

	_, err := service.RequestTransition(context.Background(), order.ID, enums.OrderStatusInTransit, enums.ActorRoleKitchen)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestRequestTransitionMissingOrder(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(orders.NewRepository(conn), &fakeReconciler{}, nil, nil)

	_, err := service.RequestTransition(context.Background(), uuid.New(), enums.OrderStatusConfirmed, enums.ActorRoleOperations)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRequestTransitionLosesRace(t *testing.T) {
	conn := openTestDB(t)
	repo := &losingRepo{Repository: orders.NewRepository(conn)}
	service := NewService(repo, &fakeReconciler{}, nil, nil)
	order := seedOrder(t, conn, enums.OrderStatusReady)

	_, err := service.RequestTransition(context.Background(), order.ID, enums.OrderStatusInTransit, enums.ActorRoleOperations)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}

func TestRequestTransitionDelegatesPreparingToReconciliation(t *testing.T) {
	conn := openTestDB(t)
	order := seedOrder(t, conn, enums.OrderStatusConfirmed)
	recon := &fakeReconciler{result: &models.Order{ID: order.ID, Status: enums.OrderStatusPreparing}}
	service := NewService(orders.NewRepository(conn), recon, nil, nil)

	updated, err := service.RequestTransition(context.Background(), order.ID, enums.OrderStatusPreparing, enums.ActorRoleKitchen)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, updated.Status)
	assert.Equal(t, 1, recon.calls)
}

func TestRequestTransitionSurfacesUnresolvedShortage(t *testing.T) {
	conn := openTestDB(t)
	order := seedOrder(t, conn, enums.OrderStatusConfirmed)
	recon := &fakeReconciler{err: pkgerrors.New(pkgerrors.CodeUnresolvedShortage, "shortfall lines are missing a resolution")}
	service := NewService(orders.NewRepository(conn), recon, nil, nil)

	_, err := service.RequestTransition(context.Background(), order.ID, enums.OrderStatusPreparing, enums.ActorRoleKitchen)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnresolvedShortage))
}

func TestRequestTransitionRejectsUnknownStatus(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(orders.NewRepository(conn), &fakeReconciler{}, nil, nil)

	_, err := service.RequestTransition(context.Background(), uuid.New(), enums.OrderStatus("shipped"), enums.ActorRoleOperations)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNextActions(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(orders.NewRepository(conn), &fakeReconciler{}, nil, nil)
	order := seedOrder(t, conn, enums.OrderStatusConfirmed)

	status, targets, err := service.NextActions(context.Background(), order.ID, enums.ActorRoleKitchen)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, status)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusPreparing}, targets)
}
