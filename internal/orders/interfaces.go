package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindSubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.SubOrder, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListSubOrdersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SubOrder, error)
	MarkOrderPaid(ctx context.Context, orderID, transactionID uuid.UUID, at time.Time) (bool, error)
	MarkOrderCanceled(ctx context.Context, orderID uuid.UUID, at time.Time) error
	UpdateSubOrderStatus(ctx context.Context, subOrderID uuid.UUID, from, to enums.SubOrderStatus, at time.Time) (bool, error)
	CountActiveSubOrders(ctx context.Context, orderID uuid.UUID) (int64, error)
	FindPayableSubOrders(ctx context.Context) ([]models.SubOrder, error)
	ClaimSubOrderPayout(ctx context.Context, subOrderID uuid.UUID) (bool, error)
	ReleaseSubOrderPayout(ctx context.Context, subOrderID uuid.UUID) error
}
