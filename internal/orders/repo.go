package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	"github.com/merouaHba/EcommerceAPI/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the whole checkout graph. IDs are assigned by the
// caller so item rows can reference their sub-order up front.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("SubOrders.Items").
		Preload("Transaction").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindSubOrder(ctx context.Context, subOrderID uuid.UUID) (*models.SubOrder, error) {
	var subOrder models.SubOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", subOrderID).
		First(&subOrder).Error
	if err != nil {
		return nil, err
	}
	return &subOrder, nil
}

func (r *repository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("SubOrders").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListSubOrdersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SubOrder, error) {
	var subOrders []models.SubOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&subOrders).Error
	if err != nil {
		return nil, err
	}
	return subOrders, nil
}

// MarkOrderPaid claims the paid flag. The is_paid guard makes duplicate
// payment events no-ops; false means another delivery already claimed it.
func (r *repository) MarkOrderPaid(ctx context.Context, orderID, transactionID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_paid = ? AND is_canceled = ?", orderID, false, false).
		Updates(map[string]any{
			"is_paid":        true,
			"paid_at":        at,
			"transaction_id": transactionID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkOrderCanceled(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_canceled = ?", orderID, false).
		Updates(map[string]any{
			"is_canceled": true,
			"canceled_at": at,
		}).Error
}

// UpdateSubOrderStatus moves a sub-order between states only when it still
// holds the expected source state, so concurrent updates cannot skip steps.
func (r *repository) UpdateSubOrderStatus(ctx context.Context, subOrderID uuid.UUID, from, to enums.SubOrderStatus, at time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if to == enums.SubOrderStatusDelivered {
		updates["is_delivered"] = true
		updates["delivered_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&models.SubOrder{}).
		Where("id = ? AND status = ?", subOrderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CountActiveSubOrders(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SubOrder{}).
		Where("order_id = ? AND status != ?", orderID, enums.SubOrderStatusCancelled).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindPayableSubOrders returns not-yet-transferred, non-cancelled sub-orders
// whose parent order is paid and not canceled.
func (r *repository) FindPayableSubOrders(ctx context.Context) ([]models.SubOrder, error) {
	var subOrders []models.SubOrder
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = sub_orders.order_id").
		Where("sub_orders.is_balance_transfered = ?", false).
		Where("sub_orders.status != ?", enums.SubOrderStatusCancelled).
		Where("orders.is_paid = ? AND orders.is_canceled = ?", true, false).
		Order("sub_orders.created_at ASC").
		Find(&subOrders).Error
	if err != nil {
		return nil, err
	}
	return subOrders, nil
}

// ClaimSubOrderPayout flips the transfer flag exactly once. A false return
// means another run already owns this payout.
func (r *repository) ClaimSubOrderPayout(ctx context.Context, subOrderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SubOrder{}).
		Where("id = ? AND is_balance_transfered = ?", subOrderID, false).
		Update("is_balance_transfered", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseSubOrderPayout undoes a claim after a failed transfer so a later
// run can retry it.
func (r *repository) ReleaseSubOrderPayout(ctx context.Context, subOrderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SubOrder{}).
		Where("id = ?", subOrderID).
		Update("is_balance_transfered", false).Error
}
