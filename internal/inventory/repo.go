package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
)

// Repository defines product reads and counter adjustments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	AdjustCounters(ctx context.Context, delta Delta) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// AdjustCounters applies one signed delta atomically. The guards in the
// WHERE clause keep every counter non-negative; a false return means the
// adjustment would have driven one below zero (or the product is gone).
func (r *repository) AdjustCounters(ctx context.Context, delta Delta) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET quantity = quantity + ?,
			sold = sold + ?,
			reserved_quantity = reserved_quantity + ?,
			backorder_count = backorder_count + ?,
			stock_status = CASE
				WHEN backorder_count + ? > 0 THEN 'backorder'
				WHEN quantity + ? > 0 THEN 'in_stock'
				ELSE 'out_of_stock'
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
			AND quantity + ? >= 0
			AND sold + ? >= 0
			AND reserved_quantity + ? >= 0
			AND backorder_count + ? >= 0
	`,
		delta.Quantity, delta.Sold, delta.Reserved, delta.Backorder,
		delta.Backorder, delta.Quantity,
		delta.ProductID,
		delta.Quantity, delta.Sold, delta.Reserved, delta.Backorder,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
