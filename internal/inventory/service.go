package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
)

// Delta carries signed counter adjustments for one product. A sale is
// {Quantity: -qty, Sold: +qty}; a cancellation is the exact negation.
type Delta struct {
	ProductID uuid.UUID
	Quantity  int
	Sold      int
	Reserved  int
	Backorder int
}

// Negate returns the delta that undoes this one.
func (d Delta) Negate() Delta {
	return Delta{
		ProductID: d.ProductID,
		Quantity:  -d.Quantity,
		Sold:      -d.Sold,
		Reserved:  -d.Reserved,
		Backorder: -d.Backorder,
	}
}

// SaleDelta builds the adjustment for qty units sold of a product.
func SaleDelta(productID uuid.UUID, qty int) Delta {
	return Delta{ProductID: productID, Quantity: -qty, Sold: qty}
}

// Service applies inventory adjustments inside caller-owned transactions.
type Service interface {
	Apply(ctx context.Context, tx *gorm.DB, deltas []Delta) error
	LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type service struct {
	repo Repository
}

// NewService wires an inventory service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

// Apply runs every delta against the supplied transaction. The first delta
// that would drive a counter negative aborts with a state conflict so the
// enclosing transaction rolls back whole.
func (s *service) Apply(ctx context.Context, tx *gorm.DB, deltas []Delta) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory adjustment")
	}
	repo := s.repo.WithTx(tx)
	for _, delta := range deltas {
		if delta.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if delta == (Delta{ProductID: delta.ProductID}) {
			continue
		}
		ok, err := repo.AdjustCounters(ctx, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust inventory counters")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("insufficient stock for product %s", delta.ProductID))
		}
	}
	return nil
}

func (s *service) LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	products, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}
