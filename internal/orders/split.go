package orders

import (
	"sort"

	"github.com/google/uuid"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
)

// SellerGroup is one seller's slice of a checkout: the snapshot lines and
// their total at snapshot prices.
type SellerGroup struct {
	SellerID   uuid.UUID
	Items      []models.OrderItem
	TotalCents int
}

// GroupItemsBySeller snapshots the cart lines at current catalog prices and
// partitions them by seller. Every cart line lands in exactly one group, so
// the groups cover the snapshot with no overlap and no omission. Groups
// come back in a stable seller order.
func GroupItemsBySeller(cartItems []models.CartItem, products map[uuid.UUID]models.Product) []SellerGroup {
	bySeller := make(map[uuid.UUID]*SellerGroup)
	for _, line := range cartItems {
		product, ok := products[line.ProductID]
		if !ok {
			continue
		}
		group, ok := bySeller[product.SellerID]
		if !ok {
			group = &SellerGroup{SellerID: product.SellerID}
			bySeller[product.SellerID] = group
		}
		item := models.OrderItem{
			ProductID:      product.ID,
			SellerID:       product.SellerID,
			Name:           product.Name,
			ImageKey:       product.MainImageKey,
			Qty:            line.Qty,
			UnitPriceCents: product.PriceCents(),
		}
		group.Items = append(group.Items, item)
		group.TotalCents += item.SubtotalCents()
	}

	groups := make([]SellerGroup, 0, len(bySeller))
	for _, group := range bySeller {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].SellerID.String() < groups[j].SellerID.String()
	})
	return groups
}
