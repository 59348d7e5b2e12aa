package sellers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merouaHba/EcommerceAPI/pkg/db/models"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
)

type capabilityChecker interface {
	IsTransferActive(ctx context.Context, accountID string) (bool, error)
}

// Params configure the sellers service.
type Params struct {
	Repo    Repository
	Gateway capabilityChecker
	Logger  *logger.Logger
}

// Service exposes seller payout-readiness reads.
type Service struct {
	repo    Repository
	gateway capabilityChecker
	logg    *logger.Logger
}

// NewService validates its dependencies and builds a sellers service.
func NewService(params Params) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		repo:    params.Repo,
		gateway: params.Gateway,
		logg:    params.Logger,
	}, nil
}

// PayoutStatus reports whether a seller can receive transfers right now.
type PayoutStatus struct {
	SellerID        uuid.UUID `json:"seller_id"`
	HasAccount      bool      `json:"has_account"`
	TransfersActive bool      `json:"transfers_active"`
	BalanceCents    int       `json:"balance_cents"`
}

// CheckTransferCapability loads the seller and asks the payment gateway
// whether its connected account can receive transfers.
func (s *Service) CheckTransferCapability(ctx context.Context, sellerID uuid.UUID) (*PayoutStatus, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}

	seller, err := s.repo.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, fmt.Errorf("load seller: %w", err)
	}

	status := &PayoutStatus{
		SellerID:     seller.ID,
		BalanceCents: seller.BalanceCents,
	}
	if seller.StripeAccountID == nil || *seller.StripeAccountID == "" {
		return status, nil
	}
	status.HasAccount = true

	active, err := s.gateway.IsTransferActive(ctx, *seller.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("check transfer capability: %w", err)
	}
	status.TransfersActive = active
	return status, nil
}

// GetSeller returns the seller row for the given id.
func (s *Service) GetSeller(ctx context.Context, sellerID uuid.UUID) (*models.User, error) {
	seller, err := s.repo.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, fmt.Errorf("load seller: %w", err)
	}
	return seller, nil
}
