package models

import (
	"time"

	"github.com/google/uuid"
)

// User carries the identity and payout fields this core reads. Account
// onboarding and authentication live elsewhere.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName string    `gorm:"column:first_name"`
	LastName  string    `gorm:"column:last_name"`
	Role      string    `gorm:"column:role;not null;default:'user'"`

	// StripeAccountID is the seller's connected payout account, set during
	// onboarding. Nil means the seller cannot receive transfers yet.
	StripeAccountID *string `gorm:"column:stripe_account_id"`

	// BalanceCents accumulates paid-out seller earnings.
	BalanceCents int `gorm:"column:balance_cents;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
