package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlanFree      = "free"
	PlanPro       = "pro"
	PlanCancelled = "cancelled"
)

type User struct {
	ID                       uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email                    string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password                 string     `gorm:"not null;column:password" json:"-"`
	FullName                 string     `gorm:"column:full_name" json:"full_name"`
	SubscriptionPlan         string     `gorm:"not null;default:'free';column:subscription_plan" json:"subscription_plan"`
	SubscriptionID           *string    `gorm:"column:subscription_id;index" json:"subscription_id,omitempty"`
	StripeCustomerID         *string    `gorm:"column:stripe_customer_id;index" json:"-"`
	DecksCreatedThisMonth    int        `gorm:"not null;default:0;column:decks_created_this_month" json:"decks_created_this_month"`
	TokensProcessedThisMonth int64      `gorm:"not null;default:0;column:tokens_processed_this_month" json:"tokens_processed_this_month"`
	CreatedAt                time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt                time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "user" }

// IsPro reports whether plan limits are lifted. Cancelled subscriptions
// fall back to free-tier limits.
func (u *User) IsPro() bool {
	return u != nil && u.SubscriptionPlan == PlanPro
}
