package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error)

	// Counter updates are single UPDATE statements so concurrent requests
	// never lose increments to a read-then-write race.
	IncrementDecksCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	IncrementTokensProcessed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int64) error
	ResetMonthlyCounters(ctx context.Context, tx *gorm.DB) (int64, error)

	ActivateSubscription(ctx context.Context, tx *gorm.DB, userID uuid.UUID, subscriptionID string) error
	SetPlanBySubscriptionID(ctx context.Context, tx *gorm.DB, subscriptionID, plan string) error
	ClearSubscription(ctx context.Context, tx *gorm.DB, subscriptionID string) error
	SetStripeCustomerID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, customerID string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if len(userEmails) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("email IN ?", userEmails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", userEmail).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) IncrementDecksCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		UpdateColumn("decks_created_this_month", gorm.Expr("decks_created_this_month + ?", 1)).Error
}

func (ur *userRepo) IncrementTokensProcessed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int64) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		UpdateColumn("tokens_processed_this_month", gorm.Expr("tokens_processed_this_month + ?", amount)).Error
}

func (ur *userRepo) ResetMonthlyCounters(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("decks_created_this_month > 0 OR tokens_processed_this_month > 0").
		UpdateColumns(map[string]interface{}{
			"decks_created_this_month":    0,
			"tokens_processed_this_month": 0,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (ur *userRepo) ActivateSubscription(ctx context.Context, tx *gorm.DB, userID uuid.UUID, subscriptionID string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"subscription_plan": types.PlanPro,
			"subscription_id":   subscriptionID,
		}).Error
}

func (ur *userRepo) SetPlanBySubscriptionID(ctx context.Context, tx *gorm.DB, subscriptionID, plan string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("subscription_id = ?", subscriptionID).
		UpdateColumn("subscription_plan", plan).Error
}

func (ur *userRepo) ClearSubscription(ctx context.Context, tx *gorm.DB, subscriptionID string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("subscription_id = ?", subscriptionID).
		UpdateColumns(map[string]interface{}{
			"subscription_plan": types.PlanCancelled,
			"subscription_id":   nil,
		}).Error
}

func (ur *userRepo) SetStripeCustomerID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, customerID string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		UpdateColumn("stripe_customer_id", customerID).Error
}
