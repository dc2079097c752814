package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/meucardapio/pedidos-app/models"
	"github.com/meucardapio/pedidos-app/orders"
	"github.com/meucardapio/pedidos-app/utils"
)

// CustomerRepository is the typed persistence surface for customer rows.
type CustomerRepository interface {
	// FindByNormalizedContact returns nil, nil when no row matches.
	FindByNormalizedContact(ctx context.Context, emailNormalized, phoneNormalized string) (*models.Customer, error)
	Insert(ctx context.Context, customer *models.Customer) error
}

type gormCustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &gormCustomerRepository{db: db}
}

func (r *gormCustomerRepository) FindByNormalizedContact(ctx context.Context, emailNormalized, phoneNormalized string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("email_normalized = ? AND phone_normalized = ?", emailNormalized, phoneNormalized).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *gormCustomerRepository) Insert(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// IsDuplicateKey recognises a uniqueness-conflict signal across drivers.
// GORM's TranslateError covers mysql and sqlite; the string fallbacks cover
// untranslated paths and postgres' 23505.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "23505")
}

// ResolveOrCreateCustomer deduplicates a customer by normalized (email,
// phone): find, then insert, then retry the find exactly once if another
// request won the racing insert. Exactly one of two concurrent submissions
// with the same contact pair performs the winning insert; the loser
// converges on the winner's row.
func ResolveOrCreateCustomer(ctx context.Context, repo CustomerRepository, draft *orders.OrderDraft) (uint, error) {
	existing, err := repo.FindByNormalizedContact(ctx, draft.EmailNormalized, draft.PhoneNormalized)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("customer dedupe query failed")
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	customer := &models.Customer{
		Name:            draft.CustomerName,
		Email:           draft.EmailNormalized,
		Phone:           draft.PhoneNormalized,
		EmailNormalized: draft.EmailNormalized,
		PhoneNormalized: draft.PhoneNormalized,
	}

	insertErr := repo.Insert(ctx, customer)
	if insertErr == nil {
		return customer.ID, nil
	}

	if !IsDuplicateKey(insertErr) {
		utils.ErrorLogger.WithError(insertErr).Error("customer insert failed")
		return 0, insertErr
	}

	// Another request inserted the same normalized contact between our read
	// and our insert. Retry the read once, not unbounded.
	retried, retryErr := repo.FindByNormalizedContact(ctx, draft.EmailNormalized, draft.PhoneNormalized)
	if retryErr == nil && retried != nil {
		return retried.ID, nil
	}

	utils.ErrorLogger.WithFields(logrus.Fields{
		"insert_error": insertErr.Error(),
		"retry_error":  errString(retryErr),
	}).Error("duplicate customer insert retry failed")
	if retryErr != nil {
		return 0, retryErr
	}
	return 0, insertErr
}

func errString(err error) string {
	if err == nil {
		return "record missing after conflict"
	}
	return err.Error()
}
