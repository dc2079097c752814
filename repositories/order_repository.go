package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/meucardapio/pedidos-app/models"
	"github.com/meucardapio/pedidos-app/orders"
)

// ErrOrderNotFound is returned by status lookups for unknown ids.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository is the typed persistence surface for order rows.
type OrderRepository interface {
	// Insert creates the order; the reference is assigned by persistence.
	Insert(ctx context.Context, order *models.Order) error
	// ListRows returns raw rows oldest-created-first. Rows stay
	// semi-structured so the admin parser can defend against legacy shapes.
	ListRows(ctx context.Context) ([]map[string]any, error)
	// UpdateStatusIf performs the compare-and-swap: the status moves to next
	// only if the persisted status still equals current. Returns false when
	// zero rows matched (concurrent mutation).
	UpdateStatusIf(ctx context.Context, orderID uint, current, next orders.Status) (bool, error)
	// GetStatus reads the authoritative persisted status.
	GetStatus(ctx context.Context, orderID uint) (string, error)
}

type gormOrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

func (r *gormOrderRepository) Insert(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *gormOrderRepository) ListRows(ctx context.Context) ([]map[string]any, error) {
	var rows []map[string]any
	err := r.db.WithContext(ctx).
		Table("orders").
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *gormOrderRepository) UpdateStatusIf(ctx context.Context, orderID uint, current, next orders.Status) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, string(current)).
		Updates(map[string]any{
			"status":     string(next),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormOrderRepository) GetStatus(ctx context.Context, orderID uint) (string, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Select("status").
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return order.Status, nil
}
