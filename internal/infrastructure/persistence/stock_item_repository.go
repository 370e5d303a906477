package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/stock"
	"github.com/oficina/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockItemRepository implements StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds a stock item by its ID
func (r *GormStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewPersistenceError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the stock items with the given IDs
func (r *GormStockItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]stock.StockItem, error) {
	if len(ids) == 0 {
		return []stock.StockItem{}, nil
	}
	var rows []models.StockItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&rows).Error; err != nil {
		return nil, shared.NewPersistenceError(err)
	}
	return stockItemsToDomain(rows), nil
}

// FindBelowMinimum finds active items at or below their minimum quantity
func (r *GormStockItemRepository) FindBelowMinimum(ctx context.Context) ([]stock.StockItem, error) {
	var rows []models.StockItemModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND quantity_available <= quantity_minimum", true).
		Order("quantity_available").
		Find(&rows).Error; err != nil {
		return nil, shared.NewPersistenceError(err)
	}
	return stockItemsToDomain(rows), nil
}

// Save creates or overwrites a stock item
func (r *GormStockItemRepository) Save(ctx context.Context, item *stock.StockItem) error {
	model := models.StockItemModelFromDomain(item)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return shared.NewPersistenceError(err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking.
// The domain has already incremented the version, so the stored row must still hold Version-1.
func (r *GormStockItemRepository) SaveWithLock(ctx context.Context, item *stock.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(map[string]any{
			"quantity_available": item.QuantityAvailable,
			"quantity_minimum":   item.QuantityMinimum,
			"unit_price":         item.UnitPrice.Amount(),
			"active":             item.Active,
			"version":            item.Version,
			"updated_at":         item.UpdatedAt,
		})

	if result.Error != nil {
		return shared.NewPersistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainErrorWithCode(shared.KindConcurrencyConflict, "STOCK_ITEM_VERSION_CONFLICT",
			fmt.Sprintf("Stock item %s was modified by another transaction", item.ID))
	}
	return nil
}

func stockItemsToDomain(rows []models.StockItemModel) []stock.StockItem {
	items := make([]stock.StockItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}

var _ stock.StockItemRepository = (*GormStockItemRepository)(nil)
