package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
// Allocations are persisted with their order and never deleted on their own.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func allocationsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at, id")
}

// FindByID finds an order by its ID, with all allocations
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*serviceorder.Order, error) {
	var model models.ServiceOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations", allocationsInOrder).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewPersistenceError(err)
	}
	return model.ToDomain(), nil
}

// FindByStatus lists orders in a status, newest first
func (r *GormOrderRepository) FindByStatus(ctx context.Context, status serviceorder.OrderStatus, filter serviceorder.ListFilter) ([]serviceorder.Order, error) {
	var rows []models.ServiceOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations", allocationsInOrder).
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, shared.NewPersistenceError(err)
	}
	return ordersToDomain(rows), nil
}

// FindBudgetsSentBefore lists AWAITING_APPROVAL orders whose budget was sent at or before cutoff, oldest first
func (r *GormOrderRepository) FindBudgetsSentBefore(ctx context.Context, cutoff time.Time, limit int) ([]serviceorder.Order, error) {
	var rows []models.ServiceOrderModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND budget_sent_at <= ?", string(serviceorder.OrderStatusAwaitingApproval), cutoff.UTC()).
		Order("budget_sent_at").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, shared.NewPersistenceError(err)
	}
	return ordersToDomain(rows), nil
}

// Save inserts a new order or updates an existing one, then upserts its allocations.
// An update applies only while the stored version equals order.Version;
// on success the version is incremented in the row and on the order.
func (r *GormOrderRepository) Save(ctx context.Context, order *serviceorder.Order) error {
	db := r.db.WithContext(ctx)
	model := models.ServiceOrderModelFromDomain(order)

	result := db.Model(&models.ServiceOrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"description":    model.Description,
			"status":         model.Status,
			"budget":         model.Budget,
			"budget_sent_at": model.BudgetSentAt,
			"active":         model.Active,
			"version":        order.Version + 1,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return shared.NewPersistenceError(result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.ServiceOrderModel{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
			return shared.NewPersistenceError(err)
		}
		if count > 0 {
			return shared.NewDomainErrorWithCode(shared.KindConcurrencyConflict, "ORDER_VERSION_CONFLICT",
				fmt.Sprintf("Service order %s was modified by another transaction", order.ID))
		}
		if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
			return shared.NewPersistenceError(err)
		}
	} else {
		order.IncrementVersion()
	}

	return saveAllocations(db, model.Allocations)
}

// saveAllocations inserts new allocations and refreshes the mutable columns of existing ones
func saveAllocations(db *gorm.DB, allocations []models.SupplyAllocationModel) error {
	if len(allocations) == 0 {
		return nil
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "updated_at"}),
	}).Create(&allocations).Error; err != nil {
		return shared.NewPersistenceError(err)
	}
	return nil
}

// Delete deletes an order together with its allocations
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.SupplyAllocationModel{}).Error; err != nil {
		return shared.NewPersistenceError(err)
	}
	result := db.Delete(&models.ServiceOrderModel{}, "id = ?", id)
	if result.Error != nil {
		return shared.NewPersistenceError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func ordersToDomain(rows []models.ServiceOrderModel) []serviceorder.Order {
	orders := make([]serviceorder.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

var _ serviceorder.OrderRepository = (*GormOrderRepository)(nil)
