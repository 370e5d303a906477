package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/catalog"
	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *catalog.Customer) error {
	if err := r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(customer)).Error; err != nil {
		return shared.NewPersistenceError(err)
	}
	return nil
}

// GormVehicleRepository implements VehicleRepository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID finds a vehicle by its ID
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Vehicle, error) {
	var model models.VehicleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err)
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists the vehicles owned by a customer
func (r *GormVehicleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]catalog.Vehicle, error) {
	var rows []models.VehicleModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("plate").
		Find(&rows).Error; err != nil {
		return nil, shared.NewPersistenceError(err)
	}
	vehicles := make([]catalog.Vehicle, len(rows))
	for i := range rows {
		vehicles[i] = *rows[i].ToDomain()
	}
	return vehicles, nil
}

// Save creates or updates a vehicle
func (r *GormVehicleRepository) Save(ctx context.Context, vehicle *catalog.Vehicle) error {
	if err := r.db.WithContext(ctx).Save(models.VehicleModelFromDomain(vehicle)).Error; err != nil {
		return shared.NewPersistenceError(err)
	}
	return nil
}

// GormServiceRepository implements ServiceRepository using GORM
type GormServiceRepository struct {
	db *gorm.DB
}

// NewGormServiceRepository creates a new GormServiceRepository
func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

// FindByID finds a service by its ID
func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var model models.ServiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateFindError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a service
func (r *GormServiceRepository) Save(ctx context.Context, service *catalog.Service) error {
	if err := r.db.WithContext(ctx).Save(models.ServiceModelFromDomain(service)).Error; err != nil {
		return shared.NewPersistenceError(err)
	}
	return nil
}

func translateFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return shared.NewPersistenceError(err)
}

var (
	_ catalog.CustomerRepository = (*GormCustomerRepository)(nil)
	_ catalog.VehicleRepository  = (*GormVehicleRepository)(nil)
	_ catalog.ServiceRepository  = (*GormServiceRepository)(nil)
)
