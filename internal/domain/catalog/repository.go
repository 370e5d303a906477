package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}

// VehicleRepository defines the interface for vehicle persistence
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Vehicle, error)
	Save(ctx context.Context, vehicle *Vehicle) error
}

// ServiceRepository defines the interface for service persistence
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	Save(ctx context.Context, service *Service) error
}

// CustomerNotFound is returned when a customer reference cannot be resolved
func CustomerNotFound(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorWithCode(shared.KindNotFound, "CUSTOMER_NOT_FOUND", fmt.Sprintf("Customer %s not found", id))
}

// VehicleNotFound is returned when a vehicle reference cannot be resolved
func VehicleNotFound(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorWithCode(shared.KindNotFound, "VEHICLE_NOT_FOUND", fmt.Sprintf("Vehicle %s not found", id))
}

// ServiceNotFound is returned when a service reference cannot be resolved
func ServiceNotFound(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorWithCode(shared.KindNotFound, "SERVICE_NOT_FOUND", fmt.Sprintf("Service %s not found", id))
}
