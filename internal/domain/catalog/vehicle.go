package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/shared"
)

// Vehicle belongs to exactly one customer
type Vehicle struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID
	Plate      string
	Brand      string
	Model      string
	Year       int
	Active     bool
}

// NewVehicle registers a vehicle for a customer. The plate is stored upper-case.
func NewVehicle(customerID uuid.UUID, plate, brand, model string, year int) (*Vehicle, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_PLATE", "Vehicle plate cannot be empty")
	}

	return &Vehicle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Plate:             plate,
		Brand:             strings.TrimSpace(brand),
		Model:             strings.TrimSpace(model),
		Year:              year,
		Active:            true,
	}, nil
}

// BelongsTo reports whether the vehicle is owned by the customer
func (v *Vehicle) BelongsTo(customerID uuid.UUID) bool {
	return v.CustomerID == customerID
}
