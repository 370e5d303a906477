package catalog

import (
	"strings"

	"github.com/oficina/backend/internal/domain/shared"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
)

// Service is a priced repair service offered by the shop
type Service struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Price       valueobject.Money
	Active      bool
}

// NewService creates a new active service
func NewService(name, description string, price valueobject.Money) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_NAME", "Service name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_PRICE", "Service price cannot be negative")
	}

	return &Service{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       description,
		Price:             price,
		Active:            true,
	}, nil
}
