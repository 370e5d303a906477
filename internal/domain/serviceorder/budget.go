package serviceorder

import (
	"github.com/oficina/backend/internal/domain/shared/valueobject"
)

// CalculateBudget returns servicePrice plus quantity x unit price for every active allocation.
// It has no side effects.
func CalculateBudget(servicePrice valueobject.Money, allocations []SupplyAllocation) (valueobject.Money, error) {
	total := servicePrice
	for _, a := range allocations {
		if !a.Active {
			continue
		}
		var err error
		total, err = total.Add(a.Subtotal())
		if err != nil {
			return valueobject.Money{}, err
		}
	}
	return total, nil
}
