package catalog

import (
	"net/mail"
	"strings"

	"github.com/oficina/backend/internal/domain/shared"
)

// Customer is the vehicle owner who receives budgets and notifications
type Customer struct {
	shared.BaseAggregateRoot
	Name     string
	Email    string
	Phone    string
	Document string
	Active   bool
}

// NewCustomer creates a new active customer
func NewCustomer(name, email, phone, document string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_NAME", "Customer name cannot be empty")
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, shared.NewDomainErrorWithCode(shared.KindInvalidInput, "INVALID_EMAIL", "Customer email is not valid")
		}
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		Phone:             strings.TrimSpace(phone),
		Document:          strings.TrimSpace(document),
		Active:            true,
	}, nil
}

// HasEmail reports whether notifications can be mailed to the customer
func (c *Customer) HasEmail() bool {
	return c.Email != ""
}
