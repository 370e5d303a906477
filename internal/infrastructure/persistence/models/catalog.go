package models

import (
	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/catalog"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(200);not null"`
	Email    string `gorm:"type:varchar(200)"`
	Phone    string `gorm:"type:varchar(50)"`
	Document string `gorm:"type:varchar(20);index"`
	Active   bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *catalog.Customer {
	return &catalog.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		Document:          m.Document,
		Active:            m.Active,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer.
func CustomerModelFromDomain(c *catalog.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Document: c.Document,
		Active:   c.Active,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// VehicleModel is the persistence model for the Vehicle aggregate root.
type VehicleModel struct {
	AggregateModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Plate      string    `gorm:"type:varchar(10);not null;uniqueIndex"`
	Brand      string    `gorm:"type:varchar(100)"`
	Model      string    `gorm:"type:varchar(100)"`
	Year       int
	Active     bool `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VehicleModel) TableName() string {
	return "vehicles"
}

// ToDomain converts the persistence model to a domain Vehicle.
func (m *VehicleModel) ToDomain() *catalog.Vehicle {
	return &catalog.Vehicle{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		Plate:             m.Plate,
		Brand:             m.Brand,
		Model:             m.Model,
		Year:              m.Year,
		Active:            m.Active,
	}
}

// VehicleModelFromDomain creates a persistence model from a domain Vehicle.
func VehicleModelFromDomain(v *catalog.Vehicle) *VehicleModel {
	m := &VehicleModel{
		CustomerID: v.CustomerID,
		Plate:      v.Plate,
		Brand:      v.Brand,
		Model:      v.Model,
		Year:       v.Year,
		Active:     v.Active,
	}
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	return m
}

// ServiceModel is the persistence model for the Service aggregate root.
type ServiceModel struct {
	AggregateModel
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Active      bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ServiceModel) TableName() string {
	return "services"
}

// ToDomain converts the persistence model to a domain Service.
func (m *ServiceModel) ToDomain() *catalog.Service {
	return &catalog.Service{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Price:             valueobject.NewMoneyBRL(m.Price),
		Active:            m.Active,
	}
}

// ServiceModelFromDomain creates a persistence model from a domain Service.
func ServiceModelFromDomain(s *catalog.Service) *ServiceModel {
	m := &ServiceModel{
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price.Amount(),
		Active:      s.Active,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}
