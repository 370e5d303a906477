package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/domain/serviceorder"
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ServiceOrderModel is the persistence model for the Order aggregate root.
type ServiceOrderModel struct {
	AggregateModel
	CustomerID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	VehicleID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	ServiceID    uuid.UUID           `gorm:"type:uuid;not null"`
	Description  string              `gorm:"type:text"`
	Status       string              `gorm:"type:varchar(30);not null;index"`
	Budget       decimal.NullDecimal `gorm:"type:decimal(18,2)"`
	BudgetSentAt *time.Time          `gorm:"index"`
	Active       bool                `gorm:"not null"`
	// Associations
	Allocations []SupplyAllocationModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (ServiceOrderModel) TableName() string {
	return "service_orders"
}

// ToDomain converts the persistence model to a domain Order with its allocations.
func (m *ServiceOrderModel) ToDomain() *serviceorder.Order {
	order := &serviceorder.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		VehicleID:         m.VehicleID,
		ServiceID:         m.ServiceID,
		Description:       m.Description,
		Status:            serviceorder.OrderStatus(m.Status),
		BudgetSentAt:      m.BudgetSentAt,
		Active:            m.Active,
		Allocations:       make([]serviceorder.SupplyAllocation, len(m.Allocations)),
	}
	if m.Budget.Valid {
		budget := valueobject.NewMoneyBRL(m.Budget.Decimal)
		order.Budget = &budget
	}
	for i := range m.Allocations {
		order.Allocations[i] = m.Allocations[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
// Timestamps are stored in UTC so range queries compare consistently on every driver.
func (m *ServiceOrderModel) FromDomain(o *serviceorder.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.CustomerID = o.CustomerID
	m.VehicleID = o.VehicleID
	m.ServiceID = o.ServiceID
	m.Description = o.Description
	m.Status = string(o.Status)
	m.Active = o.Active
	m.Budget = decimal.NullDecimal{}
	if o.Budget != nil {
		m.Budget = decimal.NewNullDecimal(o.Budget.Amount())
	}
	m.BudgetSentAt = nil
	if o.BudgetSentAt != nil {
		sentAt := o.BudgetSentAt.UTC()
		m.BudgetSentAt = &sentAt
	}
	m.Allocations = make([]SupplyAllocationModel, len(o.Allocations))
	for i := range o.Allocations {
		m.Allocations[i] = SupplyAllocationModelFromDomain(o.Allocations[i])
	}
}

// ServiceOrderModelFromDomain creates a new persistence model from a domain Order.
func ServiceOrderModelFromDomain(o *serviceorder.Order) *ServiceOrderModel {
	m := &ServiceOrderModel{}
	m.FromDomain(o)
	return m
}

// SupplyAllocationModel is the persistence model for the SupplyAllocation entity.
type SupplyAllocationModel struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Active      bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplyAllocationModel) TableName() string {
	return "supply_allocations"
}

// ToDomain converts the persistence model to a domain SupplyAllocation.
func (m SupplyAllocationModel) ToDomain() serviceorder.SupplyAllocation {
	return serviceorder.SupplyAllocation{
		ID:          m.ID,
		OrderID:     m.OrderID,
		StockItemID: m.StockItemID,
		Quantity:    m.Quantity,
		UnitPrice:   valueobject.NewMoneyBRL(m.UnitPrice),
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// SupplyAllocationModelFromDomain creates a persistence model from a domain SupplyAllocation.
func SupplyAllocationModelFromDomain(a serviceorder.SupplyAllocation) SupplyAllocationModel {
	return SupplyAllocationModel{
		BaseModel: BaseModel{
			ID:        a.ID,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		},
		OrderID:     a.OrderID,
		StockItemID: a.StockItemID,
		Quantity:    a.Quantity,
		UnitPrice:   a.UnitPrice.Amount(),
		Active:      a.Active,
	}
}
