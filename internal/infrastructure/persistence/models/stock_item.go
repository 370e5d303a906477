package models

import (
	"github.com/oficina/backend/internal/domain/shared/valueobject"
	"github.com/oficina/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// StockItemModel is the persistence model for the StockItem aggregate root.
type StockItemModel struct {
	AggregateModel
	Name              string          `gorm:"type:varchar(200);not null"`
	Description       string          `gorm:"type:text"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	QuantityAvailable int             `gorm:"not null"`
	QuantityMinimum   int             `gorm:"not null"`
	Active            bool            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem.
func (m *StockItemModel) ToDomain() *stock.StockItem {
	return &stock.StockItem{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		UnitPrice:         valueobject.NewMoneyBRL(m.UnitPrice),
		QuantityAvailable: m.QuantityAvailable,
		QuantityMinimum:   m.QuantityMinimum,
		Active:            m.Active,
	}
}

// FromDomain populates the persistence model from a domain StockItem.
func (m *StockItemModel) FromDomain(s *stock.StockItem) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Name = s.Name
	m.Description = s.Description
	m.UnitPrice = s.UnitPrice.Amount()
	m.QuantityAvailable = s.QuantityAvailable
	m.QuantityMinimum = s.QuantityMinimum
	m.Active = s.Active
}

// StockItemModelFromDomain creates a new persistence model from a domain StockItem.
func StockItemModelFromDomain(s *stock.StockItem) *StockItemModel {
	m := &StockItemModel{}
	m.FromDomain(s)
	return m
}
