// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain types so the domain layer carries no ORM tags;
// each model converts to and from its domain type with ToDomain and FromDomain.
package models
