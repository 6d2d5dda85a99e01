// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - property.go: Registry models (Listing, Lease, UserProfile)
// - settlement.go: Idempotency record of consumed ledger payments
package models
