package shared

// BaseAggregateRoot is a BaseEntity with the version that conditional
// registry writes compare against. Every successful write bumps it by one.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// NewBaseAggregateRoot creates an aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// Bump records a successful write: the version moves forward and UpdatedAt
// is refreshed.
func (a *BaseAggregateRoot) Bump() {
	a.Version++
	a.Touch()
}
