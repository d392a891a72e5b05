package shared

// BaseAggregateRoot extends BaseEntity with the version counter the
// repositories compare-and-swap on during SaveWithLock.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// IncrementVersion increments the version number. Aggregates call this on
// every mutation so a concurrent stale writer loses the version race.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}
