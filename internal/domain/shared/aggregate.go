package shared

import "time"

// BaseAggregateRoot adds the version a repository compares before overwriting
// a stored aggregate. A freshly created aggregate starts at version 1.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

func NewBaseAggregateRoot(now time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(now), Version: 1}
}

// IncrementVersion is called by the repository once a compare-and-set succeeds
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}
