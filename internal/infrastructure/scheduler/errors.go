package scheduler

import "errors"

// ErrInvalidConfig is returned when a worker or monitor configuration is invalid
var ErrInvalidConfig = errors.New("invalid scheduler configuration")
