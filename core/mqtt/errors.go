package mqtt

import "errors"

// ErrNoSchedule is returned when a run has no successful weekday to publish.
var ErrNoSchedule = errors.New("no blended schedule to publish")
