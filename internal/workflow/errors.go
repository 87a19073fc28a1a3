package workflow

import "errors"

// ErrIterationCeiling is returned when the retry loop exhausts the configured
// maximum step count. It is deliberately distinct from a terminal
// "Recommendations invalid" state so callers can tell "gave up" from
// "confirmed invalid".
var ErrIterationCeiling = errors.New("iteration ceiling reached")
