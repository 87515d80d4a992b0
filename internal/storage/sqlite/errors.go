package sqlite

import "errors"

// ErrInvalidDays indicates a negative prune threshold.
var ErrInvalidDays = errors.New("days threshold must be >= 0")

var validActions = map[string]bool{
	"create": true,
	"update": true,
}
