// pkg/physics/errors.go
package physics

import "errors"

// Construction-time validation failures. Callers can match them with errors.Is.
var (
	ErrInvalidMass      = errors.New("body mass must be positive")
	ErrNonConvexPolygon = errors.New("polygon is not convex")
	ErrTooFewVertices   = errors.New("polygon needs at least 3 vertices")
	ErrNegativeRadius   = errors.New("circle radius must not be negative")
	ErrNilShape         = errors.New("body has no collision shape")
	ErrInvalidConfig    = errors.New("invalid physics configuration")
	ErrAlreadyTracked   = errors.New("body is already tracked")
)
