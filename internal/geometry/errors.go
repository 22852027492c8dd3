package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is matched by every InvalidGeometryError through errors.Is.
var ErrInvalidGeometry = errors.New("invalid geometry")

// InvalidGeometryError reports a malformed input geometry. It is returned
// before anything is persisted.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return "invalid geometry: " + e.Reason
}

func (e *InvalidGeometryError) Is(target error) bool {
	return target == ErrInvalidGeometry
}

func invalid(format string, args ...interface{}) error {
	return &InvalidGeometryError{Reason: fmt.Sprintf(format, args...)}
}
