package models

import "errors"

// ErrPathReferenced is returned when deleting a path still used by a topology.
var ErrPathReferenced = errors.New("path is referenced by a topology")
