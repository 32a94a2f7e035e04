package urdf

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when the URDF file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrMalformed is returned when the URDF is not well-formed XML or not a robot description.
	ErrMalformed = errors.New("URDF parse error")
	// ErrMissingMeshes is returned when at least one referenced mesh file is absent.
	ErrMissingMeshes = errors.New("missing mesh files")
	// ErrNoRoot is returned when the joint tree has no unique root link.
	ErrNoRoot = errors.New("URDF has no unique root link")
)
