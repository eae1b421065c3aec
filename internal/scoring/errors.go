package scoring

import "errors"

var (
	// ErrInvalidArgument marks a value outside its permitted range, a
	// vector of the wrong length, or an incompatible class pairing.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported marks a mutation of an immutable vector.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrNilArgument marks a required argument that was nil.
	ErrNilArgument = errors.New("nil argument")
)
