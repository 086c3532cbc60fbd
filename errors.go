package operators

import "errors"

// Sentinel faults, one per category in the error taxonomy. Call sites
// wrap these with operator-specific context via fmt.Errorf("%w: ...").
var (
	// ErrUnsupported indicates the operation is not advertised by the
	// operator's capability traits.
	ErrUnsupported = errors.New("operators: operation not supported by this operator")

	// ErrShapeMismatch indicates an input or output dimension disagrees
	// with the operator's size.
	ErrShapeMismatch = errors.New("operators: shape mismatch")

	// ErrCacheNotSet indicates an in-place kernel was invoked before
	// cache_operator allocated the required workspace.
	ErrCacheNotSet = errors.New("operators: cache not set up")

	// ErrMissingAttribute indicates a required attribute (e.g. opnorm)
	// was not supplied at construction time.
	ErrMissingAttribute = errors.New("operators: missing required attribute")

	// ErrSingular is returned by a factorization or solve that failed
	// because the underlying matrix is (numerically) singular.
	ErrSingular = errors.New("operators: operator is singular")

	// ErrNotSquare indicates solve was requested on a non-square operator.
	ErrNotSquare = errors.New("operators: operator is not square")
)
