// Package operators implements a composable algebra of linear and
// affine operators for use inside iterative solvers of differential
// and algebraic equations: matrix-vector product, solve, adjoint, and
// factorization over dense, sparse, and matrix-free representations.
//
// Operators are time- and parameter-dependent: UpdateCoefficients
// refreshes an operator's internal state given a representative input
// u, a caller-opaque parameter value p, and a time t, before the next
// apply or solve observes the change.
package operators

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Parameters is the caller-opaque parameter value threaded through
// UpdateCoefficients. Operators that do not use parameters accept nil.
type Parameters = any

// Operator is the common interface every variant in this package
// implements: MatrixOperator, InvertibleOperator, AffineOperator,
// FunctionOperator, TensorProductOperator, IdentityOperator, and the
// lazy AdjointWrap fallback.
//
// Every method may be unsupported by a given variant; callers should
// consult Traits (or the Has*/Is* package functions) before calling,
// since an unsupported call returns ErrUnsupported rather than
// panicking. The one exception is Adjoint, which has no error return:
// AffineOperator.Adjoint panics (its Traits report HasAdjoint=false).
type Operator interface {
	// Dims reports the operator's shape (m, n): apply takes input with
	// n rows and produces output with m rows.
	Dims() (m, n int)

	// Eltype reports the operator's scalar type. Fixed to "float64" in
	// this library; present for parity with the source API's eltype(L).
	Eltype() string

	// Traits reports which operations this operator supports.
	Traits() Traits

	// Apply returns a freshly allocated v = L*u.
	Apply(u mat.Matrix) (*mat.Dense, error)

	// MulTo writes v <- L*u in place. Requires HasMulInplace.
	MulTo(v *mat.Dense, u mat.Matrix) error

	// MulToScaled writes v <- alpha*(L*u) + beta*v in place. Requires
	// HasMulInplace.
	MulToScaled(v *mat.Dense, u mat.Matrix, alpha, beta float64) error

	// Solve returns a freshly allocated v = L^-1 * u. Requires HasLdiv.
	Solve(u mat.Matrix) (*mat.Dense, error)

	// SolveTo writes v <- L^-1 * u in place. Requires HasLdivInplace.
	SolveTo(v *mat.Dense, u mat.Matrix) error

	// SolveInPlace writes u <- L^-1 * u. Requires HasLdivInplace.
	SolveInPlace(u *mat.Dense) error

	// Adjoint returns an operator equal to the conjugate transpose of
	// L. Since this library fixes T=float64, this is the transpose.
	// If L declares itself self-adjoint, the identical value is
	// returned (see SelfAdjoint).
	Adjoint() Operator

	// UpdateCoefficients refreshes internal state for a new (u, p, t).
	// Implementations mutate their own fields in place; a copy of the
	// operator taken before the call does not observe the update
	// (matching the "independently owning the update hook" invariant),
	// but continues to share any underlying matrix storage by
	// reference.
	UpdateCoefficients(u mat.Matrix, p Parameters, t float64) error

	// CacheOperator allocates workspace sized for u on the receiver and
	// returns the receiver; no separate copy of the operator is made.
	// Idempotent: calling it again with a same-shaped u is a no-op that
	// returns the receiver unchanged.
	CacheOperator(u mat.Matrix) (Operator, error)

	// IsCached reports whether in-place kernels that require
	// workspace are currently usable.
	IsCached() bool
}

// checkApplyDims validates that u is a legal input to L's apply path:
// u must have L's column count as its row count.
func checkApplyDims(m, n int, u mat.Matrix) error {
	ur, _ := u.Dims()
	if ur != n {
		return fmt.Errorf("%w: apply expects input with %d rows, got %d (operator shape (%d,%d))", ErrShapeMismatch, n, ur, m, n)
	}
	return nil
}

// checkSolveDims validates that u is a legal input to L's solve path:
// u must have L's row count as its row count.
func checkSolveDims(m, n int, u mat.Matrix) error {
	ur, _ := u.Dims()
	if ur != m {
		return fmt.Errorf("%w: solve expects input with %d rows, got %d (operator shape (%d,%d))", ErrShapeMismatch, m, ur, m, n)
	}
	return nil
}

// checkOutDims validates that a caller-supplied output buffer v has
// the expected shape.
func checkOutDims(v *mat.Dense, rows, cols int) error {
	vr, vc := v.Dims()
	if vr != rows || vc != cols {
		return fmt.Errorf("%w: expected output shape (%d,%d), got (%d,%d)", ErrShapeMismatch, rows, cols, vr, vc)
	}
	return nil
}

// requireSquare faults if an operator of shape (m,n) is not square,
// as required by solve.
func requireSquare(m, n int) error {
	if m != n {
		return fmt.Errorf("%w: shape (%d,%d)", ErrNotSquare, m, n)
	}
	return nil
}

// mulScaled implements the universal 5-argument mul! pattern
// v <- alpha*(L*u) + beta*v given a 3-argument mulTo that computes
// L*u into v. Used by every variant whose in-place apply has no
// cheaper direct formula for the scaled form.
func mulScaled(v *mat.Dense, u mat.Matrix, alpha, beta float64, mulTo func(*mat.Dense, mat.Matrix) error) error {
	var snapshot mat.Dense
	snapshot.CloneFrom(v)
	if err := mulTo(v, u); err != nil {
		return err
	}
	v.Scale(alpha, v)
	if beta != 0 {
		var scaledSnap mat.Dense
		scaledSnap.Scale(beta, &snapshot)
		v.Add(v, &scaledSnap)
	}
	return nil
}

// applyFromMulTo implements the universal allocating Apply given a
// MulTo that writes into a caller-provided destination.
func applyFromMulTo(m, n int, u mat.Matrix, mulTo func(*mat.Dense, mat.Matrix) error) (*mat.Dense, error) {
	_, k := u.Dims()
	v := mat.NewDense(m, k, nil)
	if err := mulTo(v, u); err != nil {
		return nil, err
	}
	return v, nil
}
