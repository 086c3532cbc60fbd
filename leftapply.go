package operators

import "gonum.org/v1/gonum/mat"

// This file covers the dispatch forms where u sits to the left of an
// operator: u·L, u/L, and the in-place ldiv! form that operates on an
// adjoint view of u directly. Since float64 fixes adjoint == transpose,
// every dual() below is a plain transpose.

// LeftSolve implements the in-place left-division ldiv!(u, L):
// u <- Lᴴ \ u. It reuses u as both the right-hand side and the
// destination by dispatching through L's adjoint view rather than
// threading a separate output argument, mirroring the way
// Operator.SolveInPlace reuses its single argument.
func LeftSolve(u *mat.Dense, L Operator) error {
	return L.Adjoint().SolveInPlace(u)
}

// LeftDiv is the allocating counterpart: x <- Lᴴ \ u.
func LeftDiv(L Operator, u mat.Matrix) (*mat.Dense, error) {
	return L.Adjoint().Solve(u)
}

// RightApply computes u·L for u a (k, m) matrix of row vectors and L
// of shape (m, n), via dual(dual(L)·dual(u)) = (Lᴴ·uᴴ)ᴴ.
func RightApply(u mat.Matrix, L Operator) (*mat.Dense, error) {
	uT := mat.DenseCopyOf(u.T())
	res, err := L.Adjoint().Apply(uT)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(res.T()), nil
}

// RightApplyTo writes u·L into v.
func RightApplyTo(v *mat.Dense, u mat.Matrix, L Operator) error {
	res, err := RightApply(u, L)
	if err != nil {
		return err
	}
	v.Copy(res)
	return nil
}

// RightSolve computes u/L = u·L⁻¹, via dual(dual(L) \ dual(u))
// = (Lᴴ \ uᴴ)ᴴ.
func RightSolve(u mat.Matrix, L Operator) (*mat.Dense, error) {
	uT := mat.DenseCopyOf(u.T())
	res, err := L.Adjoint().Solve(uT)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(res.T()), nil
}

// RightSolveTo writes u/L into v.
func RightSolveTo(v *mat.Dense, u mat.Matrix, L Operator) error {
	res, err := RightSolve(u, L)
	if err != nil {
		return err
	}
	v.Copy(res)
	return nil
}
