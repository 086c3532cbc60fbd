package operators

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// AffineOperator represents u ↦ A·u + b. It is not linear.
type AffineOperator struct {
	A Operator
	b *mat.VecDense
}

var _ Operator = (*AffineOperator)(nil)

// NewAffineOperator builds L·u = A·u + b. b's length must equal A's
// row count.
func NewAffineOperator(A Operator, b *mat.VecDense) (*AffineOperator, error) {
	m, _ := A.Dims()
	if b.Len() != m {
		return nil, fmt.Errorf("%w: translation vector has length %d, operator has %d rows", ErrShapeMismatch, b.Len(), m)
	}
	return &AffineOperator{A: A, b: b}, nil
}

func (L *AffineOperator) Dims() (m, n int) { return L.A.Dims() }

func (L *AffineOperator) Eltype() string { return "float64" }

func (L *AffineOperator) Traits() Traits {
	at := L.A.Traits()
	return Traits{
		HasMul:         at.HasMul,
		HasMulInplace:  at.HasMulInplace,
		HasLdiv:        at.HasLdiv,
		HasLdivInplace: at.HasLdivInplace,
		HasAdjoint:     false,
		IsConstant:     at.IsConstant,
		IsLinear:       false,
		IsSquare:       at.IsSquare,
	}
}

// addBroadcastCols adds b to every column of v in place.
func addBroadcastCols(v *mat.Dense, b *mat.VecDense) {
	m, k := v.Dims()
	for j := 0; j < k; j++ {
		for i := 0; i < m; i++ {
			v.Set(i, j, v.At(i, j)+b.AtVec(i))
		}
	}
}

func (L *AffineOperator) Apply(u mat.Matrix) (*mat.Dense, error) {
	v, err := L.A.Apply(u)
	if err != nil {
		return nil, err
	}
	addBroadcastCols(v, L.b)
	return v, nil
}

func (L *AffineOperator) MulTo(v *mat.Dense, u mat.Matrix) error {
	if err := L.A.MulTo(v, u); err != nil {
		return err
	}
	addBroadcastCols(v, L.b)
	return nil
}

// MulToScaled implements v <- alpha*(A·u + b) + beta*v as
// mul!(v, A, u, alpha, beta) followed by v <- v + alpha*b.
func (L *AffineOperator) MulToScaled(v *mat.Dense, u mat.Matrix, alpha, beta float64) error {
	if err := L.A.MulToScaled(v, u, alpha, beta); err != nil {
		return err
	}
	var scaledB mat.VecDense
	scaledB.ScaleVec(alpha, L.b)
	addBroadcastCols(v, &scaledB)
	return nil
}

func (L *AffineOperator) Solve(u mat.Matrix) (*mat.Dense, error) {
	shifted, err := subtractBroadcastCols(u, L.b)
	if err != nil {
		return nil, err
	}
	return L.A.Solve(shifted)
}

func (L *AffineOperator) SolveTo(v *mat.Dense, u mat.Matrix) error {
	shifted, err := subtractBroadcastCols(u, L.b)
	if err != nil {
		return err
	}
	return L.A.SolveTo(v, shifted)
}

// SolveInPlace writes u <- u - b, then u <- A⁻¹·u.
func (L *AffineOperator) SolveInPlace(u *mat.Dense) error {
	m, k := u.Dims()
	bm := L.b.Len()
	if m != bm {
		return fmt.Errorf("%w: solve expects input with %d rows, got %d", ErrShapeMismatch, bm, m)
	}
	for j := 0; j < k; j++ {
		for i := 0; i < m; i++ {
			u.Set(i, j, u.At(i, j)-L.b.AtVec(i))
		}
	}
	return L.A.SolveInPlace(u)
}

func subtractBroadcastCols(u mat.Matrix, b *mat.VecDense) (*mat.Dense, error) {
	m, k := u.Dims()
	if m != b.Len() {
		return nil, fmt.Errorf("%w: solve expects input with %d rows, got %d", ErrShapeMismatch, b.Len(), m)
	}
	shifted := mat.NewDense(m, k, nil)
	shifted.Copy(u)
	for j := 0; j < k; j++ {
		for i := 0; i < m; i++ {
			shifted.Set(i, j, shifted.At(i, j)-b.AtVec(i))
		}
	}
	return shifted, nil
}

// Adjoint panics: an affine map has no adjoint (it is not linear), and
// Operator.Adjoint has no error return to signal that. Traits().HasAdjoint
// is false for every AffineOperator; callers must consult it before
// calling Adjoint.
func (L *AffineOperator) Adjoint() Operator {
	m, n := L.Dims()
	panic(fmt.Sprintf("operators: AffineOperator has no adjoint (not linear); check Traits().HasAdjoint before calling Adjoint, got shape (%d,%d)", m, n))
}

func (L *AffineOperator) UpdateCoefficients(u mat.Matrix, p Parameters, t float64) error {
	return L.A.UpdateCoefficients(u, p, t)
}

func (L *AffineOperator) CacheOperator(u mat.Matrix) (Operator, error) {
	cached, err := L.A.CacheOperator(u)
	if err != nil {
		return nil, err
	}
	L.A = cached
	return L, nil
}

func (L *AffineOperator) IsCached() bool { return L.A.IsCached() }
