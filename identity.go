package operators

import "gonum.org/v1/gonum/mat"

// IdentityOperator is the n x n identity. Apply and Solve are both the
// identity map. It exists chiefly so TensorProductOperator's
// Kronecker-of-identities collapse and identity-outer fast path have a
// concrete representative to detect by type assertion.
type IdentityOperator struct {
	n int
}

var _ Operator = (*IdentityOperator)(nil)

func NewIdentityOperator(n int) *IdentityOperator { return &IdentityOperator{n: n} }

func (L *IdentityOperator) Dims() (m, n int) { return L.n, L.n }

func (L *IdentityOperator) Eltype() string { return "float64" }

func (L *IdentityOperator) Traits() Traits {
	return Traits{
		HasMul: true, HasMulInplace: true,
		HasLdiv: true, HasLdivInplace: true,
		HasAdjoint:  true,
		IsConstant:  true,
		IsLinear:    true,
		IsSquare:    true,
		IsSymmetric: true,
		IsHermitian: true,
		IsPosDef:    true,
	}
}

func (L *IdentityOperator) Apply(u mat.Matrix) (*mat.Dense, error) {
	if err := checkApplyDims(L.n, L.n, u); err != nil {
		return nil, err
	}
	var v mat.Dense
	v.CloneFrom(u)
	return &v, nil
}

func (L *IdentityOperator) MulTo(v *mat.Dense, u mat.Matrix) error {
	if err := checkApplyDims(L.n, L.n, u); err != nil {
		return err
	}
	v.Copy(u)
	return nil
}

func (L *IdentityOperator) MulToScaled(v *mat.Dense, u mat.Matrix, alpha, beta float64) error {
	return mulScaled(v, u, alpha, beta, L.MulTo)
}

func (L *IdentityOperator) Solve(u mat.Matrix) (*mat.Dense, error) { return L.Apply(u) }

func (L *IdentityOperator) SolveTo(v *mat.Dense, u mat.Matrix) error { return L.MulTo(v, u) }

func (L *IdentityOperator) SolveInPlace(*mat.Dense) error { return nil }

func (L *IdentityOperator) Adjoint() Operator { return L }

func (L *IdentityOperator) UpdateCoefficients(mat.Matrix, Parameters, float64) error { return nil }

func (L *IdentityOperator) CacheOperator(mat.Matrix) (Operator, error) { return L, nil }

func (L *IdentityOperator) IsCached() bool { return true }

// ConvertToMatrix satisfies Materializable directly rather than being
// probed column by column.
func (L *IdentityOperator) ConvertToMatrix() (*mat.Dense, error) {
	d := mat.NewDense(L.n, L.n, nil)
	for i := 0; i < L.n; i++ {
		d.Set(i, i, 1)
	}
	return d, nil
}
