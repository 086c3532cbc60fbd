package operators

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// AdjointWrap is the lazy fallback returned by Adjoint() when an
// operator has no native adjoint of its own to hand back: an
// InvertibleOperator kind with no transposed-solve path (SVD), or a
// FunctionOperator/matrix-free operator with no adjoint callable
// supplied. It never needs the wrapped operator's internal
// representation: a forward apply is materialized by probing L with
// standard basis vectors and transposing the result, and a solve is
// materialized the same way by probing L's own solve. Adjoint() on an
// AdjointWrap unwraps back to the original operator.
type AdjointWrap struct {
	L    Operator
	m, n int

	matT *mat.Dense // transpose of L's forward map, probed lazily
	invT *mat.Dense // transpose of L's inverse map, probed lazily
}

var _ Operator = (*AdjointWrap)(nil)

// NewAdjointWrap wraps L. Wrapping an already-wrapped operator unwraps
// it instead, satisfying adjoint(AdjointWrap(L)) = L.
func NewAdjointWrap(L Operator) Operator {
	if w, ok := L.(*AdjointWrap); ok {
		return w.L
	}
	m, n := L.Dims()
	return &AdjointWrap{L: L, m: n, n: m}
}

func (w *AdjointWrap) Dims() (m, n int) { return w.m, w.n }

func (w *AdjointWrap) Eltype() string { return w.L.Eltype() }

func (w *AdjointWrap) Traits() Traits {
	lt := w.L.Traits()
	return Traits{
		HasMul:         lt.HasMul,
		HasMulInplace:  lt.HasMul,
		HasLdiv:        lt.HasLdiv,
		HasLdivInplace: lt.HasLdiv,
		HasAdjoint:     true,
		IsConstant:     lt.IsConstant,
		IsLinear:       lt.IsLinear,
		IsSquare:       lt.IsSquare,
		IsSymmetric:    lt.IsSymmetric,
		IsHermitian:    lt.IsHermitian,
		IsPosDef:       lt.IsPosDef,
		IsSingular:     lt.IsSingular,
	}
}

// probeColumns assembles an (rows, cols) dense matrix whose j-th
// column is f applied to the j-th standard basis vector of R^cols.
func probeColumns(rows, cols int, f func(mat.Matrix) (*mat.Dense, error)) (*mat.Dense, error) {
	out := mat.NewDense(rows, cols, nil)
	e := mat.NewVecDense(cols, nil)
	for j := 0; j < cols; j++ {
		e.Zero()
		e.SetVec(j, 1)
		col, err := f(e)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, col.At(i, 0))
		}
	}
	return out, nil
}

func (w *AdjointWrap) forwardT() (*mat.Dense, error) {
	if w.matT != nil {
		return w.matT, nil
	}
	lm, ln := w.L.Dims()
	A, err := probeColumns(lm, ln, w.L.Apply)
	if err != nil {
		return nil, err
	}
	T := mat.NewDense(ln, lm, nil)
	T.Copy(A.T())
	w.matT = T
	return T, nil
}

func (w *AdjointWrap) inverseT() (*mat.Dense, error) {
	if w.invT != nil {
		return w.invT, nil
	}
	ln, _ := w.L.Dims()
	Linv, err := probeColumns(ln, ln, w.L.Solve)
	if err != nil {
		return nil, err
	}
	T := mat.NewDense(ln, ln, nil)
	T.Copy(Linv.T())
	w.invT = T
	return T, nil
}

func (w *AdjointWrap) Apply(u mat.Matrix) (*mat.Dense, error) {
	if !w.Traits().HasMul {
		return nil, fmt.Errorf("%w: adjoint view has no forward apply", ErrUnsupported)
	}
	if err := checkApplyDims(w.m, w.n, u); err != nil {
		return nil, err
	}
	T, err := w.forwardT()
	if err != nil {
		return nil, err
	}
	var v mat.Dense
	v.Mul(T, u)
	return &v, nil
}

func (w *AdjointWrap) MulTo(v *mat.Dense, u mat.Matrix) error {
	if !w.Traits().HasMul {
		return fmt.Errorf("%w: adjoint view has no forward apply", ErrUnsupported)
	}
	if err := checkApplyDims(w.m, w.n, u); err != nil {
		return err
	}
	T, err := w.forwardT()
	if err != nil {
		return err
	}
	v.Mul(T, u)
	return nil
}

func (w *AdjointWrap) MulToScaled(v *mat.Dense, u mat.Matrix, alpha, beta float64) error {
	return mulScaled(v, u, alpha, beta, w.MulTo)
}

func (w *AdjointWrap) Solve(u mat.Matrix) (*mat.Dense, error) {
	if !w.Traits().HasLdiv {
		return nil, fmt.Errorf("%w: adjoint view has no solve", ErrUnsupported)
	}
	if err := requireSquare(w.m, w.n); err != nil {
		return nil, err
	}
	Tinv, err := w.inverseT()
	if err != nil {
		return nil, err
	}
	var v mat.Dense
	v.Mul(Tinv, u)
	return &v, nil
}

func (w *AdjointWrap) SolveTo(v *mat.Dense, u mat.Matrix) error {
	res, err := w.Solve(u)
	if err != nil {
		return err
	}
	v.Copy(res)
	return nil
}

func (w *AdjointWrap) SolveInPlace(u *mat.Dense) error {
	res, err := w.Solve(u)
	if err != nil {
		return err
	}
	u.Copy(res)
	return nil
}

// Adjoint unwraps back to the original operator.
func (w *AdjointWrap) Adjoint() Operator { return w.L }

func (w *AdjointWrap) UpdateCoefficients(u mat.Matrix, p Parameters, t float64) error {
	w.matT, w.invT = nil, nil
	return w.L.UpdateCoefficients(u, p, t)
}

func (w *AdjointWrap) CacheOperator(mat.Matrix) (Operator, error) { return w, nil }

func (w *AdjointWrap) IsCached() bool { return true }
