package operators

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// UpdateHook mutates A in place given a representative input u and
// the new (p, t). The default hook is the identity, which marks the
// owning MatrixOperator constant.
type UpdateHook func(A mat.Matrix, u mat.Matrix, p Parameters, t float64) error

func identityHook(mat.Matrix, mat.Matrix, Parameters, float64) error { return nil }

// symmetricMatrix matches gonum's mat.Symmetric capability marker
// (e.g. *mat.SymDense), used to derive the IsSymmetric/IsHermitian
// traits without a full elementwise comparison.
type symmetricMatrix interface {
	SymmetricDim() int
}

// hasNativeSolve reports whether A advertises left-division on its
// own, without going through Factorize. Restricted to the structured
// types the source calls out explicitly (triangular, diagonal); a
// general Dense or sparse matrix must be factorized first.
func hasNativeSolve(A mat.Matrix) bool {
	switch A.(type) {
	case *mat.TriDense, *mat.DiagDense:
		return true
	default:
		return false
	}
}

// MatrixOperator wraps a mutable matrix A (dense, triangular,
// diagonal, symmetric, or sparse) together with an optional
// time/parameter update hook.
type MatrixOperator struct {
	A        mat.Matrix
	hook     UpdateHook
	constant bool
	p        Parameters
	t        float64
}

var _ Operator = (*MatrixOperator)(nil)

// NewMatrixOperator wraps A with the identity update hook; the
// resulting operator is constant.
func NewMatrixOperator(A mat.Matrix) *MatrixOperator {
	return &MatrixOperator{A: A, hook: identityHook, constant: true}
}

// NewTimeVaryingMatrixOperator wraps A with a caller-supplied update
// hook that mutates A given (u, p, t).
func NewTimeVaryingMatrixOperator(A mat.Matrix, hook UpdateHook) *MatrixOperator {
	if hook == nil {
		hook = identityHook
	}
	return &MatrixOperator{A: A, hook: hook, constant: false}
}

func (L *MatrixOperator) Dims() (m, n int) { return L.A.Dims() }

func (L *MatrixOperator) Eltype() string { return "float64" }

func (L *MatrixOperator) Traits() Traits {
	m, n := L.A.Dims()
	sym := false
	if _, ok := L.A.(symmetricMatrix); ok {
		sym = true
	}
	ldiv := m == n && hasNativeSolve(L.A)
	return Traits{
		HasMul:         true,
		HasMulInplace:  true,
		HasLdiv:        ldiv,
		HasLdivInplace: ldiv,
		HasAdjoint:     true,
		IsConstant:     L.constant,
		IsLinear:       true,
		IsSquare:       m == n,
		IsSymmetric:    sym,
		IsHermitian:    sym,
	}
}

func (L *MatrixOperator) Apply(u mat.Matrix) (*mat.Dense, error) {
	m, n := L.Dims()
	if err := checkApplyDims(m, n, u); err != nil {
		return nil, err
	}
	return applyFromMulTo(m, n, u, L.MulTo)
}

func (L *MatrixOperator) MulTo(v *mat.Dense, u mat.Matrix) error {
	m, n := L.Dims()
	if err := checkApplyDims(m, n, u); err != nil {
		return err
	}
	_, k := u.Dims()
	if err := checkOutDims(v, m, k); err != nil {
		return err
	}
	v.Mul(L.A, u)
	return nil
}

func (L *MatrixOperator) MulToScaled(v *mat.Dense, u mat.Matrix, alpha, beta float64) error {
	m, n := L.Dims()
	if err := checkApplyDims(m, n, u); err != nil {
		return err
	}
	return mulScaled(v, u, alpha, beta, L.MulTo)
}

func (L *MatrixOperator) Solve(u mat.Matrix) (*mat.Dense, error) {
	m, n := L.Dims()
	if err := requireSquare(m, n); err != nil {
		return nil, err
	}
	_, k := u.Dims()
	v := mat.NewDense(n, k, nil)
	if err := L.SolveTo(v, u); err != nil {
		return nil, err
	}
	return v, nil
}

func (L *MatrixOperator) SolveTo(v *mat.Dense, u mat.Matrix) error {
	m, n := L.Dims()
	if err := requireSquare(m, n); err != nil {
		return err
	}
	if !L.Traits().HasLdiv {
		return fmt.Errorf("%w: matrix operator %dx%d has no native solve (factorize it first)", ErrUnsupported, m, n)
	}
	if err := checkSolveDims(m, n, u); err != nil {
		return err
	}
	_, k := u.Dims()
	if err := checkOutDims(v, n, k); err != nil {
		return err
	}
	if err := v.Solve(L.A, u); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}

func (L *MatrixOperator) SolveInPlace(u *mat.Dense) error {
	m, n := L.Dims()
	if err := requireSquare(m, n); err != nil {
		return err
	}
	var snapshot mat.Dense
	snapshot.CloneFrom(u)
	return L.SolveTo(u, &snapshot)
}

// Adjoint returns a new MatrixOperator over Aᵗ (Aᴴ for real scalars).
// The returned operator's view shares A's backing storage, and its
// update hook is dualized to mutate the original A so that the two
// handles remain consistent.
func (L *MatrixOperator) Adjoint() Operator {
	if SelfAdjoint(L.Traits()) {
		return L
	}
	originalHook, originalA := L.hook, L.A
	dualHook := func(_ mat.Matrix, u mat.Matrix, p Parameters, t float64) error {
		return originalHook(originalA, u, p, t)
	}
	return &MatrixOperator{A: L.A.T(), hook: dualHook, constant: L.constant, p: L.p, t: L.t}
}

func (L *MatrixOperator) UpdateCoefficients(u mat.Matrix, p Parameters, t float64) error {
	if err := L.hook(L.A, u, p, t); err != nil {
		return err
	}
	L.p, L.t = p, t
	return nil
}

// CacheOperator is a no-op for MatrixOperator: it requires no
// workspace.
func (L *MatrixOperator) CacheOperator(mat.Matrix) (Operator, error) { return L, nil }

func (L *MatrixOperator) IsCached() bool { return true }

// ConvertToMatrix returns A as a *mat.Dense, materializing sparse or
// structured storage if necessary. Satisfies the materialize.go
// Materializable interface.
func (L *MatrixOperator) ConvertToMatrix() (*mat.Dense, error) {
	if d, ok := L.A.(*mat.Dense); ok {
		return d, nil
	}
	m, n := L.A.Dims()
	dst := mat.NewDense(m, n, nil)
	dst.Copy(L.A)
	return dst, nil
}
