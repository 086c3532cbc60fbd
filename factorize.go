package operators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// solver is the internal adapter every factorization kind implements.
// dims reports the square order n; solveInto writes x into dst for
// F*x = b (or Fᵗ*x = b when the adapter's transposed flag is set).
type solver interface {
	solveInto(dst *mat.Dense, b mat.Matrix) error
	transposed() solver
	dims() int
}

// InvertibleOperator holds a factorization of a square matrix and
// adds solve to the Operator interface. Apply (forward multiply
// through the factorization) is intentionally unsupported: it is
// only meaningful for a handful of factorization kinds (diagonal,
// bidiagonal, an adjoint-of-factorization view) and the source itself
// calls this usage secondary to solve; every kernel in this package
// advertises HasMul=false accordingly.
type InvertibleOperator struct {
	F    solver
	kind string
	ok   bool
	A    mat.Matrix // original matrix, retained only for OpNorm's materializing fallback
	p    Parameters
	t    float64
}

var _ Operator = (*InvertibleOperator)(nil)

func (L *InvertibleOperator) Dims() (m, n int) { n = L.F.dims(); return n, n }

func (L *InvertibleOperator) Eltype() string { return "float64" }

func (L *InvertibleOperator) Traits() Traits {
	return Traits{
		HasLdiv:        true,
		HasLdivInplace: true,
		HasAdjoint:     L.kind != "svd",
		IsConstant:     true,
		IsLinear:       true,
		IsSquare:       true,
		IsSingular:     !L.ok,
	}
}

// IsSuccess reports whether the underlying factorization succeeded.
func (L *InvertibleOperator) IsSuccess() bool { return L.ok }

// OpNorm returns 1/opnorm(F,p): an optimistic upper bound for
// condition-bounded solve error, independent of p for every kind this
// package implements. LU, Cholesky, and LQ read their native Cond()
// directly; SVD derives it from the singular values it already holds;
// the kinds with no native condition estimate (QR, Bunch-Kaufman,
// LDLᵀ) fall back to materializing A and calling mat.Cond.
func (L *InvertibleOperator) OpNorm(Parameters) (float64, error) {
	if !L.ok {
		return 0, fmt.Errorf("%w: %s factorization did not succeed", ErrSingular, L.kind)
	}
	var cond float64
	switch a := L.F.(type) {
	case luAdapter:
		cond = a.lu.Cond()
	case cholAdapter:
		cond = a.chol.Cond()
	case lqAdapter:
		cond = a.lq.Cond()
	case svdAdapter:
		vals := a.svd.Values(nil)
		if len(vals) == 0 || vals[len(vals)-1] == 0 {
			return 0, fmt.Errorf("%w: %s factorization has no finite condition number", ErrSingular, L.kind)
		}
		cond = vals[0] / vals[len(vals)-1]
	default:
		cond = mat.Cond(L.A, 2)
	}
	if cond == 0 || math.IsInf(cond, 1) || cond != cond {
		return 0, fmt.Errorf("%w: %s factorization has no finite condition number", ErrSingular, L.kind)
	}
	return 1 / cond, nil
}

func (L *InvertibleOperator) Apply(mat.Matrix) (*mat.Dense, error) {
	return nil, fmt.Errorf("%w: %s factorization does not support forward apply", ErrUnsupported, L.kind)
}

func (L *InvertibleOperator) MulTo(*mat.Dense, mat.Matrix) error {
	return fmt.Errorf("%w: %s factorization does not support forward apply", ErrUnsupported, L.kind)
}

func (L *InvertibleOperator) MulToScaled(*mat.Dense, mat.Matrix, float64, float64) error {
	return fmt.Errorf("%w: %s factorization does not support forward apply", ErrUnsupported, L.kind)
}

func (L *InvertibleOperator) Solve(u mat.Matrix) (*mat.Dense, error) {
	n := L.F.dims()
	_, k := u.Dims()
	v := mat.NewDense(n, k, nil)
	if err := L.SolveTo(v, u); err != nil {
		return nil, err
	}
	return v, nil
}

func (L *InvertibleOperator) SolveTo(v *mat.Dense, u mat.Matrix) error {
	if !L.ok {
		return fmt.Errorf("%w: %s factorization did not succeed", ErrSingular, L.kind)
	}
	n := L.F.dims()
	if err := checkSolveDims(n, n, u); err != nil {
		return err
	}
	_, k := u.Dims()
	if err := checkOutDims(v, n, k); err != nil {
		return err
	}
	if err := L.F.solveInto(v, u); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}

func (L *InvertibleOperator) SolveInPlace(u *mat.Dense) error {
	var snapshot mat.Dense
	snapshot.CloneFrom(u)
	return L.SolveTo(u, &snapshot)
}

// Adjoint returns an InvertibleOperator over Fᵗ. Symmetric kernels
// (Cholesky, Bunch-Kaufman/LDLᵀ) are self-adjoint by construction.
// LU, QR, and LQ expose a native transposed-solve path and so return
// directly without refactorizing. SVD has no transposed-solve adapter
// in this package and falls back to a lazy AdjointWrap.
func (L *InvertibleOperator) Adjoint() Operator {
	switch L.kind {
	case "cholesky", "bunch-kaufman", "ldlt":
		return L
	case "svd":
		return NewAdjointWrap(L)
	default:
		return &InvertibleOperator{F: L.F.transposed(), kind: L.kind, ok: L.ok, A: L.A, p: L.p, t: L.t}
	}
}

func (L *InvertibleOperator) UpdateCoefficients(_ mat.Matrix, p Parameters, t float64) error {
	L.p, L.t = p, t
	return nil
}

func (L *InvertibleOperator) CacheOperator(mat.Matrix) (Operator, error) { return L, nil }

func (L *InvertibleOperator) IsCached() bool { return true }

// --- factorization entry points -------------------------------------------------

// Factorize materializes L to a matrix and wraps it in an LU
// factorization — the general-purpose default.
func Factorize(L Operator) (*InvertibleOperator, error) {
	A, err := ConvertToMatrix(L)
	if err != nil {
		return nil, err
	}
	return LU(A)
}

func squareOrder(A mat.Matrix) (int, error) {
	m, n := A.Dims()
	if m != n {
		return 0, fmt.Errorf("%w: factorization requires a square matrix, got (%d,%d)", ErrNotSquare, m, n)
	}
	return n, nil
}

// --- LU --------------------------------------------------------------------------

type luAdapter struct {
	lu    *mat.LU
	n     int
	trans bool
}

func (a luAdapter) dims() int { return a.n }
func (a luAdapter) solveInto(dst *mat.Dense, b mat.Matrix) error {
	return a.lu.Solve(dst, a.trans, b)
}
func (a luAdapter) transposed() solver { return luAdapter{lu: a.lu, n: a.n, trans: !a.trans} }

// LU factors A via LU decomposition with partial pivoting.
func LU(A mat.Matrix) (*InvertibleOperator, error) {
	n, err := squareOrder(A)
	if err != nil {
		return nil, err
	}
	var lu mat.LU
	lu.Factorize(A)
	cond := lu.Cond()
	ok := cond == cond && cond < maxConditionNumber // cond==cond rejects NaN
	return &InvertibleOperator{F: luAdapter{lu: &lu, n: n}, kind: "lu", ok: ok, A: A}, nil
}

// --- QR --------------------------------------------------------------------------

type qrAdapter struct {
	qr    *mat.QR
	n     int
	trans bool
}

func (a qrAdapter) dims() int { return a.n }
func (a qrAdapter) solveInto(dst *mat.Dense, b mat.Matrix) error {
	return a.qr.SolveTo(dst, a.trans, b)
}
func (a qrAdapter) transposed() solver { return qrAdapter{qr: a.qr, n: a.n, trans: !a.trans} }

// QR factors A via Householder QR decomposition.
func QR(A mat.Matrix) (*InvertibleOperator, error) {
	n, err := squareOrder(A)
	if err != nil {
		return nil, err
	}
	var qr mat.QR
	qr.Factorize(A)
	return &InvertibleOperator{F: qrAdapter{qr: &qr, n: n}, kind: "qr", ok: true, A: A}, nil
}

// --- LQ --------------------------------------------------------------------------

type lqAdapter struct {
	lq    *mat.LQ
	n     int
	trans bool
}

func (a lqAdapter) dims() int { return a.n }
func (a lqAdapter) solveInto(dst *mat.Dense, b mat.Matrix) error {
	return a.lq.SolveTo(dst, a.trans, b)
}
func (a lqAdapter) transposed() solver { return lqAdapter{lq: a.lq, n: a.n, trans: !a.trans} }

// LQ factors A via LQ decomposition.
func LQ(A mat.Matrix) (*InvertibleOperator, error) {
	n, err := squareOrder(A)
	if err != nil {
		return nil, err
	}
	var lq mat.LQ
	lq.Factorize(A)
	return &InvertibleOperator{F: lqAdapter{lq: &lq, n: n}, kind: "lq", ok: true, A: A}, nil
}

// --- SVD -------------------------------------------------------------------------

type svdAdapter struct {
	svd *mat.SVD
	n   int
}

func (a svdAdapter) dims() int { return a.n }
func (a svdAdapter) solveInto(dst *mat.Dense, b mat.Matrix) error {
	return a.svd.SolveTo(dst, b, 0)
}
func (a svdAdapter) transposed() solver { return a } // no native transposed-solve path; Adjoint falls back to AdjointWrap

// SVD factors A via singular value decomposition.
func SVD(A mat.Matrix) (*InvertibleOperator, error) {
	n, err := squareOrder(A)
	if err != nil {
		return nil, err
	}
	var svd mat.SVD
	ok := svd.Factorize(A, mat.SVDFull)
	return &InvertibleOperator{F: svdAdapter{svd: &svd, n: n}, kind: "svd", ok: ok, A: A}, nil
}

// --- Cholesky --------------------------------------------------------------------

type cholAdapter struct {
	chol *mat.Cholesky
	n    int
}

func (a cholAdapter) dims() int { return a.n }
func (a cholAdapter) solveInto(dst *mat.Dense, b mat.Matrix) error {
	return a.chol.SolveTo(dst, b)
}
func (a cholAdapter) transposed() solver { return a } // symmetric: self-adjoint

func toSymDense(A mat.Matrix) *mat.SymDense {
	if s, ok := A.(*mat.SymDense); ok {
		return s
	}
	n, _ := A.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, A.At(i, j))
		}
	}
	return sym
}

// Cholesky factors A via Cholesky decomposition. A must be symmetric
// positive definite; if A is not already a *mat.SymDense its upper
// triangle is copied into one.
func Cholesky(A mat.Matrix) (*InvertibleOperator, error) {
	n, err := squareOrder(A)
	if err != nil {
		return nil, err
	}
	sym := toSymDense(A)
	var chol mat.Cholesky
	ok := chol.Factorize(sym)
	return &InvertibleOperator{F: cholAdapter{chol: &chol, n: n}, kind: "cholesky", ok: ok, A: sym}, nil
}

// --- Bunch-Kaufman / LDLᵀ ---------------------------------------------------------

// bunchKaufmanAdapter wraps the LAPACK Dsytrf/Dsytrs pair directly:
// gonum's mat package has no symmetric-indefinite factorization type,
// so this drops one level to gonum.org/v1/gonum/lapack/lapack64, the
// same package the retrieved gonum mat source
// (other_examples/kubernetes-kubernetes__lu.go, __cholesky.go) imports
// internally for its own LU/Cholesky kernels.
type bunchKaufmanAdapter struct {
	a    blas64.Symmetric // factored in place by Dsytrf
	ipiv []int
	n    int
}

func (a bunchKaufmanAdapter) dims() int { return a.n }

func (a bunchKaufmanAdapter) solveInto(dst *mat.Dense, b mat.Matrix) error {
	n := a.n
	_, k := b.Dims()
	var bDense mat.Dense
	bDense.CloneFrom(b)
	x := blas64.General{Rows: n, Cols: k, Stride: k, Data: make([]float64, n*k)}
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			x.Data[i*k+j] = bDense.At(i, j)
		}
	}
	lapack64.Dsytrs(blas.Upper, a.a, x, a.ipiv)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			dst.Set(i, j, x.Data[i*k+j])
		}
	}
	return nil
}

func (a bunchKaufmanAdapter) transposed() solver { return a } // symmetric: self-adjoint

// BunchKaufman factors symmetric (possibly indefinite) A via the
// pivoted Bunch-Kaufman decomposition (LAPACK Dsytrf).
func BunchKaufman(A mat.Matrix) (*InvertibleOperator, error) {
	return bunchKaufmanFactorize(A, "bunch-kaufman")
}

// LDLT factors symmetric A via the same pivoted decomposition as
// BunchKaufman: the block-diagonal D that Dsytrf produces (1x1 and
// 2x2 blocks) generalizes a plain LDLᵀ factorization for indefinite
// matrices, and the two are implemented by the same LAPACK kernel.
func LDLT(A mat.Matrix) (*InvertibleOperator, error) {
	return bunchKaufmanFactorize(A, "ldlt")
}

func bunchKaufmanFactorize(A mat.Matrix, kind string) (*InvertibleOperator, error) {
	n, err := squareOrder(A)
	if err != nil {
		return nil, err
	}
	sym := toSymDense(A)
	raw := sym.RawSymmetric()
	aCopy := make([]float64, len(raw.Data))
	copy(aCopy, raw.Data)
	bsym := blas64.Symmetric{N: raw.N, Stride: raw.Stride, Uplo: raw.Uplo, Data: aCopy}

	ipiv := make([]int, n)
	work := make([]float64, 1)
	lapack64.Dsytrf(blas.Upper, bsym, ipiv, work, -1)
	lwork := int(work[0])
	if lwork < 1 {
		lwork = n * n
	}
	work = make([]float64, lwork)
	ok := lapack64.Dsytrf(blas.Upper, bsym, ipiv, work, lwork)

	return &InvertibleOperator{
		F:    bunchKaufmanAdapter{a: bsym, ipiv: ipiv, n: n},
		kind: kind,
		ok:   ok,
		A:    sym,
	}, nil
}

const maxConditionNumber = 1e14 // LU factorizations with Cond() above this are treated as singular
