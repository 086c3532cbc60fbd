package operators

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TensorProductOperator represents outer ⊗ inner: the block-structured
// Kronecker product satisfying (outer⊗inner)·vec(U) = vec(inner·U·outerᵗ),
// where U reshapes a vector of length size(inner,2)·size(outer,2) into
// a matrix with size(inner,2) rows (inner varies fastest).
//
// This is the core numerical kernel of the package: every apply/solve
// is computed via a three-step reshape/permute/multiply pipeline
// rather than ever materializing the Kronecker matrix itself.
type TensorProductOperator struct {
	outer, inner Operator
	mo, no       int
	mi, ni       int

	c1, c2, c3, c4 *mat.Dense
	cached         bool
	cachedK        int
	gen            cacheTag
}

var _ Operator = (*TensorProductOperator)(nil)

// NewTensorProductOperator builds outer ⊗ inner. The Kronecker of two
// identities collapses to a single larger identity.
func NewTensorProductOperator(outer, inner Operator) Operator {
	mo, no := outer.Dims()
	mi, ni := inner.Dims()
	if isIdentityOperator(outer) && isIdentityOperator(inner) {
		return NewIdentityOperator(mo * mi)
	}
	return &TensorProductOperator{outer: outer, inner: inner, mo: mo, no: no, mi: mi, ni: ni}
}

// Kron folds a variadic list of operators into a TensorProductOperator,
// right-associatively: Kron(a,b,c) = NewTensorProductOperator(a, Kron(b,c)).
// A single operator is returned unchanged.
func Kron(ops ...Operator) (Operator, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: Kron requires at least one operator", ErrMissingAttribute)
	}
	if len(ops) == 1 {
		return ops[0], nil
	}
	rest, err := Kron(ops[1:]...)
	if err != nil {
		return nil, err
	}
	return NewTensorProductOperator(ops[0], rest), nil
}

// AsOperator promotes a bare gonum matrix to a *MatrixOperator; an
// already-built Operator passes through unchanged. Used to let
// TensorProductOperator combinators accept matrix literals directly.
func AsOperator(x any) (Operator, error) {
	switch v := x.(type) {
	case Operator:
		return v, nil
	case mat.Matrix:
		return NewMatrixOperator(v), nil
	default:
		return nil, fmt.Errorf("%w: %T is neither an Operator nor a gonum matrix", ErrUnsupported, x)
	}
}

func isIdentityOperator(op Operator) bool {
	_, ok := op.(*IdentityOperator)
	return ok
}

func (L *TensorProductOperator) Dims() (m, n int) { return L.mo * L.mi, L.no * L.ni }

func (L *TensorProductOperator) Eltype() string { return "float64" }

func (L *TensorProductOperator) Traits() Traits {
	ot, it := L.outer.Traits(), L.inner.Traits()
	outerIdent := isIdentityOperator(L.outer)
	return Traits{
		HasMul:         it.HasMulInplace && (outerIdent || ot.HasMulInplace),
		HasMulInplace:  it.HasMulInplace && (outerIdent || ot.HasMulInplace),
		HasLdiv:        it.HasLdivInplace && (outerIdent || ot.HasLdivInplace),
		HasLdivInplace: it.HasLdivInplace && (outerIdent || ot.HasLdivInplace),
		HasAdjoint:     it.HasAdjoint && ot.HasAdjoint,
		IsConstant:     it.IsConstant && ot.IsConstant,
		IsLinear:       true,
		IsSquare:       L.mo == L.no && L.mi == L.ni,
		IsSymmetric:    it.IsSymmetric && ot.IsSymmetric,
		IsHermitian:    it.IsHermitian && ot.IsHermitian,
	}
}

// view presents a generic read-only mat.Matrix backed by closures,
// used to reshape u without copying it.
type view struct {
	rows, cols int
	at         func(i, j int) float64
}

func (v view) Dims() (int, int)    { return v.rows, v.cols }
func (v view) At(i, j int) float64 { return v.at(i, j) }
func (v view) T() mat.Matrix {
	return view{rows: v.cols, cols: v.rows, at: func(i, j int) float64 { return v.at(j, i) }}
}

// fastView reinterprets u — logically (q*p, k), with the p-axis
// varying fastest within each length-p block — as the (p, q*k) matrix
// the tensor-product kernel's inner-multiply step operates on, without
// ever copying u's data.
func fastView(u mat.Matrix, p, q, k int) mat.Matrix {
	return view{
		rows: p, cols: q * k,
		at: func(i, jc int) float64 {
			j, c := jc/k, jc%k
			return u.At(j*p+i, c)
		},
	}
}

// permute213 implements the TensorProductOperator's (2,1,3) permute
// step as a strided copy: dst[j, i*k+c] = src[i, j*k+c], for i in
// [0,p), j in [0,q), c in [0,k). For k=1 this is a plain transpose.
func permute213(dst, src *mat.Dense, p, q, k int) {
	if k == 1 {
		dst.Copy(src.T())
		return
	}
	for i := 0; i < p; i++ {
		for j := 0; j < q; j++ {
			for c := 0; c < k; c++ {
				dst.Set(j, i*k+c, src.At(i, j*k+c))
			}
		}
	}
}

// foldOuterAxis reshapes (mo, mi*k) into (mo*mi, k):
// dst[jo*mi+i, c] = src[jo, i*k+c].
func foldOuterAxis(dst, src *mat.Dense, mo, mi, k int) {
	for jo := 0; jo < mo; jo++ {
		for i := 0; i < mi; i++ {
			for c := 0; c < k; c++ {
				dst.Set(jo*mi+i, c, src.At(jo, i*k+c))
			}
		}
	}
}

// computeInto runs the full apply/solve pipeline, writing the result
// into v, using c1/c2/c3 as scratch (caller-owned: either freshly
// allocated for the uncached allocating path, or the operator's own
// cached workspace for the in-place path). innerStep/outerStep are
// bound to either (MulTo,MulTo) or (SolveTo,SolveTo) on inner/outer.
func (L *TensorProductOperator) computeInto(c1, c2, c3, v *mat.Dense, u mat.Matrix, innerStep, outerStep func(*mat.Dense, mat.Matrix) error) error {
	_, k := v.Dims()
	u1 := fastView(u, L.ni, L.no, k)
	if err := innerStep(c1, u1); err != nil {
		return err
	}
	permute213(c2, c1, L.mi, L.no, k)

	src := c3
	if isIdentityOperator(L.outer) {
		src = c2
	} else if err := outerStep(c3, c2); err != nil {
		return err
	}
	foldOuterAxis(v, src, L.mo, L.mi, k)
	return nil
}

func (L *TensorProductOperator) Apply(u mat.Matrix) (*mat.Dense, error) {
	m, n := L.Dims()
	if err := checkApplyDims(m, n, u); err != nil {
		return nil, err
	}
	_, k := u.Dims()
	c1 := mat.NewDense(L.mi, L.no*k, nil)
	c2 := mat.NewDense(L.no, L.mi*k, nil)
	c3 := mat.NewDense(L.mo, L.mi*k, nil)
	v := mat.NewDense(m, k, nil)
	if err := L.computeInto(c1, c2, c3, v, u, L.inner.MulTo, L.outer.MulTo); err != nil {
		return nil, err
	}
	return v, nil
}

func (L *TensorProductOperator) MulTo(v *mat.Dense, u mat.Matrix) error {
	m, n := L.Dims()
	if err := checkApplyDims(m, n, u); err != nil {
		return err
	}
	if !L.cached {
		return fmt.Errorf("%w: call CacheOperator before the in-place mul!", ErrCacheNotSet)
	}
	_, k := u.Dims()
	if k != L.cachedK {
		return fmt.Errorf("%w: workspace %s was cached for %d columns, got %d; call CacheOperator again", ErrCacheNotSet, L.gen, L.cachedK, k)
	}
	if err := checkOutDims(v, m, k); err != nil {
		return err
	}
	return L.computeInto(L.c1, L.c2, L.c3, v, u, L.inner.MulTo, L.outer.MulTo)
}

// MulToScaled implements v <- alpha*(outer⊗inner)·u + beta*v using c4
// as the snapshot slot for v's pre-call value.
func (L *TensorProductOperator) MulToScaled(v *mat.Dense, u mat.Matrix, alpha, beta float64) error {
	if !L.cached {
		return fmt.Errorf("%w: call CacheOperator before the 5-argument mul!", ErrCacheNotSet)
	}
	L.c4.Copy(v)
	if err := L.MulTo(v, u); err != nil {
		return err
	}
	v.Scale(alpha, v)
	if beta != 0 {
		L.c4.Scale(beta, L.c4)
		v.Add(v, L.c4)
	}
	return nil
}

func (L *TensorProductOperator) Solve(u mat.Matrix) (*mat.Dense, error) {
	m, n := L.Dims()
	if err := requireSquare(m, n); err != nil {
		return nil, err
	}
	if !L.Traits().HasLdiv {
		return nil, fmt.Errorf("%w: tensor product operator has no solve", ErrUnsupported)
	}
	_, k := u.Dims()
	c1 := mat.NewDense(L.mi, L.no*k, nil)
	c2 := mat.NewDense(L.no, L.mi*k, nil)
	c3 := mat.NewDense(L.mo, L.mi*k, nil)
	v := mat.NewDense(n, k, nil)
	if err := L.computeInto(c1, c2, c3, v, u, L.inner.SolveTo, L.outer.SolveTo); err != nil {
		return nil, err
	}
	return v, nil
}

func (L *TensorProductOperator) SolveTo(v *mat.Dense, u mat.Matrix) error {
	m, n := L.Dims()
	if err := requireSquare(m, n); err != nil {
		return err
	}
	if !L.Traits().HasLdivInplace {
		return fmt.Errorf("%w: tensor product operator has no in-place solve", ErrUnsupported)
	}
	if !L.cached {
		return fmt.Errorf("%w: call CacheOperator before the in-place ldiv!", ErrCacheNotSet)
	}
	_, k := u.Dims()
	if k != L.cachedK {
		return fmt.Errorf("%w: workspace %s was cached for %d columns, got %d; call CacheOperator again", ErrCacheNotSet, L.gen, L.cachedK, k)
	}
	if err := checkOutDims(v, n, k); err != nil {
		return err
	}
	return L.computeInto(L.c1, L.c2, L.c3, v, u, L.inner.SolveTo, L.outer.SolveTo)
}

func (L *TensorProductOperator) SolveInPlace(u *mat.Dense) error {
	if !L.cached {
		return fmt.Errorf("%w: call CacheOperator before the in-place ldiv!", ErrCacheNotSet)
	}
	L.c4.Copy(u)
	return L.SolveTo(u, L.c4)
}

// Adjoint returns (outerᴴ) ⊗ (innerᴴ); self-adjoint sub-operators make
// the whole product self-adjoint, returned unchanged.
func (L *TensorProductOperator) Adjoint() Operator {
	if SelfAdjoint(L.Traits()) {
		return L
	}
	return NewTensorProductOperator(L.outer.Adjoint(), L.inner.Adjoint())
}

func (L *TensorProductOperator) UpdateCoefficients(u mat.Matrix, p Parameters, t float64) error {
	if err := L.outer.UpdateCoefficients(u, p, t); err != nil {
		return err
	}
	return L.inner.UpdateCoefficients(u, p, t)
}

// CacheOperator allocates c1..c4 sized from u's column count k and
// forwards caching into both sub-operators, using c2 as the
// representative input for outer.
func (L *TensorProductOperator) CacheOperator(u mat.Matrix) (Operator, error) {
	_, k := u.Dims()
	if L.cached && L.cachedK == k {
		return L, nil
	}
	L.c1 = mat.NewDense(L.mi, L.no*k, nil)
	L.c2 = mat.NewDense(L.no, L.mi*k, nil)
	L.c3 = mat.NewDense(L.mo, L.mi*k, nil)
	L.c4 = mat.NewDense(L.mo*L.mi, k, nil)

	innerCached, err := L.inner.CacheOperator(fastView(u, L.ni, L.no, k))
	if err != nil {
		return nil, err
	}
	L.inner = innerCached

	if !isIdentityOperator(L.outer) {
		outerCached, err := L.outer.CacheOperator(L.c2)
		if err != nil {
			return nil, err
		}
		L.outer = outerCached
	}

	L.cached, L.cachedK, L.gen = true, k, newCacheTag()
	return L, nil
}

func (L *TensorProductOperator) IsCached() bool { return L.cached }

// ConvertToMatrix materializes outer ⊗ inner as kron(Mo, Mi).
func (L *TensorProductOperator) ConvertToMatrix() (*mat.Dense, error) {
	Mo, err := ConvertToMatrix(L.outer)
	if err != nil {
		return nil, err
	}
	Mi, err := ConvertToMatrix(L.inner)
	if err != nil {
		return nil, err
	}
	return kronDense(Mo, Mi), nil
}

func kronDense(a, b *mat.Dense) *mat.Dense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	out := mat.NewDense(ar*br, ac*bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			aij := a.At(i, j)
			for p := 0; p < br; p++ {
				for q := 0; q < bc; q++ {
					out.Set(i*br+p, j*bc+q, aij*b.At(p, q))
				}
			}
		}
	}
	return out
}
