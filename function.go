package operators

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// OutOfPlaceFunc computes v = op(u, p, t), allocating v fresh.
type OutOfPlaceFunc func(u mat.Matrix, p Parameters, t float64) (*mat.Dense, error)

// InPlaceFunc computes op(u, p, t) into the caller-provided v without
// allocating.
type InPlaceFunc func(v *mat.Dense, u mat.Matrix, p Parameters, t float64) error

// FunctionOperatorConfig configures a matrix-free FunctionOperator.
// Exactly one of {Op, OpInPlace} (and, if provided, the corresponding
// member of each other pair) must be set, selected by InPlace:
// InPlace=false permits out-of-place callables only and InPlace=true
// permits in-place callables only.
type FunctionOperatorConfig struct {
	M, N    int
	InPlace bool

	Op        OutOfPlaceFunc
	OpInPlace InPlaceFunc

	OpAdjoint        OutOfPlaceFunc
	OpAdjointInPlace InPlaceFunc

	OpInverse        OutOfPlaceFunc
	OpInverseInPlace InPlaceFunc

	OpAdjointInverse        OutOfPlaceFunc
	OpAdjointInverseInPlace InPlaceFunc

	Hermitian, Symmetric, PosDef bool

	// OpNorm, if set, is queried by OpNorm(p); returning ok=false is
	// treated as a missing-attribute fault.
	OpNorm func(p Parameters) (float64, bool)

	T0 float64
	P0 Parameters
}

// FunctionOperator is a matrix-free operator defined by callables.
type FunctionOperator struct {
	m, n int
	iip  bool

	opOut OutOfPlaceFunc
	opIn  InPlaceFunc

	opAdjointOut OutOfPlaceFunc
	opAdjointIn  InPlaceFunc

	opInverseOut OutOfPlaceFunc
	opInverseIn  InPlaceFunc

	opAdjointInverseOut OutOfPlaceFunc
	opAdjointInverseIn  InPlaceFunc

	hermitian, symmetric, posdef bool
	opNorm                       func(p Parameters) (float64, bool)

	p Parameters
	t float64

	cache  *mat.Dense
	cached bool
	gen    cacheTag
}

var _ Operator = (*FunctionOperator)(nil)

// NewFunctionOperator validates cfg against the in-place flag and
// applies the derived rules for a self-adjoint operator: one declared
// hermitian or real-symmetric reuses its forward callable as the
// adjoint callable when none was supplied, and reuses its inverse
// callable as the adjoint-inverse callable under the same condition.
func NewFunctionOperator(cfg FunctionOperatorConfig) (*FunctionOperator, error) {
	selfAdjoint := cfg.Hermitian || cfg.Symmetric

	if cfg.InPlace {
		if cfg.OpInPlace == nil {
			return nil, fmt.Errorf("%w: in-place FunctionOperator requires OpInPlace", ErrMissingAttribute)
		}
		if cfg.Op != nil || cfg.OpAdjoint != nil || cfg.OpInverse != nil || cfg.OpAdjointInverse != nil {
			return nil, fmt.Errorf("%w: in-place FunctionOperator does not accept out-of-place callables", ErrUnsupported)
		}
		if cfg.OpAdjointInPlace == nil && selfAdjoint {
			cfg.OpAdjointInPlace = cfg.OpInPlace
		}
		if cfg.OpInverseInPlace != nil && cfg.OpAdjointInverseInPlace == nil && selfAdjoint {
			cfg.OpAdjointInverseInPlace = cfg.OpInverseInPlace
		}
	} else {
		if cfg.Op == nil {
			return nil, fmt.Errorf("%w: out-of-place FunctionOperator requires Op", ErrMissingAttribute)
		}
		if cfg.OpInPlace != nil || cfg.OpAdjointInPlace != nil || cfg.OpInverseInPlace != nil || cfg.OpAdjointInverseInPlace != nil {
			return nil, fmt.Errorf("%w: out-of-place FunctionOperator does not accept in-place callables", ErrUnsupported)
		}
		if cfg.OpAdjoint == nil && selfAdjoint {
			cfg.OpAdjoint = cfg.Op
		}
		if cfg.OpInverse != nil && cfg.OpAdjointInverse == nil && selfAdjoint {
			cfg.OpAdjointInverse = cfg.OpInverse
		}
	}

	return &FunctionOperator{
		m: cfg.M, n: cfg.N, iip: cfg.InPlace,
		opOut: cfg.Op, opIn: cfg.OpInPlace,
		opAdjointOut: cfg.OpAdjoint, opAdjointIn: cfg.OpAdjointInPlace,
		opInverseOut: cfg.OpInverse, opInverseIn: cfg.OpInverseInPlace,
		opAdjointInverseOut: cfg.OpAdjointInverse, opAdjointInverseIn: cfg.OpAdjointInverseInPlace,
		hermitian: cfg.Hermitian, symmetric: cfg.Symmetric, posdef: cfg.PosDef,
		opNorm: cfg.OpNorm,
		p:      cfg.P0, t: cfg.T0,
	}, nil
}

func (L *FunctionOperator) Dims() (m, n int) { return L.m, L.n }

func (L *FunctionOperator) Eltype() string { return "float64" }

func (L *FunctionOperator) Traits() Traits {
	return Traits{
		HasMul:         !L.iip && L.opOut != nil,
		HasMulInplace:  L.iip && L.opIn != nil,
		HasLdiv:        !L.iip && L.opInverseOut != nil,
		HasLdivInplace: L.iip && L.opInverseIn != nil,
		HasAdjoint:     L.opAdjointOut != nil || L.opAdjointIn != nil || L.hermitian || L.symmetric,
		IsConstant:     false,
		IsLinear:       true,
		IsSquare:       L.m == L.n,
		IsSymmetric:    L.symmetric,
		IsHermitian:    L.hermitian,
		IsPosDef:       L.posdef,
	}
}

// OpNorm returns the configured operator-norm callable evaluated at
// p, or faults if none was supplied.
func (L *FunctionOperator) OpNorm(p Parameters) (float64, error) {
	if L.opNorm == nil {
		return 0, fmt.Errorf("%w: opnorm", ErrMissingAttribute)
	}
	v, ok := L.opNorm(p)
	if !ok {
		return 0, fmt.Errorf("%w: opnorm", ErrMissingAttribute)
	}
	return v, nil
}

func (L *FunctionOperator) Apply(u mat.Matrix) (*mat.Dense, error) {
	if !L.Traits().HasMul {
		return nil, fmt.Errorf("%w: function operator has no out-of-place apply", ErrUnsupported)
	}
	if err := checkApplyDims(L.m, L.n, u); err != nil {
		return nil, err
	}
	return L.opOut(u, L.p, L.t)
}

func (L *FunctionOperator) MulTo(v *mat.Dense, u mat.Matrix) error {
	if !L.Traits().HasMulInplace {
		return fmt.Errorf("%w: function operator has no in-place apply", ErrUnsupported)
	}
	if err := checkApplyDims(L.m, L.n, u); err != nil {
		return err
	}
	_, k := u.Dims()
	if err := checkOutDims(v, L.m, k); err != nil {
		return err
	}
	return L.opIn(v, u, L.p, L.t)
}

// MulToScaled implements v <- alpha*(L*u) + beta*v for an in-place
// FunctionOperator using its single cached workspace: snapshot v,
// compute the operator into v, scale by alpha, then add beta times
// the snapshot.
func (L *FunctionOperator) MulToScaled(v *mat.Dense, u mat.Matrix, alpha, beta float64) error {
	if !L.Traits().HasMulInplace {
		return fmt.Errorf("%w: function operator has no in-place apply", ErrUnsupported)
	}
	if !L.cached {
		return fmt.Errorf("%w: call CacheOperator before the 5-argument mul!", ErrCacheNotSet)
	}
	m, k := v.Dims()
	if cr, ck := L.cache.Dims(); cr != m || ck != k {
		return fmt.Errorf("%w: workspace %s was cached for a different shape; call CacheOperator again", ErrCacheNotSet, L.gen)
	}
	L.cache.Copy(v)
	if err := L.MulTo(v, u); err != nil {
		return err
	}
	v.Scale(alpha, v)
	if beta != 0 {
		L.cache.Scale(beta, L.cache)
		v.Add(v, L.cache)
	}
	return nil
}

func (L *FunctionOperator) Solve(u mat.Matrix) (*mat.Dense, error) {
	if !L.Traits().HasLdiv {
		return nil, fmt.Errorf("%w: function operator has no out-of-place solve", ErrUnsupported)
	}
	if err := checkSolveDims(L.m, L.n, u); err != nil {
		return nil, err
	}
	return L.opInverseOut(u, L.p, L.t)
}

// SolveTo implements ldiv!(v,L,u): v <- L⁻¹·u, via the configured
// in-place inverse callable. Mirrors SolveInPlace's shape but writes
// into the caller's v instead of reusing u.
func (L *FunctionOperator) SolveTo(v *mat.Dense, u mat.Matrix) error {
	if !L.Traits().HasLdivInplace {
		return fmt.Errorf("%w: function operator has no in-place solve", ErrUnsupported)
	}
	if err := checkSolveDims(L.m, L.n, u); err != nil {
		return err
	}
	_, k := u.Dims()
	if err := checkOutDims(v, L.n, k); err != nil {
		return err
	}
	return L.opInverseIn(v, u, L.p, L.t)
}

// SolveInPlace implements ldiv!(L,u): it saves u into the cached
// workspace and re-solves into u itself.
func (L *FunctionOperator) SolveInPlace(u *mat.Dense) error {
	if !L.Traits().HasLdivInplace {
		return fmt.Errorf("%w: function operator has no in-place solve", ErrUnsupported)
	}
	if !L.cached {
		return fmt.Errorf("%w: call CacheOperator before ldiv!(L,u)", ErrCacheNotSet)
	}
	m, k := u.Dims()
	if cr, ck := L.cache.Dims(); cr != m || ck != k {
		return fmt.Errorf("%w: workspace %s was cached for a different shape; call CacheOperator again", ErrCacheNotSet, L.gen)
	}
	L.cache.Copy(u)
	return L.opInverseIn(u, L.cache, L.p, L.t)
}

// Adjoint copies (p,t), swaps the forward and adjoint callables (and
// the inverse and adjoint-inverse callables), reverses shape, and
// carries the cache forward only when square. A self-adjoint operator
// is returned unchanged (identity, not a copy); an operator with no
// adjoint callable gets a lazy AdjointWrap.
func (L *FunctionOperator) Adjoint() Operator {
	if SelfAdjoint(L.Traits()) {
		return L
	}
	if L.opAdjointOut == nil && L.opAdjointIn == nil {
		return NewAdjointWrap(L)
	}
	adj := &FunctionOperator{
		m: L.n, n: L.m, iip: L.iip,
		opOut: L.opAdjointOut, opIn: L.opAdjointIn,
		opAdjointOut: L.opOut, opAdjointIn: L.opIn,
		opInverseOut: L.opAdjointInverseOut, opInverseIn: L.opAdjointInverseIn,
		opAdjointInverseOut: L.opInverseOut, opAdjointInverseIn: L.opInverseIn,
		hermitian: L.hermitian, symmetric: L.symmetric, posdef: L.posdef,
		opNorm: L.opNorm,
		p:      L.p, t: L.t,
	}
	if adj.m == adj.n && L.cached {
		adj.cache, adj.cached, adj.gen = L.cache, true, L.gen
	}
	return adj
}

func (L *FunctionOperator) UpdateCoefficients(_ mat.Matrix, p Parameters, t float64) error {
	L.p, L.t = p, t
	return nil
}

func (L *FunctionOperator) CacheOperator(u mat.Matrix) (Operator, error) {
	_, k := u.Dims()
	if L.cached {
		if cr, ck := L.cache.Dims(); cr == L.m && ck == k {
			return L, nil
		}
	}
	L.cache = mat.NewDense(L.m, k, nil)
	L.cached = true
	L.gen = newCacheTag()
	return L, nil
}

func (L *FunctionOperator) IsCached() bool { return L.cached }
