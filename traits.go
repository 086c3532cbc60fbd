package operators

// Traits is the capability query table for an Operator. Every variant
// reports one of these from its Traits method; callers should consult
// it (directly, or through the Has*/Is* predicate functions below)
// before invoking an operation rather than relying on a fault.
type Traits struct {
	HasMul         bool
	HasMulInplace  bool
	HasLdiv        bool
	HasLdivInplace bool
	HasAdjoint     bool
	IsConstant     bool
	IsLinear       bool
	IsSquare       bool
	IsZero         bool
	IsSymmetric    bool
	IsHermitian    bool
	IsPosDef       bool
	IsSingular     bool
}

// HasMul reports whether L supports the allocating Apply.
func HasMul(L Operator) bool { return L.Traits().HasMul }

// HasMulInplace reports whether L supports MulTo / MulToScaled.
func HasMulInplace(L Operator) bool { return L.Traits().HasMulInplace }

// HasLdiv reports whether L supports the allocating Solve.
func HasLdiv(L Operator) bool { return L.Traits().HasLdiv }

// HasLdivInplace reports whether L supports SolveTo / SolveInPlace.
func HasLdivInplace(L Operator) bool { return L.Traits().HasLdivInplace }

// HasAdjointOp reports whether L has a native adjoint (as opposed to
// requiring a lazy AdjointWrap).
func HasAdjointOp(L Operator) bool { return L.Traits().HasAdjoint }

// IsConstant reports whether L's coefficients never change under
// UpdateCoefficients.
func IsConstant(L Operator) bool { return L.Traits().IsConstant }

// IsLinear reports whether L represents a linear (as opposed to
// affine) map.
func IsLinear(L Operator) bool { return L.Traits().IsLinear }

// IsSquare reports whether L's size has m == n.
func IsSquare(L Operator) bool { return L.Traits().IsSquare }

// IsZero reports whether L is known to be the zero map.
func IsZero(L Operator) bool { return L.Traits().IsZero }

// IsSymmetric reports whether L equals its own transpose.
func IsSymmetric(L Operator) bool { return L.Traits().IsSymmetric }

// IsHermitian reports whether L equals its own adjoint. Since this
// library fixes the scalar type to float64, this coincides with
// IsSymmetric.
func IsHermitian(L Operator) bool { return L.Traits().IsHermitian }

// IsPosDef reports whether L is known to be positive definite.
func IsPosDef(L Operator) bool { return L.Traits().IsPosDef }

// IsSingular reports whether L is known to be singular; for an
// InvertibleOperator this is set when its factorization did not succeed.
func IsSingular(L Operator) bool { return L.Traits().IsSingular }

// SelfAdjoint reports whether L declares hermitian, or symmetric — the
// condition under which Adjoint must return L itself rather than a
// wrapper.
func SelfAdjoint(t Traits) bool { return t.IsHermitian || t.IsSymmetric }
