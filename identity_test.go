package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestIdentityOperatorApplyAndSolveAreNoOps(t *testing.T) {
	L := NewIdentityOperator(3)
	u := mat.NewDense(3, 1, []float64{1, 2, 3})

	v, err := L.Apply(u)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		assert.InDelta(t, u.At(i, 0), v.At(i, 0), 1e-12)
	}

	s, err := L.Solve(u)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		assert.InDelta(t, u.At(i, 0), s.At(i, 0), 1e-12)
	}
}

func TestIdentityOperatorSolveInPlaceIsNoOp(t *testing.T) {
	L := NewIdentityOperator(2)
	u := mat.NewDense(2, 1, []float64{5, 6})
	if err := L.SolveInPlace(u); err != nil {
		t.Fatalf("SolveInPlace failed: %v", err)
	}
	assert.InDelta(t, 5, u.At(0, 0), 1e-12)
	assert.InDelta(t, 6, u.At(1, 0), 1e-12)
}

func TestIdentityOperatorIsSelfAdjoint(t *testing.T) {
	L := NewIdentityOperator(4)
	if L.Adjoint() != L {
		t.Fatalf("expected IdentityOperator's Adjoint to return itself")
	}
}

func TestIdentityOperatorConvertToMatrix(t *testing.T) {
	L := NewIdentityOperator(3)
	out, err := L.ConvertToMatrix()
	if err != nil {
		t.Fatalf("ConvertToMatrix failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, out.At(i, j), 1e-12)
		}
	}
}
