package operators

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// TestAffineOperatorApplyAndSolve exercises scenario 3 (L·u = D·u + b,
// L\u = D\(u-b)) across several diagonal shapes, round-tripping Apply
// through Solve.
func TestAffineOperatorApplyAndSolve(t *testing.T) {
	cases := []struct {
		name string
		diag []float64
		b    []float64
		u    []float64
	}{
		{"2x2", []float64{2, 2}, []float64{1, -1}, []float64{3, 3}},
		{"2x2uneven", []float64{2, 4}, []float64{1, 1}, []float64{3, 5}},
		{"3x3", []float64{1, 2, 3}, []float64{0, -2, 1}, []float64{4, 4, 4}},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("shape=%s", c.name), func(t *testing.T) {
			D := NewMatrixOperator(mat.NewDiagDense(len(c.diag), c.diag))
			b := mat.NewVecDense(len(c.b), c.b)
			L, err := NewAffineOperator(D, b)
			if err != nil {
				t.Fatalf("NewAffineOperator failed: %v", err)
			}

			u := mat.NewDense(len(c.u), 1, c.u)
			v, err := L.Apply(u)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			for i, d := range c.diag {
				assert.InDelta(t, d*c.u[i]+c.b[i], v.At(i, 0), 1e-9)
			}

			back, err := L.Solve(v)
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			for i, want := range c.u {
				assert.InDelta(t, want, back.At(i, 0), 1e-9)
			}
		})
	}
}

func TestAffineOperatorRejectsMismatchedTranslation(t *testing.T) {
	A := NewMatrixOperator(denseFromRows([]float64{1, 0}, []float64{0, 1}))
	b := mat.NewVecDense(3, nil)
	if _, err := NewAffineOperator(A, b); err == nil {
		t.Fatalf("expected NewAffineOperator to reject a mismatched translation length")
	}
}

func TestAffineOperatorIsNotLinear(t *testing.T) {
	A := NewMatrixOperator(denseFromRows([]float64{1, 0}, []float64{0, 1}))
	b := mat.NewVecDense(2, []float64{1, 1})
	L, err := NewAffineOperator(A, b)
	if err != nil {
		t.Fatalf("NewAffineOperator failed: %v", err)
	}
	if L.Traits().IsLinear {
		t.Fatalf("expected an affine operator to report IsLinear=false")
	}
	if L.Traits().HasAdjoint {
		t.Fatalf("expected an affine operator to report HasAdjoint=false")
	}
}

func TestAffineOperatorAdjointPanics(t *testing.T) {
	A := NewMatrixOperator(denseFromRows([]float64{1, 0}, []float64{0, 1}))
	b := mat.NewVecDense(2, []float64{1, 1})
	L, err := NewAffineOperator(A, b)
	if err != nil {
		t.Fatalf("NewAffineOperator failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Adjoint to panic on a non-linear AffineOperator")
		}
	}()
	L.Adjoint()
}

func TestAffineOperatorSolveInPlace(t *testing.T) {
	A := NewMatrixOperator(mat.NewTriDense(2, mat.Upper, []float64{2, 0, 0, 2}))
	b := mat.NewVecDense(2, []float64{2, 2})
	L, err := NewAffineOperator(A, b)
	if err != nil {
		t.Fatalf("NewAffineOperator failed: %v", err)
	}

	u := mat.NewDense(2, 1, []float64{8, 8})
	if err := L.SolveInPlace(u); err != nil {
		t.Fatalf("SolveInPlace failed: %v", err)
	}
	assert.InDelta(t, 3, u.At(0, 0), 1e-9)
	assert.InDelta(t, 3, u.At(1, 0), 1e-9)
}
