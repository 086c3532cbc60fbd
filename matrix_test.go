package operators

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func denseFromRows(rows ...[]float64) *mat.Dense {
	m := len(rows)
	n := len(rows[0])
	d := mat.NewDense(m, n, nil)
	for i, row := range rows {
		for j, v := range row {
			d.Set(i, j, v)
		}
	}
	return d
}

// TestMatrixOperatorApply exercises scenario 1 (L·u == A·u, and the
// 3-arg mul! agreeing with it) across several A shapes/variants, the
// way vandermonde3d_1_test.go sweeps polynomial order with t.Run. The
// 5-arg scaled form is covered by TestMatrixOperatorMulToScaled.
func TestMatrixOperatorApply(t *testing.T) {
	cases := []struct {
		name string
		A    *mat.Dense
		u    []float64
	}{
		{"diagonal2x2", denseFromRows([]float64{2, 0}, []float64{0, 3}), []float64{5, 7}},
		{"dense2x2", denseFromRows([]float64{1, 2}, []float64{3, 4}), []float64{1, 1}},
		{"dense3x3", denseFromRows([]float64{1, 0, 2}, []float64{-1, 3, 1}, []float64{0, 2, 4}), []float64{1, 2, 3}},
		{"dense2x3", denseFromRows([]float64{1, 2, 3}, []float64{4, 5, 6}), []float64{1, 1, 1}},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("shape=%s", c.name), func(t *testing.T) {
			L := NewMatrixOperator(c.A)
			u := mat.NewDense(len(c.u), 1, c.u)

			var want mat.Dense
			want.Mul(c.A, u)

			v, err := L.Apply(u)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			rows, _ := want.Dims()
			for i := 0; i < rows; i++ {
				assert.InDelta(t, want.At(i, 0), v.At(i, 0), 1e-12)
			}

			out := mat.NewDense(rows, 1, nil)
			if err := L.MulTo(out, u); err != nil {
				t.Fatalf("MulTo failed: %v", err)
			}
			for i := 0; i < rows; i++ {
				assert.InDelta(t, v.At(i, 0), out.At(i, 0), 1e-12)
			}
		})
	}
}

func TestMatrixOperatorApplyShapeMismatch(t *testing.T) {
	A := denseFromRows([]float64{1, 0}, []float64{0, 1})
	L := NewMatrixOperator(A)

	u := mat.NewDense(3, 1, []float64{1, 2, 3})
	if _, err := L.Apply(u); err == nil {
		t.Fatalf("expected shape mismatch error, got nil")
	}
}

func TestMatrixOperatorMulToScaled(t *testing.T) {
	A := denseFromRows([]float64{1, 0}, []float64{0, 1})
	L := NewMatrixOperator(A)
	u := mat.NewDense(2, 1, []float64{1, 2})
	v := mat.NewDense(2, 1, []float64{10, 10})

	if err := L.MulToScaled(v, u, 2, 1); err != nil {
		t.Fatalf("MulToScaled failed: %v", err)
	}
	// v <- 2*(A*u) + 1*v = 2*[1,2] + [10,10] = [12,14]
	assert.InDelta(t, 12, v.At(0, 0), 1e-12)
	assert.InDelta(t, 14, v.At(1, 0), 1e-12)
}

// TestMatrixOperatorNativeSolveDetection sweeps the concrete mat.Matrix
// variants whose structure does or doesn't unlock a native solve path.
func TestMatrixOperatorNativeSolveDetection(t *testing.T) {
	cases := []struct {
		name       string
		L          *MatrixOperator
		wantnative bool
		u          []float64
		want       []float64
	}{
		{
			name:       "triangular",
			L:          NewMatrixOperator(mat.NewTriDense(2, mat.Upper, []float64{2, 1, 0, 2})),
			wantnative: true,
			u:          []float64{4, 4},
			want:       []float64{1, 2},
		},
		{
			name:       "diagonal",
			L:          NewMatrixOperator(mat.NewDiagDense(2, []float64{2, 4})),
			wantnative: true,
			u:          []float64{6, 8},
			want:       []float64{3, 2},
		},
		{
			name:       "generalDense",
			L:          NewMatrixOperator(denseFromRows([]float64{1, 2}, []float64{3, 4})),
			wantnative: false,
		},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("kind=%s", c.name), func(t *testing.T) {
			tr := c.L.Traits()
			if tr.HasLdiv != c.wantnative || tr.HasLdivInplace != c.wantnative {
				t.Fatalf("expected native solve detection %v, got HasLdiv=%v HasLdivInplace=%v", c.wantnative, tr.HasLdiv, tr.HasLdivInplace)
			}
			if !c.wantnative {
				if _, err := c.L.Solve(mat.NewDense(2, 1, []float64{1, 1})); err == nil {
					t.Fatalf("expected Solve on an unfactored operator to fail")
				}
				return
			}
			v, err := c.L.Solve(mat.NewDense(2, 1, c.u))
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			assert.InDelta(t, c.want[0], v.At(0, 0), 1e-9)
			assert.InDelta(t, c.want[1], v.At(1, 0), 1e-9)
		})
	}
}

func TestMatrixOperatorAdjointDualizesUpdateHook(t *testing.T) {
	A := denseFromRows([]float64{1, 2}, []float64{3, 4})
	calls := 0
	hook := func(mat.Matrix, mat.Matrix, Parameters, float64) error {
		calls++
		return nil
	}
	L := NewTimeVaryingMatrixOperator(A, hook)
	adj := L.Adjoint()

	if err := adj.UpdateCoefficients(nil, nil, 1.0); err != nil {
		t.Fatalf("UpdateCoefficients through adjoint failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the adjoint's update hook to dualize back to the original matrix's hook, got %d calls", calls)
	}
}

func TestMatrixOperatorSymmetricIsSelfAdjoint(t *testing.T) {
	sym := mat.NewSymDense(2, []float64{2, 1, 1, 2})
	L := NewMatrixOperator(sym)
	if L.Adjoint() != L {
		t.Fatalf("expected a symmetric matrix operator's Adjoint to return itself")
	}
}

func TestMatrixOperatorConvertToMatrix(t *testing.T) {
	A := denseFromRows([]float64{1, 2}, []float64{3, 4})
	L := NewMatrixOperator(A)
	out, err := L.ConvertToMatrix()
	if err != nil {
		t.Fatalf("ConvertToMatrix failed: %v", err)
	}
	assert.InDelta(t, 4, out.At(1, 1), 1e-12)
}
