package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestConvertToMatrixUsesMaterializableDirectly(t *testing.T) {
	A := denseFromRows([]float64{1, 2}, []float64{3, 4})
	L := NewMatrixOperator(A)
	out, err := ConvertToMatrix(L)
	if err != nil {
		t.Fatalf("ConvertToMatrix failed: %v", err)
	}
	if out != A {
		t.Fatalf("expected ConvertToMatrix on a Materializable operator to return its own storage")
	}
}

func TestConvertToMatrixProbesGenericOperator(t *testing.T) {
	cfg := FunctionOperatorConfig{
		M: 2, N: 2,
		Op: func(u mat.Matrix, p Parameters, t float64) (*mat.Dense, error) {
			v := mat.NewDense(2, 1, nil)
			v.Set(0, 0, 2*u.At(0, 0)+u.At(1, 0))
			v.Set(1, 0, u.At(0, 0))
			return v, nil
		},
	}
	L, err := NewFunctionOperator(cfg)
	if err != nil {
		t.Fatalf("NewFunctionOperator failed: %v", err)
	}
	out, err := ConvertToMatrix(L)
	if err != nil {
		t.Fatalf("ConvertToMatrix failed: %v", err)
	}
	assert.InDelta(t, 2, out.At(0, 0), 1e-9)
	assert.InDelta(t, 1, out.At(0, 1), 1e-9)
	assert.InDelta(t, 1, out.At(1, 0), 1e-9)
	assert.InDelta(t, 0, out.At(1, 1), 1e-9)
}

func TestConvertToMatrixRejectsOperatorWithNoApply(t *testing.T) {
	inv, err := LU(denseFromRows([]float64{1, 0}, []float64{0, 1}))
	if err != nil {
		t.Fatalf("LU failed: %v", err)
	}
	if _, err := ConvertToMatrix(inv); err == nil {
		t.Fatalf("expected ConvertToMatrix on a solve-only operator to fault")
	}
}

func TestToSparseDropsZeros(t *testing.T) {
	A := denseFromRows([]float64{0, 2}, []float64{3, 0})
	L := NewMatrixOperator(A)
	csr, err := ToSparse(L)
	if err != nil {
		t.Fatalf("ToSparse failed: %v", err)
	}
	rows, cols := csr.Dims()
	if rows != 2 || cols != 2 {
		t.Fatalf("expected a 2x2 sparse matrix, got (%d,%d)", rows, cols)
	}
	assert.InDelta(t, 2, csr.At(0, 1), 1e-12)
	assert.InDelta(t, 3, csr.At(1, 0), 1e-12)
	assert.InDelta(t, 0, csr.At(0, 0), 1e-12)
}
