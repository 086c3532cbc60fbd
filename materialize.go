package operators

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// Materializable is implemented by operators that already hold their
// data in matrix form and can hand it back directly. Operators without
// it are materialized generically, by probing with standard basis
// vectors.
type Materializable interface {
	ConvertToMatrix() (*mat.Dense, error)
}

// ConvertToMatrix materializes L as a dense matrix. MatrixOperator,
// TensorProductOperator and IdentityOperator implement Materializable
// and build their matrix without probing; any other operator is
// materialized by applying it to each standard basis vector in turn.
func ConvertToMatrix(L Operator) (*mat.Dense, error) {
	if mz, ok := L.(Materializable); ok {
		return mz.ConvertToMatrix()
	}
	rows, cols := L.Dims()
	if !L.Traits().HasMul {
		return nil, fmt.Errorf("%w: %T cannot be materialized (no forward apply)", ErrUnsupported, L)
	}
	out := mat.NewDense(rows, cols, nil)
	e := mat.NewVecDense(cols, nil)
	for j := 0; j < cols; j++ {
		e.Zero()
		e.SetVec(j, 1)
		col, err := L.Apply(e)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, col.At(i, 0))
		}
	}
	return out, nil
}

// ToSparse materializes L and converts it to compressed sparse row
// storage, dropping exact zeros.
func ToSparse(L Operator) (*sparse.CSR, error) {
	dense, err := ConvertToMatrix(L)
	if err != nil {
		return nil, err
	}
	rows, cols := dense.Dims()
	dok := sparse.NewDOK(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := dense.At(i, j); v != 0 {
				dok.Set(i, j, v)
			}
		}
	}
	return dok.ToCSR(), nil
}
