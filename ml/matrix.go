package ml

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense matrix with a flat data slice for performance.
// The gonum view shares the same backing slice, so direct writes to
// data and gonum operations stay coherent.
type Matrix struct {
	rows, cols int
	data       []float64
	dense      *mat.Dense
}

// -------- CONSTRUCTORS ------- //

// NewMatrix returns a zero-filled rows x cols matrix.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, rows, cols)
	}
	return newMatrix(rows, cols), nil
}

// newMatrix is the internal constructor for dimensions already known to be valid.
func newMatrix(rows, cols int) *Matrix {
	data := make([]float64, rows*cols)
	return &Matrix{
		rows:  rows,
		cols:  cols,
		data:  data,
		dense: mat.NewDense(rows, cols, data),
	}
}

// FromArray returns a column matrix (len(values) rows, 1 col) holding a
// copy of values.
func FromArray(values []float64) *Matrix {
	m := newMatrix(len(values), 1)
	copy(m.data, values)
	return m
}

// Copy returns an independent deep copy.
func (m *Matrix) Copy() *Matrix {
	out := newMatrix(m.rows, m.cols)
	copy(out.data, m.data)
	return out
}

// ------- ACCESSORS ------ //

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// Data returns the live row-major backing slice. Renderers read it
// directly; writes through it are visible to the owning network.
func (m *Matrix) Data() []float64 { return m.data }

func (m *Matrix) At(r, c int) float64 { return m.data[r*m.cols+c] }

func (m *Matrix) Set(r, c int, v float64) { m.data[r*m.cols+c] = v }

// ToArray returns the row-major flattened values as a fresh slice.
func (m *Matrix) ToArray() []float64 {
	out := make([]float64, len(m.data))
	copy(out, m.data)
	return out
}

// ------- IN-PLACE METHODS ------ //

// Randomize fills the matrix in place with uniform values in
// [-limit, limit] where limit = sqrt(2/(rows+cols)) * 2. This is the
// sole weight/bias initialization policy.
func (m *Matrix) Randomize() {
	limit := math.Sqrt(2.0/float64(m.rows+m.cols)) * 2
	for i := range m.data {
		m.data[i] = (rand.Float64()*2 - 1) * limit
	}
}

// Add adds b elementwise in place.
func (m *Matrix) Add(b *Matrix) error {
	if m.rows != b.rows || m.cols != b.cols {
		return fmt.Errorf("%w: add %dx%d to %dx%d", ErrShapeMismatch, b.rows, b.cols, m.rows, m.cols)
	}
	m.dense.Add(m.dense, b.dense)
	return nil
}

// AddScalar adds s to every entry in place.
func (m *Matrix) AddScalar(s float64) {
	floats.AddConst(s, m.data)
}

// MulElem multiplies by b elementwise (Hadamard product) in place.
func (m *Matrix) MulElem(b *Matrix) error {
	if m.rows != b.rows || m.cols != b.cols {
		return fmt.Errorf("%w: mulelem %dx%d with %dx%d", ErrShapeMismatch, b.rows, b.cols, m.rows, m.cols)
	}
	m.dense.MulElem(m.dense, b.dense)
	return nil
}

// Scale multiplies every entry by s in place.
func (m *Matrix) Scale(s float64) {
	floats.Scale(s, m.data)
}

// Apply transforms every entry in place with fn(value, row, col).
func (m *Matrix) Apply(fn func(v float64, r, c int) float64) {
	for r := 0; r < m.rows; r++ {
		off := r * m.cols
		for c := 0; c < m.cols; c++ {
			m.data[off+c] = fn(m.data[off+c], r, c)
		}
	}
}

func (m *Matrix) Reset() {
	for i := range m.data {
		m.data[i] = 0.0
	}
}

// ------ ALLOCATING FUNCTIONS ------ //

// MatMul returns the matrix product a*b.
func MatMul(a, b *Matrix) (*Matrix, error) {
	if a.cols != b.rows {
		return nil, fmt.Errorf("%w: matmul %dx%d by %dx%d", ErrShapeMismatch, a.rows, a.cols, b.rows, b.cols)
	}
	out := newMatrix(a.rows, b.cols)
	out.dense.Mul(a.dense, b.dense)
	return out, nil
}

// MatMulGo is the matrix product without BLAS, the plain triple loop.
// Kept for benchmark comparison against the gonum path.
func MatMulGo(a, b *Matrix) (*Matrix, error) {
	if a.cols != b.rows {
		return nil, fmt.Errorf("%w: matmul %dx%d by %dx%d", ErrShapeMismatch, a.rows, a.cols, b.rows, b.cols)
	}
	out := newMatrix(a.rows, b.cols)
	for i := 0; i < a.rows; i++ {
		rowOffsetOut := i * out.cols
		for k := 0; k < a.cols; k++ {
			scalar := a.data[i*a.cols+k]
			rowOffsetB := k * b.cols
			for j := 0; j < b.cols; j++ {
				out.data[rowOffsetOut+j] += scalar * b.data[rowOffsetB+j]
			}
		}
	}
	return out, nil
}

// Subtract returns a-b.
func Subtract(a, b *Matrix) (*Matrix, error) {
	if a.rows != b.rows || a.cols != b.cols {
		return nil, fmt.Errorf("%w: subtract %dx%d from %dx%d", ErrShapeMismatch, b.rows, b.cols, a.rows, a.cols)
	}
	out := newMatrix(a.rows, a.cols)
	out.dense.Sub(a.dense, b.dense)
	return out, nil
}

// Transpose returns a new transposed copy of a.
func Transpose(a *Matrix) *Matrix {
	out := newMatrix(a.cols, a.rows)
	out.dense.Copy(a.dense.T())
	return out
}

// ApplyNew returns a new matrix with fn applied to every entry of a.
func ApplyNew(a *Matrix, fn func(v float64, r, c int) float64) *Matrix {
	out := a.Copy()
	out.Apply(fn)
	return out
}

// Normalise returns a new matrix whose entries are divided by the sum
// of absolute values of a. A zero sum yields an unchanged copy.
func Normalise(a *Matrix) *Matrix {
	sum := 0.0
	for _, v := range a.data {
		sum += math.Abs(v)
	}
	out := a.Copy()
	if sum == 0 {
		log.Warn().
			Int("rows", a.rows).
			Int("cols", a.cols).
			Msg("normalise of all-zero matrix, returning unchanged copy")
		return out
	}
	out.Scale(1.0 / sum)
	return out
}

// ------ SERIALIZATION ------ //

type matrixJSON struct {
	Rows *int      `json:"rows"`
	Cols *int      `json:"cols"`
	Data []float64 `json:"data"`
}

func (m *Matrix) MarshalJSON() ([]byte, error) {
	rows, cols := m.rows, m.cols
	return json.Marshal(matrixJSON{Rows: &rows, Cols: &cols, Data: m.data})
}

func (m *Matrix) UnmarshalJSON(b []byte) error {
	var raw matrixJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if raw.Rows == nil || raw.Cols == nil || raw.Data == nil {
		return fmt.Errorf("%w: matrix requires rows, cols and data", ErrInvalidFormat)
	}
	rows, cols := *raw.Rows, *raw.Cols
	if rows <= 0 || cols <= 0 || len(raw.Data) != rows*cols {
		return fmt.Errorf("%w: matrix %dx%d with %d values", ErrInvalidFormat, rows, cols, len(raw.Data))
	}
	m.rows = rows
	m.cols = cols
	m.data = make([]float64, len(raw.Data))
	copy(m.data, raw.Data)
	m.dense = mat.NewDense(m.rows, m.cols, m.data)
	return nil
}

func (m *Matrix) GobEncode() ([]byte, error) {
	w := new(bytes.Buffer)
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(m.rows); err != nil {
		return nil, err
	}
	if err := encoder.Encode(m.cols); err != nil {
		return nil, err
	}
	if err := encoder.Encode(m.data); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (m *Matrix) GobDecode(buf []byte) error {
	r := bytes.NewBuffer(buf)
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(&m.rows); err != nil {
		return err
	}
	if err := decoder.Decode(&m.cols); err != nil {
		return err
	}
	if err := decoder.Decode(&m.data); err != nil {
		return err
	}
	if m.rows <= 0 || m.cols <= 0 || len(m.data) != m.rows*m.cols {
		return fmt.Errorf("%w: matrix %dx%d with %d values", ErrInvalidFormat, m.rows, m.cols, len(m.data))
	}

	// Re-create the wrapper after loading data
	m.dense = mat.NewDense(m.rows, m.cols, m.data)

	return nil
}
