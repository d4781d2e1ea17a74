package constraint

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/blang/semver/v4"
	"gonum.org/v1/gonum/mat"

	"github.com/cvxlab/cvx"
	"github.com/cvxlab/cvx/logger"
)

// Relation is the comparison of a linear row against its right-hand side.
type Relation uint8

const (
	LE Relation = iota // row ≤ rhs
	GE                 // row ≥ rhs
	EQ                 // row = rhs
)

func (r Relation) String() string {
	switch r {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	default:
		return "unknown"
	}
}

// Row is one sparse linear constraint; Cols and Coeffs run in parallel.
type Row struct {
	Cols   []uint32
	Coeffs []float64
	Rel    Relation
	RHS    float64
}

// Matrix is a dense row-major matrix, kept as a plain struct so the whole
// Program stays serializable.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// Dense converts m into a gonum matrix. Returns nil for an empty matrix.
func (m Matrix) Dense() *mat.Dense {
	if m.Rows == 0 || m.Cols == 0 {
		return nil
	}
	return mat.NewDense(m.Rows, m.Cols, m.Data)
}

// SOC is a second-order cone block
//
//	‖D·x + E‖₂ ≤ F·x + G
//
// where D spans the first D.Cols columns of the program and F is sparse.
type SOC struct {
	D      Matrix
	E      []float64
	FCols  []uint32
	FCoefs []float64
	G      float64
}

// LeastSquares describes the objective ‖A·x − B‖₂ (or its square), optionally
// with an l1 penalty Lambda·‖x‖₁ on the same columns.
type LeastSquares struct {
	A       Matrix
	B       []float64
	Lambda  float64
	Squared bool
}

// ColumnBlock maps a model variable onto a contiguous range of program columns.
type ColumnBlock struct {
	VarID  uint32
	Name   string
	Offset uint32
	Len    uint32
}

// Program is the canonical form consumed by solver backends: minimize
// Cost·x + Offset subject to Rows, Cones and the optional LeastSquares block.
// Maximize and PostSquare only affect how the raw solver value is mapped back
// to the model objective.
type Program struct {
	Version string

	Maximize   bool
	PostSquare bool

	NbCols uint32
	Cost   []float64
	Offset float64

	Rows  []Row
	Cones []SOC
	LSQ   *LeastSquares

	Blocks     []ColumnBlock
	Referenced *bitset.BitSet
}

// NewProgram returns an empty program stamped with the library version.
func NewProgram() *Program {
	return &Program{
		Version:    cvx.Version.String(),
		Referenced: bitset.New(8),
	}
}

// AddColumns appends n anonymous columns (epigraph and slack variables) and
// returns the offset of the first one.
func (p *Program) AddColumns(n uint32) uint32 {
	off := p.NbCols
	p.NbCols += n
	p.Cost = append(p.Cost, make([]float64, n)...)
	return off
}

// AddBlock appends n columns bound to a model variable and records the
// variable as referenced by this program.
func (p *Program) AddBlock(varID uint32, name string, n uint32) uint32 {
	off := p.AddColumns(n)
	p.Blocks = append(p.Blocks, ColumnBlock{VarID: varID, Name: name, Offset: off, Len: n})
	p.Referenced.Set(uint(varID))
	return off
}

// Block returns the column block of a model variable, if referenced.
func (p *Program) Block(varID uint32) (ColumnBlock, bool) {
	for _, b := range p.Blocks {
		if b.VarID == varID {
			return b, true
		}
	}
	return ColumnBlock{}, false
}

func (p *Program) AddRow(r Row) {
	p.Rows = append(p.Rows, r)
}

func (p *Program) AddCone(c SOC) {
	p.Cones = append(p.Cones, c)
}

// NbConstraints counts linear rows plus cone blocks.
func (p *Program) NbConstraints() int {
	return len(p.Rows) + len(p.Cones)
}

// IsLeastSquares reports whether the program is a pure least-squares fit with
// no linear rows or cones attached.
func (p *Program) IsLeastSquares() bool {
	return p.LSQ != nil && len(p.Rows) == 0 && len(p.Cones) == 0
}

// CheckSerializationHeader parses the version header of a deserialized
// program and warns on a mismatch with the binary.
func (p *Program) CheckSerializationHeader() error {
	objectVersion, err := semver.Parse(p.Version)
	if err != nil {
		return fmt.Errorf("when parsing cvx version: %w", err)
	}
	if cvx.Version.Compare(objectVersion) != 0 {
		log := logger.Logger()
		log.Warn().Str("binary", cvx.Version.String()).Str("object", objectVersion.String()).Msg("cvx version (binary) mismatch with program. there are no guarantees on compatibility")
	}
	return nil
}
