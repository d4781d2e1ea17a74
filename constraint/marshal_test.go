package constraint

import (
	"bytes"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var cmpOpts = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmp.Comparer(func(a, b *bitset.BitSet) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Equal(b)
	}),
}

func sampleProgram() *Program {
	p := NewProgram()
	p.AddBlock(3, "x", 2)
	p.AddBlock(7, "y", 1)
	p.AddColumns(1)
	p.Cost = []float64{1, -2.5, 0, 1}
	p.Offset = 4.25
	p.Maximize = true
	p.AddRow(Row{Cols: []uint32{0, 1}, Coeffs: []float64{1, 2}, Rel: LE, RHS: 180})
	p.AddRow(Row{Cols: []uint32{2}, Coeffs: []float64{-1}, Rel: GE, RHS: -3})
	p.AddRow(Row{Cols: []uint32{0, 2}, Coeffs: []float64{1, 1}, Rel: EQ, RHS: 0})
	p.AddCone(SOC{
		D:      Matrix{Rows: 2, Cols: 4, Data: []float64{1, 0, 0, 0, 0, 1, 0, 0}},
		E:      []float64{0.5, -0.5},
		FCols:  []uint32{3},
		FCoefs: []float64{1},
		G:      0,
	})
	return p
}

func TestProgramRoundTrip(t *testing.T) {
	require := require.New(t)

	p := sampleProgram()
	buf, err := p.ToBytes()
	require.NoError(err)

	var got Program
	n, err := got.FromBytes(buf)
	require.NoError(err)
	require.Equal(len(buf), n)

	if diff := cmp.Diff(p, &got, cmpOpts...); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramRoundTripLeastSquares(t *testing.T) {
	require := require.New(t)

	p := NewProgram()
	p.AddBlock(1, "x", 2)
	p.LSQ = &LeastSquares{
		A:       Matrix{Rows: 3, Cols: 2, Data: []float64{1, 0, 0, 1, 1, 1}},
		B:       []float64{1, 2, 3},
		Lambda:  0.1,
		Squared: true,
	}

	buf, err := p.ToBytes()
	require.NoError(err)
	var got Program
	_, err = got.FromBytes(buf)
	require.NoError(err)

	if diff := cmp.Diff(p, &got, cmpOpts...); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramWriterReader(t *testing.T) {
	require := require.New(t)

	p := sampleProgram()
	var buf bytes.Buffer
	written, err := p.WriteTo(&buf)
	require.NoError(err)
	require.Equal(int64(buf.Len()), written)

	var got Program
	read, err := got.ReadFrom(&buf)
	require.NoError(err)
	require.Equal(written, read)

	if diff := cmp.Diff(p, &got, cmpOpts...); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromBytesTruncated(t *testing.T) {
	require := require.New(t)

	p := sampleProgram()
	buf, err := p.ToBytes()
	require.NoError(err)

	var got Program
	_, err = got.FromBytes(buf[:8])
	require.Error(err)
	_, err = got.FromBytes(buf[:len(buf)-1])
	require.Error(err)
}
