package constraint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"
)

// serialization layout: a fixed-size header with the length of each section,
// followed by the body (metadata, cost, column blocks) and the data section
// (rows, cones, least-squares block). The split allows the two sections to be
// encoded and decoded in parallel.

const headerLen = 16

type header struct {
	bodyLen uint64
	dataLen uint64
}

func (h header) toBytes() []byte {
	buf := make([]byte, 0, headerLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.bodyLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.dataLen)
	return buf
}

func (h *header) fromBytes(buf []byte) {
	h.bodyLen = binary.LittleEndian.Uint64(buf[:8])
	h.dataLen = binary.LittleEndian.Uint64(buf[8:16])
}

type programBody struct {
	Version    string
	Maximize   bool
	PostSquare bool
	NbCols     uint32
	Cost       []float64
	Offset     float64
	Blocks     []ColumnBlock
	Referenced *bitset.BitSet
}

type programData struct {
	Rows  []Row
	Cones []SOC
	LSQ   *LeastSquares
}

// ToBytes serializes the program to a byte slice
func (p *Program) ToBytes() ([]byte, error) {
	var body, data []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		body, err = encodeSection(programBody{
			Version:    p.Version,
			Maximize:   p.Maximize,
			PostSquare: p.PostSquare,
			NbCols:     p.NbCols,
			Cost:       p.Cost,
			Offset:     p.Offset,
			Blocks:     p.Blocks,
			Referenced: p.Referenced,
		})
		return err
	})
	g.Go(func() error {
		var err error
		data, err = encodeSection(programData{
			Rows:  p.Rows,
			Cones: p.Cones,
			LSQ:   p.LSQ,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	h := header{bodyLen: uint64(len(body)), dataLen: uint64(len(data))}
	buf := h.toBytes()
	buf = append(buf, body...)
	buf = append(buf, data...)
	return buf, nil
}

// FromBytes deserializes the program from a byte slice and returns the number
// of bytes read.
func (p *Program) FromBytes(data []byte) (int, error) {
	if len(data) < headerLen {
		return 0, errors.New("invalid data length")
	}
	h := new(header)
	h.fromBytes(data)
	if uint64(len(data)) < headerLen+h.bodyLen+h.dataLen {
		return 0, errors.New("invalid data length")
	}

	var g errgroup.Group
	g.Go(func() error {
		var body programBody
		if err := decodeSection(data[headerLen:headerLen+h.bodyLen], &body); err != nil {
			return err
		}
		p.Version = body.Version
		p.Maximize = body.Maximize
		p.PostSquare = body.PostSquare
		p.NbCols = body.NbCols
		p.Cost = body.Cost
		p.Offset = body.Offset
		p.Blocks = body.Blocks
		p.Referenced = body.Referenced
		return nil
	})
	g.Go(func() error {
		var pd programData
		if err := decodeSection(data[headerLen+h.bodyLen:headerLen+h.bodyLen+h.dataLen], &pd); err != nil {
			return err
		}
		p.Rows = pd.Rows
		p.Cones = pd.Cones
		p.LSQ = pd.LSQ
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := p.CheckSerializationHeader(); err != nil {
		return 0, err
	}
	return headerLen + int(h.bodyLen) + int(h.dataLen), nil
}

// WriteTo implements io.WriterTo
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	buf, err := p.ToBytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom implements io.ReaderFrom
func (p *Program) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return int64(len(buf)), err
	}
	n, err := p.FromBytes(buf)
	return int64(n), err
}

func encodeSection(v any) ([]byte, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := enc.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSection(data []byte, v any) error {
	dm, err := cbor.DecOptions{
		MaxArrayElements: 134217728,
		MaxMapPairs:      134217728,
	}.DecMode()
	if err != nil {
		return err
	}
	return dm.NewDecoder(bytes.NewReader(data)).Decode(v)
}
