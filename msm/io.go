package msm

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"golang.org/x/xerrors"

	"github.com/apollozkp/go-kzg/batchio"
)

// Window tags of the table binary format.
const (
	windowTagSync  = 1
	windowTagTiled = 3
)

var (
	// ErrInvalidWindowTag is returned when a serialized table carries an
	// unrecognized window tag.
	ErrInvalidWindowTag = xerrors.New("msm: invalid window tag")

	// ErrInvalidTableHeader is returned when the serialized header
	// fields are mutually inconsistent.
	ErrInvalidTableHeader = xerrors.New("msm: invalid table header")
)

// Write serializes the table. The layout is little-endian throughout:
// a window tag (1 sync, 3 tiled), the window fields (width, or nx ny
// width), the point count, the row count, then the row-major point
// matrix compressed (48 bytes each) or uncompressed (96 bytes each).
func (t *Table) Write(w io.Writer, compressed bool) error {
	header := []uint64{windowTagSync, uint64(t.window.Width)}
	if t.window.Tiled() {
		header = []uint64{windowTagTiled, uint64(t.window.NX), uint64(t.window.NY), uint64(t.window.Width)}
	}
	header = append(header, uint64(t.numPoints), uint64(t.h))
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return xerrors.Errorf("msm: write table header: %w", err)
		}
	}
	for i := range t.points {
		var buf []byte
		if compressed {
			b := t.points[i].Bytes()
			buf = b[:]
		} else {
			b := t.points[i].RawBytes()
			buf = b[:]
		}
		if _, err := w.Write(buf); err != nil {
			return xerrors.Errorf("msm: write table points: %w", err)
		}
	}
	return nil
}

// WriteFile serializes the table to a file.
func (t *Table) WriteFile(path string, compressed bool) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("msm: create table file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := t.Write(w, compressed); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return xerrors.Errorf("msm: flush table file: %w", err)
	}
	return f.Close()
}

// ReadTableHeader decodes and validates the table header, leaving r
// positioned at the first point. It returns the window parameter, the
// point count and the row count.
func ReadTableHeader(r io.Reader) (Window, int, int, error) {
	var window Window
	tag, err := readUint64(r)
	if err != nil {
		return window, 0, 0, xerrors.Errorf("msm: read window tag: %w", err)
	}
	var fields int
	switch tag {
	case windowTagSync:
		fields = 1
	case windowTagTiled:
		fields = 3
	default:
		return window, 0, 0, xerrors.Errorf("%w: %d", ErrInvalidWindowTag, tag)
	}
	raw := make([]uint64, fields+2)
	for i := range raw {
		if raw[i], err = readUint64(r); err != nil {
			return window, 0, 0, xerrors.Errorf("msm: read table header: %w", err)
		}
	}
	if tag == windowTagSync {
		window = Window{Width: int(raw[0])}
	} else {
		window = Window{NX: int(raw[0]), NY: int(raw[1]), Width: int(raw[2])}
	}
	if err := window.validate(); err != nil {
		return window, 0, 0, err
	}
	numPoints, h := raw[fields], raw[fields+1]
	_, wantH := window.dimensions()
	if h != uint64(wantH) {
		return window, 0, 0, xerrors.Errorf("%w: %d rows, window requires %d", ErrInvalidTableHeader, h, wantH)
	}
	if numPoints > maxTableEntries/uint64(wantH) {
		return window, 0, 0, xerrors.Errorf("%w: %d points x %d rows", ErrTableTooLarge, numPoints, wantH)
	}
	return window, int(numPoints), int(wantH), nil
}

// ReadTable deserializes a table written by [Table.Write]. Every point
// passes curve and subgroup validation; a malformed header, truncated
// stream or invalid point yields an error and no table.
func ReadTable(r io.Reader, compressed bool) (*Table, error) {
	window, numPoints, h, err := ReadTableHeader(r)
	if err != nil {
		return nil, err
	}
	size := bls12381.SizeOfG1AffineUncompressed
	if compressed {
		size = bls12381.SizeOfG1AffineCompressed
	}
	points, err := batchio.ReadParallel(r, size, numPoints*h, decodeG1)
	if err != nil {
		return nil, xerrors.Errorf("msm: read table points: %w", err)
	}
	return &Table{
		window:    window,
		points:    points,
		numPoints: numPoints,
		h:         h,
	}, nil
}

// ReadTableFile deserializes a table from a file.
func ReadTableFile(path string, compressed bool) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("msm: open table file: %w", err)
	}
	defer f.Close()
	return ReadTable(bufio.NewReader(f), compressed)
}

func decodeG1(buf []byte) (bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	n, err := p.SetBytes(buf)
	if err != nil {
		return p, err
	}
	// A compressed point inside an uncompressed record (or vice versa)
	// parses but consumes the wrong number of bytes.
	if n != len(buf) {
		return p, xerrors.Errorf("point encoding does not match record size %d", len(buf))
	}
	return p, nil
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
