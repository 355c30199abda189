// Package setup generates and persists KZG trusted setups: the powers
// of a secret scalar tau projected onto the G1 and G2 generators.
//
// The secret never leaves [Generate]; only the curve points survive, and
// recovering tau from them is the discrete logarithm problem. Generation
// here is intended for development and testing; production deployments
// load the output of a multi-party ceremony instead.
//
// The file format is two length-prefixed arrays, little-endian
// throughout: an 8-byte count followed by that many G1 points, then an
// 8-byte count followed by that many G2 points, each point compressed or
// uncompressed per the caller's flag.
package setup

import (
	"bufio"
	"encoding/binary"
	"io"
	"math/big"
	"os"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"golang.org/x/xerrors"

	"github.com/apollozkp/go-kzg/batchio"
	"github.com/apollozkp/go-kzg/bls"
)

// maxPoints bounds each array so a hostile length prefix fails before
// allocation.
const maxPoints = 1 << 30

var (
	// ErrEmptySetup is returned by Check for a setup with no points.
	ErrEmptySetup = xerrors.New("setup: empty trusted setup")

	// ErrInvalidSetup is returned by Check when the points are not a
	// consistent power sequence over the canonical generators.
	ErrInvalidSetup = xerrors.New("setup: inconsistent trusted setup")

	// ErrTooManyPoints is returned when a length prefix exceeds the
	// allocation guard.
	ErrTooManyPoints = xerrors.New("setup: point count too large")
)

// Setup holds the public artifacts of a trusted setup: G1[i] = [tau^i]G
// and G2[i] = [tau^i]H.
type Setup struct {
	G1 []bls12381.G1Affine
	G2 []bls12381.G2Affine
}

// Generate derives a setup of n powers from a 32-byte secret seed. The
// seed is hashed to the scalar field, so any seed yields a valid tau.
func Generate(n int, secret [32]byte) *Setup {
	tau := bls.HashToScalar(secret[:])
	powers := bls.Powers(tau, n)
	g1 := bls.G1Generator()
	g2 := bls.G2Generator()

	s := &Setup{
		G1: make([]bls12381.G1Affine, n),
		G2: make([]bls12381.G2Affine, n),
	}
	var e big.Int
	for i := range powers {
		powers[i].BigInt(&e)
		s.G1[i].ScalarMultiplication(&g1, &e)
		s.G2[i].ScalarMultiplication(&g2, &e)
	}
	return s
}

// Check verifies that the setup starts at the canonical generators and
// that the first power is consistent across both groups, using the
// pairing identity e([tau]G, H) = e(G, [tau]H).
func (s *Setup) Check() error {
	if len(s.G1) == 0 || len(s.G2) == 0 {
		return ErrEmptySetup
	}
	g1 := bls.G1Generator()
	g2 := bls.G2Generator()
	if !s.G1[0].Equal(&g1) || !s.G2[0].Equal(&g2) {
		return xerrors.Errorf("%w: first power is not the generator", ErrInvalidSetup)
	}
	if len(s.G1) < 2 || len(s.G2) < 2 {
		return nil
	}
	var neg bls12381.G1Affine
	neg.Neg(&s.G1[0])
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{s.G1[1], neg},
		[]bls12381.G2Affine{s.G2[0], s.G2[1]},
	)
	if err != nil {
		return xerrors.Errorf("setup: pairing check: %w", err)
	}
	if !ok {
		return xerrors.Errorf("%w: G1 and G2 powers disagree", ErrInvalidSetup)
	}
	return nil
}

// Save writes the setup in the length-prefixed file format.
func (s *Setup) Save(w io.Writer, compressed bool) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s.G1))); err != nil {
		return xerrors.Errorf("setup: write G1 count: %w", err)
	}
	for i := range s.G1 {
		if err := writePoint(w, g1Bytes(&s.G1[i], compressed)); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s.G2))); err != nil {
		return xerrors.Errorf("setup: write G2 count: %w", err)
	}
	for i := range s.G2 {
		if err := writePoint(w, g2Bytes(&s.G2[i], compressed)); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes the setup to a file.
func (s *Setup) SaveFile(path string, compressed bool) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("setup: create file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := s.Save(w, compressed); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return xerrors.Errorf("setup: flush file: %w", err)
	}
	return f.Close()
}

// Load reads a setup written by [Setup.Save] and checks its
// consistency.
func Load(r io.Reader, compressed bool) (*Setup, error) {
	g1, err := LoadG1(r, compressed)
	if err != nil {
		return nil, err
	}
	g2, err := LoadG2(r, compressed)
	if err != nil {
		return nil, err
	}
	s := &Setup{G1: g1, G2: g2}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads a setup from a file.
func LoadFile(path string, compressed bool) (*Setup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("setup: open file: %w", err)
	}
	defer f.Close()
	return Load(bufio.NewReader(f), compressed)
}

// LoadG1 reads one length-prefixed G1 array.
func LoadG1(r io.Reader, compressed bool) ([]bls12381.G1Affine, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, xerrors.Errorf("setup: read G1 count: %w", err)
	}
	size := bls12381.SizeOfG1AffineUncompressed
	if compressed {
		size = bls12381.SizeOfG1AffineCompressed
	}
	points, err := batchio.ReadParallel(r, size, n, func(buf []byte) (bls12381.G1Affine, error) {
		var p bls12381.G1Affine
		if _, err := p.SetBytes(buf); err != nil {
			return p, err
		}
		return p, nil
	})
	if err != nil {
		return nil, xerrors.Errorf("setup: read G1 points: %w", err)
	}
	return points, nil
}

// LoadG2 reads one length-prefixed G2 array.
func LoadG2(r io.Reader, compressed bool) ([]bls12381.G2Affine, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, xerrors.Errorf("setup: read G2 count: %w", err)
	}
	size := bls12381.SizeOfG2AffineUncompressed
	if compressed {
		size = bls12381.SizeOfG2AffineCompressed
	}
	points, err := batchio.ReadParallel(r, size, n, func(buf []byte) (bls12381.G2Affine, error) {
		var p bls12381.G2Affine
		if _, err := p.SetBytes(buf); err != nil {
			return p, err
		}
		return p, nil
	})
	if err != nil {
		return nil, xerrors.Errorf("setup: read G2 points: %w", err)
	}
	return points, nil
}

func readCount(r io.Reader) (int, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	n := binary.LittleEndian.Uint64(buf[:])
	if n > maxPoints {
		return 0, xerrors.Errorf("%w: %d", ErrTooManyPoints, n)
	}
	return int(n), nil
}

func writePoint(w io.Writer, buf []byte) error {
	if _, err := w.Write(buf); err != nil {
		return xerrors.Errorf("setup: write point: %w", err)
	}
	return nil
}

func g1Bytes(p *bls12381.G1Affine, compressed bool) []byte {
	if compressed {
		b := p.Bytes()
		return b[:]
	}
	b := p.RawBytes()
	return b[:]
}

func g2Bytes(p *bls12381.G2Affine, compressed bool) []byte {
	if compressed {
		b := p.Bytes()
		return b[:]
	}
	b := p.RawBytes()
	return b[:]
}
