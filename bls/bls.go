package bls

import (
	"io"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

// Byte sizes of the point encodings used by the table and setup file
// formats.
const (
	G1CompressedSize   = bls12381.SizeOfG1AffineCompressed
	G1UncompressedSize = bls12381.SizeOfG1AffineUncompressed
	G2CompressedSize   = bls12381.SizeOfG2AffineCompressed
	G2UncompressedSize = bls12381.SizeOfG2AffineUncompressed
)

// ScalarBits is the bit length of the scalar field order.
const ScalarBits = fr.Bits

// G1Generator returns the canonical G1 base point in affine form.
func G1Generator() bls12381.G1Affine {
	_, _, g1, _ := bls12381.Generators()
	return g1
}

// G2Generator returns the canonical G2 base point in affine form.
func G2Generator() bls12381.G2Affine {
	_, _, _, g2 := bls12381.Generators()
	return g2
}

// RandomScalar returns a uniformly random scalar read from r.
func RandomScalar(r io.Reader) (fr.Element, error) {
	var buf [fr.Bytes + 16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return fr.Element{}, xerrors.Errorf("read randomness: %w", err)
	}
	var s fr.Element
	s.SetBytes(buf[:])
	return s, nil
}

// HashToScalar maps an arbitrary seed to a scalar by hashing it with
// BLAKE2b-256 and reducing the digest modulo the field order.
func HashToScalar(seed []byte) fr.Element {
	digest := blake2b.Sum256(seed)
	var s fr.Element
	s.SetBytes(digest[:])
	return s
}

// Powers returns [1, base, base^2, ..., base^(n-1)].
func Powers(base fr.Element, n int) []fr.Element {
	powers := make([]fr.Element, n)
	if n == 0 {
		return powers
	}
	powers[0].SetOne()
	for i := 1; i < n; i++ {
		powers[i].Mul(&powers[i-1], &base)
	}
	return powers
}
