package msm

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// toLimbs converts scalars out of Montgomery form into little-endian
// limb arrays the window extractor can index directly.
func toLimbs(scalars []fr.Element) [][fr.Limbs]uint64 {
	limbs := make([][fr.Limbs]uint64, len(scalars))
	for i := range scalars {
		limbs[i] = scalars[i].Bits()
	}
	return limbs
}

// windowValue extracts nb bits of s starting at bit position bit0,
// reading across a limb boundary when needed. nb must be at most
// maxWindowWidth+1, so two limbs always suffice.
func windowValue(s *[fr.Limbs]uint64, bit0, nb int) uint64 {
	limb := bit0 >> 6
	off := uint(bit0 & 63)
	v := s[limb] >> off
	if int(off)+nb > 64 && limb+1 < fr.Limbs {
		v |= s[limb+1] << (64 - off)
	}
	return v & (1<<uint(nb) - 1)
}

// boothEncode recodes an unsigned window value into a signed digit.
// The input carries cbits window bits plus the top bit of the window
// below; the result folds that low bit in, halving the digit range to
// [-2^(cbits-1), 2^(cbits-1)]. Negative digits come back in two's
// complement: the low cbits bits hold the magnitude and every bit from
// position cbits up is set, which is what boothDecode keys on. A window
// that overflows into the next level encodes to digit zero; the carry
// itself is picked up by the overlapping read of the level above.
func boothEncode(wval uint64, cbits int) uint64 {
	mask := uint64(0) - (wval >> uint(cbits))
	wval = (wval + 1) >> 1
	return (wval ^ mask) - mask
}

// boothDecode routes point into the bucket selected by a Booth digit:
// added for positive digits, subtracted for negative ones. A zero digit
// leaves the buckets untouched. This is the only place bucket state
// mutates.
func boothDecode(buckets []bls12381.G1Jac, boothIdx uint64, cbits int, point *bls12381.G1Affine) {
	sign := boothIdx >> uint(cbits) & 1
	idx := boothIdx & (1<<uint(cbits) - 1)
	if idx == 0 {
		return
	}
	if sign != 0 {
		var neg bls12381.G1Affine
		neg.Neg(point)
		buckets[idx-1].AddMixed(&neg)
		return
	}
	buckets[idx-1].AddMixed(point)
}

// bucketTile accumulates one table row (or a tile of it) into buckets.
// bit0 is the lowest bit position of the window, wbits its bit count and
// cbits the digit width used for encoding. Interior windows read one
// extra bit below bit0 so the Booth carry propagates implicitly; the
// last window (bit0 == 0) has no bit below and shifts its value left
// instead.
func bucketTile(points []bls12381.G1Affine, scalars [][fr.Limbs]uint64, buckets []bls12381.G1Jac, bit0, wbits, cbits int) {
	wmask := uint64(1)<<uint(wbits+1) - 1
	z := 0
	if bit0 == 0 {
		z = 1
	}
	bit0 -= 1 - z
	read := wbits + 1 - z
	for i := range points {
		wval := windowValue(&scalars[i], bit0, read) << uint(z) & wmask
		boothDecode(buckets, boothEncode(wval, cbits), cbits, &points[i])
	}
}
