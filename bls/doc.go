// Package bls provides BLS12-381 primitives shared by the rest of the
// library: generator access, scalar construction helpers, and the byte
// sizes of the point encodings used on disk.
//
// BLS12-381 is a pairing-friendly curve whose G1 points serialize to 48
// bytes compressed or 96 bytes uncompressed, and whose scalar field has
// a 255-bit prime order. It is the curve used by EIP-4844 and by most
// production KZG deployments.
//
// This package wraps gnark-crypto, which supplies all group arithmetic
// (addition, doubling, negation, scalar multiplication, affine/Jacobian
// conversion) and validating point deserialization. Callers work with
// gnark-crypto's types directly:
//
//   - [fr.Element] for scalars
//   - [bls12381.G1Affine] / [bls12381.G1Jac] for G1 points
//   - [bls12381.G2Affine] for G2 points
//
// Deserialization through SetBytes rejects points that are not on the
// curve or not in the prime-order subgroup, which the table and setup
// decoders rely on.
package bls
