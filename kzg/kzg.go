package kzg

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/xerrors"

	"github.com/apollozkp/go-kzg/bls"
	"github.com/apollozkp/go-kzg/msm"
	"github.com/apollozkp/go-kzg/setup"
)

var (
	// ErrDegreeTooLarge is returned when a polynomial exceeds the
	// setup's capacity.
	ErrDegreeTooLarge = xerrors.New("kzg: polynomial degree exceeds setup size")

	// ErrSetupTooSmall is returned when the setup cannot support
	// opening proofs.
	ErrSetupTooSmall = xerrors.New("kzg: setup must hold at least two powers")
)

// Polynomial holds coefficients in the monomial basis, lowest degree
// first.
type Polynomial []fr.Element

// Evaluate returns p(z) by Horner's rule.
func (p Polynomial) Evaluate(z fr.Element) fr.Element {
	var y fr.Element
	for i := len(p) - 1; i >= 0; i-- {
		y.Mul(&y, &z)
		y.Add(&y, &p[i])
	}
	return y
}

// quotient returns (p(X) - y) / (X - z) by synthetic division. The
// division is exact when y = p(z).
func (p Polynomial) quotient(z, y fr.Element) Polynomial {
	if len(p) < 2 {
		return nil
	}
	q := make(Polynomial, len(p)-1)
	acc := p[len(p)-1]
	for i := len(p) - 2; i >= 0; i-- {
		q[i] = acc
		acc.Mul(&acc, &z)
		acc.Add(&acc, &p[i])
	}
	return q
}

// Scheme commits to and opens polynomials against a fixed trusted
// setup. It is read-only after construction and safe for concurrent
// use.
type Scheme struct {
	g1    []bls12381.G1Affine
	tauG2 bls12381.G2Affine
	table *msm.Table
}

// NewScheme validates the setup and precomputes the multiplication
// table over its G1 powers.
func NewScheme(s *setup.Setup) (*Scheme, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	if len(s.G2) < 2 {
		return nil, ErrSetupTooSmall
	}
	table, err := msm.NewTable(s.G1)
	if err != nil {
		return nil, xerrors.Errorf("kzg: build table: %w", err)
	}
	return &Scheme{
		g1:    s.G1,
		tauG2: s.G2[1],
		table: table,
	}, nil
}

// MaxDegree returns the largest polynomial degree the scheme can
// commit to.
func (s *Scheme) MaxDegree() int {
	return len(s.g1) - 1
}

// Commit returns C = [p(tau)]G1.
func (s *Scheme) Commit(p Polynomial) (bls12381.G1Affine, error) {
	return s.multiply(p)
}

// Open returns the evaluation y = p(z) and the witness W = [q(tau)]G1
// for the quotient q(X) = (p(X) - y) / (X - z).
func (s *Scheme) Open(p Polynomial, z fr.Element) (proof bls12381.G1Affine, y fr.Element, err error) {
	y = p.Evaluate(z)
	proof, err = s.multiply(p.quotient(z, y))
	return proof, y, err
}

// Verify checks that commitment opens to y at z with witness proof.
func (s *Scheme) Verify(commitment, proof bls12381.G1Affine, z, y fr.Element) (bool, error) {
	g1 := bls.G1Generator()
	g2 := bls.G2Generator()
	var e big.Int

	// -(C - [y]G1)
	var yG bls12381.G1Affine
	yG.ScalarMultiplication(&g1, y.BigInt(&e))
	var lhs bls12381.G1Jac
	lhs.FromAffine(&yG)
	var c bls12381.G1Jac
	c.FromAffine(&commitment)
	lhs.SubAssign(&c)
	var lhsAff bls12381.G1Affine
	lhsAff.FromJacobian(&lhs)

	// [tau - z]G2
	var zH bls12381.G2Affine
	zH.ScalarMultiplication(&g2, z.BigInt(&e))
	var rhs bls12381.G2Jac
	rhs.FromAffine(&s.tauG2)
	var zHJac bls12381.G2Jac
	zHJac.FromAffine(&zH)
	rhs.SubAssign(&zHJac)
	var rhsAff bls12381.G2Affine
	rhsAff.FromJacobian(&rhs)

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{lhsAff, proof},
		[]bls12381.G2Affine{g2, rhsAff},
	)
	if err != nil {
		return false, xerrors.Errorf("kzg: pairing check: %w", err)
	}
	return ok, nil
}

// multiply runs the MSM of p's coefficients against the setup powers,
// zero-padding up to the table's base size.
func (s *Scheme) multiply(p Polynomial) (bls12381.G1Affine, error) {
	var out bls12381.G1Affine
	if len(p) > len(s.g1) {
		return out, xerrors.Errorf("%w: %d coefficients for %d powers", ErrDegreeTooLarge, len(p), len(s.g1))
	}
	scalars := make([]fr.Element, len(s.g1))
	copy(scalars, p)
	res, err := s.table.Multiply(scalars)
	if err != nil {
		return out, err
	}
	out.FromJacobian(&res)
	return out, nil
}
