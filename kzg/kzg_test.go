package kzg

import (
	"math/big"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"

	"github.com/apollozkp/go-kzg/setup"
)

var testSecret = [32]byte{42}

func testScheme(t *testing.T, size int) *Scheme {
	t.Helper()
	s, err := NewScheme(setup.Generate(size, testSecret))
	require.NoError(t, err)
	return s
}

func randomPolynomial(t *testing.T, degree int) Polynomial {
	t.Helper()
	p := make(Polynomial, degree+1)
	for i := range p {
		_, err := p[i].SetRandom()
		require.NoError(t, err)
	}
	return p
}

func TestEvaluate(t *testing.T) {
	// p(X) = 3 + 2X + X^2, p(5) = 38.
	var p Polynomial = make([]fr.Element, 3)
	p[0].SetUint64(3)
	p[1].SetUint64(2)
	p[2].SetUint64(1)
	var z, want fr.Element
	z.SetUint64(5)
	want.SetUint64(38)
	got := p.Evaluate(z)
	require.True(t, want.Equal(&got))
}

func TestCommitMatchesDirectSum(t *testing.T) {
	scheme := testScheme(t, 8)
	srs := setup.Generate(8, testSecret)
	p := randomPolynomial(t, 5)

	commitment, err := scheme.Commit(p)
	require.NoError(t, err)

	var want bls12381.G1Jac
	var e big.Int
	for i := range p {
		var term bls12381.G1Affine
		term.ScalarMultiplication(&srs.G1[i], p[i].BigInt(&e))
		var termJac bls12381.G1Jac
		termJac.FromAffine(&term)
		want.AddAssign(&termJac)
	}
	var wantAff bls12381.G1Affine
	wantAff.FromJacobian(&want)
	require.True(t, wantAff.Equal(&commitment))
}

func TestOpenVerify(t *testing.T) {
	scheme := testScheme(t, 16)
	p := randomPolynomial(t, 10)

	commitment, err := scheme.Commit(p)
	require.NoError(t, err)

	var z fr.Element
	_, err = z.SetRandom()
	require.NoError(t, err)

	proof, y, err := scheme.Open(p, z)
	require.NoError(t, err)

	want := p.Evaluate(z)
	require.True(t, want.Equal(&y))

	ok, err := scheme.Verify(commitment, proof, z, y)
	require.NoError(t, err)
	require.True(t, ok, "valid opening rejected")

	t.Run("wrong evaluation", func(t *testing.T) {
		var bad fr.Element
		bad.SetUint64(1)
		bad.Add(&bad, &y)
		ok, err := scheme.Verify(commitment, proof, z, bad)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("wrong point", func(t *testing.T) {
		var bad fr.Element
		bad.SetUint64(1)
		bad.Add(&bad, &z)
		ok, err := scheme.Verify(commitment, proof, bad, y)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("wrong commitment", func(t *testing.T) {
		other, err := scheme.Commit(randomPolynomial(t, 10))
		require.NoError(t, err)
		ok, err := scheme.Verify(other, proof, z, y)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestConstantPolynomial(t *testing.T) {
	scheme := testScheme(t, 4)
	var p Polynomial = make([]fr.Element, 1)
	p[0].SetUint64(7)

	commitment, err := scheme.Commit(p)
	require.NoError(t, err)

	var z fr.Element
	z.SetUint64(3)
	proof, y, err := scheme.Open(p, z)
	require.NoError(t, err)
	require.True(t, p[0].Equal(&y))

	ok, err := scheme.Verify(commitment, proof, z, y)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDegreeTooLarge(t *testing.T) {
	scheme := testScheme(t, 4)
	_, err := scheme.Commit(randomPolynomial(t, 4))
	require.ErrorIs(t, err, ErrDegreeTooLarge)
}
