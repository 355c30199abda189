package msm

import (
	"fmt"
	"math/big"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/stretchr/testify/require"
)

func randomScalars(t *testing.T, n int) []fr.Element {
	t.Helper()
	scalars := make([]fr.Element, n)
	for i := range scalars {
		_, err := scalars[i].SetRandom()
		require.NoError(t, err)
	}
	return scalars
}

func randomPoints(t *testing.T, n int) []bls12381.G1Affine {
	t.Helper()
	_, _, g, _ := bls12381.Generators()
	points := make([]bls12381.G1Affine, n)
	var e big.Int
	for i := range points {
		var s fr.Element
		_, err := s.SetRandom()
		require.NoError(t, err)
		points[i].ScalarMultiplication(&g, s.BigInt(&e))
	}
	return points
}

func naiveMSM(points []bls12381.G1Affine, scalars []fr.Element) bls12381.G1Jac {
	var acc bls12381.G1Jac
	var e big.Int
	for i := range points {
		var term bls12381.G1Affine
		term.ScalarMultiplication(&points[i], scalars[i].BigInt(&e))
		var termJac bls12381.G1Jac
		termJac.FromAffine(&term)
		acc.AddAssign(&termJac)
	}
	return acc
}

func requireSamePoint(t *testing.T, want, got bls12381.G1Jac) {
	t.Helper()
	var wantAff, gotAff bls12381.G1Affine
	wantAff.FromJacobian(&want)
	gotAff.FromJacobian(&got)
	require.True(t, wantAff.Equal(&gotAff), "want %s, got %s", wantAff.String(), gotAff.String())
}

// tiledWindow returns a valid tiling of nx columns at the given width.
func tiledWindow(width, nx int) Window {
	return Window{Width: width, NX: nx, NY: nbits/width + 1}
}

func TestSequentialMatchesNaive(t *testing.T) {
	// Widths that divide the 255-bit range force the extra carry row;
	// the others exercise the truncated top window. 16 is a practical
	// upper bound for the bucket array in tests.
	widths := []int{1, 2, 3, 4, 5, 8, 16}
	for _, n := range []int{1, 2, 3, 17, 256} {
		points := randomPoints(t, n)
		scalars := randomScalars(t, n)
		want := naiveMSM(points, scalars)
		for _, width := range widths {
			t.Run(fmt.Sprintf("n=%d/width=%d", n, width), func(t *testing.T) {
				table, err := NewTableWithWindow(points, Window{Width: width})
				require.NoError(t, err)
				got, err := table.MultiplySequential(scalars)
				require.NoError(t, err)
				requireSamePoint(t, want, got)
			})
		}
	}
}

func TestSelectorWindowMatchesNaive(t *testing.T) {
	for _, n := range []int{3, 17, 256} {
		for _, workers := range []int{1, 2, 4, 16} {
			t.Run(fmt.Sprintf("n=%d/workers=%d", n, workers), func(t *testing.T) {
				points := randomPoints(t, n)
				scalars := randomScalars(t, n)
				table, err := NewTableWithWindow(points, SelectWindow(n, workers))
				require.NoError(t, err)
				got, err := table.Multiply(scalars)
				require.NoError(t, err)
				requireSamePoint(t, naiveMSM(points, scalars), got)
			})
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	for _, n := range []int{1, 3, 17, 256} {
		points := randomPoints(t, n)
		scalars := randomScalars(t, n)
		want := naiveMSM(points, scalars)
		for _, width := range []int{1, 2, 4, 5} {
			for _, nx := range []int{1, 2, 3} {
				t.Run(fmt.Sprintf("n=%d/width=%d/nx=%d", n, width, nx), func(t *testing.T) {
					table, err := NewTableWithWindow(points, tiledWindow(width, nx))
					require.NoError(t, err)
					got, err := table.MultiplyParallel(scalars)
					require.NoError(t, err)
					requireSamePoint(t, want, got)
				})
			}
		}
	}
}

func TestParallelFallsBackOnSyncWindow(t *testing.T) {
	points := randomPoints(t, 5)
	scalars := randomScalars(t, 5)
	table, err := NewTableWithWindow(points, Window{Width: 4})
	require.NoError(t, err)
	got, err := table.MultiplyParallel(scalars)
	require.NoError(t, err)
	requireSamePoint(t, naiveMSM(points, scalars), got)
}

func TestZeroScalars(t *testing.T) {
	points := randomPoints(t, 9)
	scalars := make([]fr.Element, 9)
	for _, window := range []Window{{Width: 4}, tiledWindow(4, 2)} {
		table, err := NewTableWithWindow(points, window)
		require.NoError(t, err)
		got, err := table.Multiply(scalars)
		require.NoError(t, err)
		require.True(t, got.Z.IsZero(), "expected the group identity")
	}
}

func TestIdentityPoints(t *testing.T) {
	points := make([]bls12381.G1Affine, 7)
	scalars := randomScalars(t, 7)
	for _, window := range []Window{{Width: 4}, tiledWindow(4, 2)} {
		table, err := NewTableWithWindow(points, window)
		require.NoError(t, err)
		got, err := table.Multiply(scalars)
		require.NoError(t, err)
		require.True(t, got.Z.IsZero(), "expected the group identity")
	}
}

func TestEmptyBase(t *testing.T) {
	table, err := NewTableWithWindow(nil, Window{Width: 4})
	require.NoError(t, err)
	got, err := table.Multiply(nil)
	require.NoError(t, err)
	require.True(t, got.Z.IsZero())
}

func TestGeneratorScenario(t *testing.T) {
	// Four copies of the generator with scalars 1..4 must sum to 10*G.
	_, _, g, _ := bls12381.Generators()
	points := []bls12381.G1Affine{g, g, g, g}
	scalars := make([]fr.Element, 4)
	for i := range scalars {
		scalars[i].SetUint64(uint64(i + 1))
	}
	var want bls12381.G1Affine
	want.ScalarMultiplication(&g, big.NewInt(10))
	var wantJac bls12381.G1Jac
	wantJac.FromAffine(&want)

	for _, width := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("sequential/width=%d", width), func(t *testing.T) {
			table, err := NewTableWithWindow(points, Window{Width: width})
			require.NoError(t, err)
			got, err := table.MultiplySequential(scalars)
			require.NoError(t, err)
			requireSamePoint(t, wantJac, got)
		})
		t.Run(fmt.Sprintf("parallel/width=%d", width), func(t *testing.T) {
			table, err := NewTableWithWindow(points, tiledWindow(width, 2))
			require.NoError(t, err)
			got, err := table.MultiplyParallel(scalars)
			require.NoError(t, err)
			requireSamePoint(t, wantJac, got)
		})
	}
}

func TestMisuse(t *testing.T) {
	points := randomPoints(t, 4)
	scalars := randomScalars(t, 4)

	t.Run("sequential on tiled table", func(t *testing.T) {
		table, err := NewTableWithWindow(points, tiledWindow(4, 2))
		require.NoError(t, err)
		_, err = table.MultiplySequential(scalars)
		require.ErrorIs(t, err, ErrTiledTable)
		// The public entry point dispatches instead of failing.
		got, err := table.Multiply(scalars)
		require.NoError(t, err)
		requireSamePoint(t, naiveMSM(points, scalars), got)
	})

	t.Run("scalar count mismatch", func(t *testing.T) {
		table, err := NewTableWithWindow(points, Window{Width: 4})
		require.NoError(t, err)
		_, err = table.Multiply(scalars[:3])
		require.ErrorIs(t, err, ErrScalarCount)
		table, err = NewTableWithWindow(points, tiledWindow(4, 2))
		require.NoError(t, err)
		_, err = table.MultiplyParallel(scalars[:3])
		require.ErrorIs(t, err, ErrScalarCount)
	})
}
