package msm

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// integrateBuckets collapses a bucket array into the single point
// sum(d * buckets[d-1]) for d = 1..len(buckets).
//
// Walking from the highest bucket down, acc holds the suffix sum of
// bucket contents and ret accumulates acc once per step, so every bucket
// ends up weighted by its digit value using one addition per bucket
// instead of a scalar multiplication. Identity buckets are skipped on
// the inner add; the ret addition still runs so the weights stay
// aligned.
func integrateBuckets(buckets []bls12381.G1Jac) bls12381.G1Jac {
	n := len(buckets) - 1
	ret := buckets[n]
	acc := buckets[n]
	for n > 0 {
		n--
		if !buckets[n].Z.IsZero() {
			acc.AddAssign(&buckets[n])
		}
		ret.AddAssign(&acc)
	}
	return ret
}
