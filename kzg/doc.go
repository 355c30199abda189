// Package kzg implements polynomial commitments in the monomial basis
// over BLS12-381.
//
// A [Scheme] is built once from a trusted setup; it precomputes a BGMW
// multiplication table over the setup's G1 powers so that every commit
// and every opening proof is a single multi-scalar multiplication
// against the same base.
//
// The protocol is the standard one: committing to p(X) yields
// C = [p(tau)]G1, opening at z yields the witness W = [q(tau)]G1 for the
// quotient q(X) = (p(X) - p(z)) / (X - z), and verification checks the
// pairing identity
//
//	e(C - [y]G1, H) = e(W, [tau - z]H)
//
// which holds exactly when p(z) = y.
package kzg
