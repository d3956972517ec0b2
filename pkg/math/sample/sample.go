// Package sample draws uniform randomness for PedPop+: scalars and the
// 32-byte session-id contributions, grounded on the teacher's
// pkg/math/sample.Scalar call sites (protocols/lss/keygen/keygen.go).
package sample

import (
	"crypto/rand"
	"io"

	"github.com/luxfi/pedpop/pkg/math/curve"
)

// Scalar draws a uniform scalar in the field of group.
func Scalar(r io.Reader, group curve.Curve) curve.Scalar {
	return group.RandomScalar(r)
}

// NonZeroScalar draws a uniform nonzero scalar in the field of group.
func NonZeroScalar(r io.Reader, group curve.Curve) curve.Scalar {
	return group.RandomNonZeroScalar(r)
}

// SessionSeed draws the 32-byte sid_i contribution of round 1 step 1.
func SessionSeed(r io.Reader) ([32]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	var out [32]byte
	_, err := io.ReadFull(r, out[:])
	return out, err
}
