// Package curve abstracts a prime-order group G of order q, with a fixed
// generator, so that pkg/pedpop can be written once against scalar field
// and group operations and instantiated per concrete curve by
// monomorphisation rather than a runtime dispatch table (see the curve
// agnosticism design note).
package curve

import (
	"io"

	"github.com/cronokirby/saferith"
)

// Curve is a prime-order group of order q with a fixed generator G.
// Implementations must provide constant-time scalar arithmetic and
// deterministic, canonical (compressed) point encoding: two instances of
// the same element must encode byte-identically.
type Curve interface {
	// Name uniquely identifies the curve, used both for diagnostics and as
	// the group tag in the KeygenOutput wire format.
	Name() string
	// NewScalar returns the additive identity of the scalar field.
	NewScalar() Scalar
	// NewPoint returns the identity element of the group.
	NewPoint() Point
	// RandomScalar draws a uniform scalar from rand.
	RandomScalar(rand io.Reader) Scalar
	// RandomNonZeroScalar draws a uniform nonzero scalar from rand.
	RandomNonZeroScalar(rand io.Reader) Scalar
	// ScalarFromHash reduces an arbitrary-length digest into the scalar
	// field, used to derive the Schnorr challenge c = H3(...).
	ScalarFromHash(digest []byte) Scalar
	// ScalarBytes is the canonical encoded length of a Scalar.
	ScalarBytes() int
	// PointBytes is the canonical (compressed) encoded length of a Point.
	PointBytes() int
}

// Scalar is an element of the scalar field of order q. Arithmetic methods
// mutate the receiver in place and return it, so that `a.Add(b)` both
// updates a and can be chained; callers that need the original value
// preserved must Clone first.
type Scalar interface {
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Negate() Scalar
	Invert() Scalar
	SetNat(*saferith.Nat) Scalar
	Clone() Scalar
	Equal(Scalar) bool
	IsZero() bool
	// ActOnBase returns scalar * G.
	ActOnBase() Point
	// Act returns scalar * p for an arbitrary point p.
	Act(p Point) Point
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

// Point is an element of the group.
type Point interface {
	Add(Point) Point
	Negate() Point
	IsIdentity() bool
	Equal(Point) bool
	Clone() Point
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

// ByName returns the Curve implementation registered under name, or false
// if no such curve is known. Decoding a persisted KeygenOutput's group tag
// byte goes through FromTag, not ByName.
func ByName(name string) (Curve, bool) {
	switch name {
	case Secp256k1{}.Name():
		return Secp256k1{}, true
	case Curve25519{}.Name():
		return Curve25519{}, true
	case BLS12381G2{}.Name():
		return BLS12381G2{}, true
	default:
		return nil, false
	}
}

// Tag returns the single-byte group tag used in the KeygenOutput wire
// format (section 6 of the spec).
func Tag(c Curve) byte {
	switch c.Name() {
	case Secp256k1{}.Name():
		return 0x01
	case Curve25519{}.Name():
		return 0x02
	case BLS12381G2{}.Name():
		return 0x03
	default:
		return 0x00
	}
}

// FromTag is the inverse of Tag.
func FromTag(tag byte) (Curve, bool) {
	switch tag {
	case 0x01:
		return Secp256k1{}, true
	case 0x02:
		return Curve25519{}, true
	case 0x03:
		return BLS12381G2{}, true
	default:
		return nil, false
	}
}
