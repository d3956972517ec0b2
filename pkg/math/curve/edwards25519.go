package curve

import (
	"crypto/rand"
	"io"

	ed "filippo.io/edwards25519"
	"github.com/cronokirby/saferith"
)

// Curve25519 instantiates Curve over the edwards25519 group, via
// filippo.io/edwards25519 — pulled from the rest of the retrieval pack
// (smallyunet-go-cggmp-tss) since the teacher itself only wires secp256k1.
type Curve25519 struct{}

func (Curve25519) Name() string { return "curve25519" }

func (Curve25519) NewScalar() Scalar {
	return &edScalar{s: ed.NewScalar()}
}

func (Curve25519) NewPoint() Point {
	return &edPoint{p: ed.NewIdentityPoint()}
}

func (Curve25519) RandomScalar(r io.Reader) Scalar {
	if r == nil {
		r = rand.Reader
	}
	var buf [64]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		panic(err)
	}
	s := ed.NewScalar()
	if _, err := s.SetUniformBytes(buf[:]); err != nil {
		panic(err)
	}
	return &edScalar{s: s}
}

func (c Curve25519) RandomNonZeroScalar(r io.Reader) Scalar {
	zero := ed.NewScalar()
	for {
		s := c.RandomScalar(r)
		if s.(*edScalar).s.Equal(zero) == 0 {
			return s
		}
	}
}

func (Curve25519) ScalarFromHash(digest []byte) Scalar {
	buf := uniformBufferFromDigest(digest)
	s := ed.NewScalar()
	if _, err := s.SetUniformBytes(buf[:]); err != nil {
		panic(err)
	}
	return &edScalar{s: s}
}

func (Curve25519) ScalarBytes() int { return 32 }
func (Curve25519) PointBytes() int  { return 32 }

// uniformBufferFromDigest stretches an arbitrary digest into the 64
// uniform bytes SetUniformBytes requires, by repeating/truncating — the
// digest already comes from a domain-separated BLAKE3 hash in pkg/hash, so
// this only adapts length, it does not add entropy.
func uniformBufferFromDigest(digest []byte) [64]byte {
	var buf [64]byte
	for i := range buf {
		buf[i] = digest[i%len(digest)]
	}
	return buf
}

type edScalar struct {
	s *ed.Scalar
}

func (s *edScalar) Add(other Scalar) Scalar {
	o := other.(*edScalar)
	s.s.Add(s.s, o.s)
	return s
}

func (s *edScalar) Sub(other Scalar) Scalar {
	o := other.(*edScalar)
	s.s.Subtract(s.s, o.s)
	return s
}

func (s *edScalar) Mul(other Scalar) Scalar {
	o := other.(*edScalar)
	s.s.Multiply(s.s, o.s)
	return s
}

func (s *edScalar) Negate() Scalar {
	s.s.Negate(s.s)
	return s
}

func (s *edScalar) Invert() Scalar {
	s.s.Invert(s.s)
	return s
}

func (s *edScalar) SetNat(n *saferith.Nat) Scalar {
	raw := n.Bytes()
	// Nat.Bytes is big-endian; SetUniformBytes wants little-endian entropy
	// reduced mod l, so reverse before stretching to 64 bytes.
	rev := make([]byte, len(raw))
	for i, b := range raw {
		rev[len(raw)-1-i] = b
	}
	var buf [64]byte
	copy(buf[:], rev)
	if _, err := s.s.SetUniformBytes(buf[:]); err != nil {
		panic(err)
	}
	return s
}

func (s *edScalar) Clone() Scalar {
	out := ed.NewScalar()
	out.Set(s.s)
	return &edScalar{s: out}
}

func (s *edScalar) Equal(other Scalar) bool {
	o := other.(*edScalar)
	return s.s.Equal(o.s) == 1
}

func (s *edScalar) IsZero() bool {
	zero := ed.NewScalar()
	return s.s.Equal(zero) == 1
}

func (s *edScalar) ActOnBase() Point {
	v := ed.NewIdentityPoint()
	v.ScalarBaseMult(s.s)
	return &edPoint{p: v}
}

func (s *edScalar) Act(p Point) Point {
	o := p.(*edPoint)
	v := ed.NewIdentityPoint()
	v.ScalarMult(s.s, o.p)
	return &edPoint{p: v}
}

func (s *edScalar) MarshalBinary() ([]byte, error) {
	return s.s.Bytes(), nil
}

func (s *edScalar) UnmarshalBinary(data []byte) error {
	out := ed.NewScalar()
	if _, err := out.SetCanonicalBytes(data); err != nil {
		return &decodeError{what: "curve25519 scalar", reason: err.Error()}
	}
	s.s = out
	return nil
}

type edPoint struct {
	p *ed.Point
}

func (p *edPoint) Add(other Point) Point {
	o := other.(*edPoint)
	v := ed.NewIdentityPoint()
	v.Add(p.p, o.p)
	return &edPoint{p: v}
}

func (p *edPoint) Negate() Point {
	v := ed.NewIdentityPoint()
	v.Negate(p.p)
	return &edPoint{p: v}
}

func (p *edPoint) IsIdentity() bool {
	return p.p.Equal(ed.NewIdentityPoint()) == 1
}

func (p *edPoint) Equal(other Point) bool {
	o := other.(*edPoint)
	return p.p.Equal(o.p) == 1
}

func (p *edPoint) Clone() Point {
	v := ed.NewIdentityPoint()
	v.Set(p.p)
	return &edPoint{p: v}
}

func (p *edPoint) MarshalBinary() ([]byte, error) {
	return p.p.Bytes(), nil
}

func (p *edPoint) UnmarshalBinary(data []byte) error {
	v := ed.NewIdentityPoint()
	if _, err := v.SetBytes(data); err != nil {
		return &decodeError{what: "curve25519 point", reason: err.Error()}
	}
	p.p = v
	return nil
}
