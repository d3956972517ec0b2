package curve

import (
	"crypto/rand"
	"io"

	"github.com/cronokirby/saferith"
	dcrsecp "github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Secp256k1 instantiates Curve over the secp256k1 group, via
// github.com/decred/dcrd/dcrec/secp256k1/v4 — the teacher's own curve
// dependency.
type Secp256k1 struct{}

func (Secp256k1) Name() string { return "secp256k1" }

func (Secp256k1) NewScalar() Scalar {
	return &secp256k1Scalar{}
}

func (Secp256k1) NewPoint() Point {
	return &secp256k1Point{} // zero value is the point at infinity
}

func (Secp256k1) RandomScalar(r io.Reader) Scalar {
	if r == nil {
		r = rand.Reader
	}
	var buf [48]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		panic(err)
	}
	// Only the first 32 bytes are used, reduced mod n; the remaining 16
	// bytes read above are discarded.
	s := &secp256k1Scalar{}
	s.s.SetByteSlice(buf[:32])
	return s
}

func (c Secp256k1) RandomNonZeroScalar(r io.Reader) Scalar {
	for {
		s := c.RandomScalar(r)
		if !s.IsZero() {
			return s
		}
	}
}

func (Secp256k1) ScalarFromHash(digest []byte) Scalar {
	s := &secp256k1Scalar{}
	s.s.SetByteSlice(digest)
	return s
}

func (Secp256k1) ScalarBytes() int { return 32 }
func (Secp256k1) PointBytes() int  { return 33 }

type secp256k1Scalar struct {
	s dcrsecp.ModNScalar
}

func (s *secp256k1Scalar) Add(other Scalar) Scalar {
	o := other.(*secp256k1Scalar)
	s.s.Add(&o.s)
	return s
}

func (s *secp256k1Scalar) Sub(other Scalar) Scalar {
	o := other.(*secp256k1Scalar).clone()
	o.s.Negate()
	s.s.Add(&o.s)
	return s
}

func (s *secp256k1Scalar) Mul(other Scalar) Scalar {
	o := other.(*secp256k1Scalar)
	s.s.Mul(&o.s)
	return s
}

func (s *secp256k1Scalar) Negate() Scalar {
	s.s.Negate()
	return s
}

func (s *secp256k1Scalar) Invert() Scalar {
	s.s.InverseNonConst()
	return s
}

func (s *secp256k1Scalar) SetNat(n *saferith.Nat) Scalar {
	s.s.SetByteSlice(n.Bytes())
	return s
}

func (s *secp256k1Scalar) Clone() Scalar {
	return s.clone()
}

func (s *secp256k1Scalar) clone() *secp256k1Scalar {
	out := &secp256k1Scalar{}
	out.s.Set(&s.s)
	return out
}

func (s *secp256k1Scalar) Equal(other Scalar) bool {
	o := other.(*secp256k1Scalar)
	return s.s.Equals(&o.s)
}

func (s *secp256k1Scalar) IsZero() bool { return s.s.IsZero() }

func (s *secp256k1Scalar) ActOnBase() Point {
	var j dcrsecp.JacobianPoint
	dcrsecp.ScalarBaseMultNonConst(&s.s, &j)
	j.ToAffine()
	return &secp256k1Point{p: j}
}

func (s *secp256k1Scalar) Act(p Point) Point {
	other := p.(*secp256k1Point)
	var j dcrsecp.JacobianPoint
	dcrsecp.ScalarMultNonConst(&s.s, &other.p, &j)
	j.ToAffine()
	return &secp256k1Point{p: j}
}

func (s *secp256k1Scalar) MarshalBinary() ([]byte, error) {
	b := s.s.Bytes()
	return b[:], nil
}

func (s *secp256k1Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return &decodeError{what: "secp256k1 scalar", reason: "wrong length"}
	}
	if s.s.SetByteSlice(data) {
		return &decodeError{what: "secp256k1 scalar", reason: "overflow"}
	}
	return nil
}

type secp256k1Point struct {
	p dcrsecp.JacobianPoint
}

func (p *secp256k1Point) Add(other Point) Point {
	o := other.(*secp256k1Point)
	var result dcrsecp.JacobianPoint
	dcrsecp.AddNonConst(&p.p, &o.p, &result)
	result.ToAffine()
	return &secp256k1Point{p: result}
}

func (p *secp256k1Point) Negate() Point {
	out := p.clone()
	out.p.Y.Negate(1)
	out.p.Y.Normalize()
	return out
}

func (p *secp256k1Point) IsIdentity() bool {
	return (p.p.X.IsZero() && p.p.Y.IsZero()) || p.p.Z.IsZero()
}

func (p *secp256k1Point) Equal(other Point) bool {
	o := other.(*secp256k1Point)
	a, b := p.clone(), o.clone()
	a.p.ToAffine()
	b.p.ToAffine()
	if a.IsIdentity() && b.IsIdentity() {
		return true
	}
	return a.p.X.Equals(&b.p.X) && a.p.Y.Equals(&b.p.Y)
}

func (p *secp256k1Point) Clone() Point { return p.clone() }

func (p *secp256k1Point) clone() *secp256k1Point {
	out := &secp256k1Point{}
	out.p.X.Set(&p.p.X)
	out.p.Y.Set(&p.p.Y)
	out.p.Z.Set(&p.p.Z)
	return out
}

func (p *secp256k1Point) MarshalBinary() ([]byte, error) {
	if p.IsIdentity() {
		var zero [33]byte
		return zero[:], nil
	}
	c := p.clone()
	c.p.ToAffine()
	pub := dcrsecp.NewPublicKey(&c.p.X, &c.p.Y)
	return pub.SerializeCompressed(), nil
}

func (p *secp256k1Point) UnmarshalBinary(data []byte) error {
	if len(data) != 33 {
		return &decodeError{what: "secp256k1 point", reason: "wrong length"}
	}
	allZero := true
	for _, b := range data {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		p.p = dcrsecp.JacobianPoint{}
		return nil
	}
	pub, err := dcrsecp.ParsePubKey(data)
	if err != nil {
		return &decodeError{what: "secp256k1 point", reason: err.Error()}
	}
	p.p.X.Set(&pub.X)
	p.p.Y.Set(&pub.Y)
	p.p.Z.SetInt(1)
	return nil
}
