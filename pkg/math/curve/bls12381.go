package curve

import (
	"crypto/rand"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/cronokirby/saferith"
)

// bls12381G2Generator is the fixed generator of the G2 subgroup, computed
// once at package init from the curve's canonical generator pair.
var bls12381G2Generator = func() bls12381.G2Affine {
	_, _, _, g2Aff := bls12381.Generators()
	return g2Aff
}()

// BLS12381G2 instantiates Curve over the G2 subgroup of BLS12-381, via
// github.com/consensys/gnark-crypto — pulled from the rest of the
// retrieval pack (f3rmion-fy) since the teacher itself only wires
// secp256k1.
type BLS12381G2 struct{}

func (BLS12381G2) Name() string { return "bls12-381-g2" }

func (BLS12381G2) NewScalar() Scalar {
	return &blsScalar{}
}

func (BLS12381G2) NewPoint() Point {
	return &blsPoint{}
}

func (BLS12381G2) RandomScalar(r io.Reader) Scalar {
	if r == nil {
		r = rand.Reader
	}
	var buf [48]byte // oversample relative to the 32-byte Fr modulus
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		panic(err)
	}
	bi := new(big.Int).SetBytes(buf[:])
	bi.Mod(bi, fr.Modulus())
	s := &blsScalar{}
	s.s.SetBigInt(bi)
	return s
}

func (c BLS12381G2) RandomNonZeroScalar(r io.Reader) Scalar {
	for {
		s := c.RandomScalar(r)
		if !s.IsZero() {
			return s
		}
	}
}

func (BLS12381G2) ScalarFromHash(digest []byte) Scalar {
	bi := new(big.Int).SetBytes(digest)
	bi.Mod(bi, fr.Modulus())
	s := &blsScalar{}
	s.s.SetBigInt(bi)
	return s
}

func (BLS12381G2) ScalarBytes() int { return fr.Bytes }
func (BLS12381G2) PointBytes() int  { return 96 }

type blsScalar struct {
	s fr.Element
}

func (s *blsScalar) Add(other Scalar) Scalar {
	o := other.(*blsScalar)
	s.s.Add(&s.s, &o.s)
	return s
}

func (s *blsScalar) Sub(other Scalar) Scalar {
	o := other.(*blsScalar)
	s.s.Sub(&s.s, &o.s)
	return s
}

func (s *blsScalar) Mul(other Scalar) Scalar {
	o := other.(*blsScalar)
	s.s.Mul(&s.s, &o.s)
	return s
}

func (s *blsScalar) Negate() Scalar {
	s.s.Neg(&s.s)
	return s
}

func (s *blsScalar) Invert() Scalar {
	s.s.Inverse(&s.s)
	return s
}

func (s *blsScalar) SetNat(n *saferith.Nat) Scalar {
	bi := new(big.Int).SetBytes(n.Bytes())
	bi.Mod(bi, fr.Modulus())
	s.s.SetBigInt(bi)
	return s
}

func (s *blsScalar) Clone() Scalar {
	c := s.s
	return &blsScalar{s: c}
}

func (s *blsScalar) Equal(other Scalar) bool {
	o := other.(*blsScalar)
	return s.s.Equal(&o.s)
}

func (s *blsScalar) IsZero() bool { return s.s.IsZero() }

func (s *blsScalar) ActOnBase() Point {
	bi := new(big.Int)
	s.s.BigInt(bi)
	var res bls12381.G2Affine
	res.ScalarMultiplication(&bls12381G2Generator, bi)
	return &blsPoint{p: res}
}

func (s *blsScalar) Act(p Point) Point {
	o := p.(*blsPoint)
	bi := new(big.Int)
	s.s.BigInt(bi)
	var res bls12381.G2Affine
	res.ScalarMultiplication(&o.p, bi)
	return &blsPoint{p: res}
}

func (s *blsScalar) MarshalBinary() ([]byte, error) {
	b := s.s.Bytes()
	return b[:], nil
}

func (s *blsScalar) UnmarshalBinary(data []byte) error {
	if len(data) != fr.Bytes {
		return &decodeError{what: "bls12-381 scalar", reason: "wrong length"}
	}
	var e fr.Element
	e.SetBytes(data)
	s.s = e
	return nil
}

type blsPoint struct {
	p bls12381.G2Affine
}

func (p *blsPoint) Add(other Point) Point {
	o := other.(*blsPoint)
	var res bls12381.G2Affine
	res.Add(&p.p, &o.p)
	return &blsPoint{p: res}
}

func (p *blsPoint) Negate() Point {
	var res bls12381.G2Affine
	res.Neg(&p.p)
	return &blsPoint{p: res}
}

func (p *blsPoint) IsIdentity() bool { return p.p.IsInfinity() }

func (p *blsPoint) Equal(other Point) bool {
	o := other.(*blsPoint)
	return p.p.Equal(&o.p)
}

func (p *blsPoint) Clone() Point {
	c := p.p
	return &blsPoint{p: c}
}

func (p *blsPoint) MarshalBinary() ([]byte, error) {
	b := p.p.Bytes()
	return b[:], nil
}

func (p *blsPoint) UnmarshalBinary(data []byte) error {
	var a bls12381.G2Affine
	if _, err := a.SetBytes(data); err != nil {
		return &decodeError{what: "bls12-381 point", reason: err.Error()}
	}
	p.p = a
	return nil
}
