package polynomial

import (
	"errors"

	"github.com/cronokirby/saferith"

	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/party"
)

var errWrongLength = errors.New("polynomial: encoded commitment has the wrong length")

// Exponent is the group-exponent commitment to a Polynomial: the vector
// [a_0*G, ..., a_degree*G]. Evaluation at j yields the group element
// sum_m(j^m * C[m]); the constant term C(0) = C[0] is the share's public
// contribution, broadcast in round 3 of PedPop+.
type Exponent struct {
	group        curve.Curve
	coefficients []curve.Point
}

// NewPolynomialExponent computes C = f*G coefficient-wise.
func NewPolynomialExponent(p *Polynomial) *Exponent {
	coeffs := make([]curve.Point, len(p.coefficients))
	for i, a := range p.coefficients {
		coeffs[i] = a.ActOnBase()
	}
	return &Exponent{group: p.group, coefficients: coeffs}
}

// Degree returns the commitment's degree.
func (e *Exponent) Degree() int { return len(e.coefficients) - 1 }

// Constant returns C(0) = C[0].
func (e *Exponent) Constant() curve.Point { return e.coefficients[0] }

// Coefficients returns the commitment's coefficients; callers must not
// mutate the returned slice's elements.
func (e *Exponent) Coefficients() []curve.Point { return e.coefficients }

// Evaluate computes C(x) = sum_{m=0}^{degree} x^m * C[m].
func (e *Exponent) Evaluate(x curve.Scalar) curve.Point {
	result := e.group.NewPoint()
	xPower := e.group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
	for m := 0; m <= e.Degree(); m++ {
		result = result.Add(xPower.Act(e.coefficients[m]))
		if m < e.Degree() {
			xPower = xPower.Mul(x)
		}
	}
	return result
}

// EvaluateAt is a convenience wrapper evaluating at a participant's
// canonical scalar evaluation point.
func (e *Exponent) EvaluateAt(id party.ID) curve.Point {
	return e.Evaluate(id.Scalar(e.group))
}

// Encode serialises the commitment as a flat concatenation of compressed
// point encodings, used inside the round-3 broadcast payload and the
// round-2 pre-commitment hash H2.
func (e *Exponent) Encode() ([]byte, error) {
	out := make([]byte, 0, len(e.coefficients)*e.group.PointBytes())
	for _, c := range e.coefficients {
		b, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Decode parses a commitment of the given degree back from Encode's
// output.
func Decode(group curve.Curve, degree int, data []byte) (*Exponent, error) {
	width := group.PointBytes()
	if len(data) != width*(degree+1) {
		return nil, errWrongLength
	}
	coeffs := make([]curve.Point, degree+1)
	for i := 0; i <= degree; i++ {
		p := group.NewPoint()
		if err := p.UnmarshalBinary(data[i*width : (i+1)*width]); err != nil {
			return nil, err
		}
		coeffs[i] = p
	}
	return &Exponent{group: group, coefficients: coeffs}, nil
}
