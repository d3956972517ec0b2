// Package polynomial implements the scalar-field polynomials and their
// group-exponent commitments used by PedPop+'s verifiable secret sharing,
// adapted from the teacher's pkg/math/polynomial package (referenced from
// protocols/lss/keygen/keygen.go and pkg/math/polynomial/lagrange_test.go).
package polynomial

import (
	"io"

	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/party"
)

// Polynomial is a coefficient vector [a_0, ..., a_degree] in the scalar
// field of a group. It is created fresh in round 2 of each run and must be
// zeroized after round 5 (see Zeroize).
type Polynomial struct {
	group        curve.Curve
	coefficients []curve.Scalar
}

// NewPolynomial samples a uniformly random degree-degree polynomial whose
// constant term is fixed to constant. If constant is nil, the constant
// term is also drawn uniformly at random (fresh keygen / refresh case);
// otherwise it is fixed (reshare case, where f_i(0) is the holder's
// Lagrange-weighted prior share, or zero for a new joiner).
func NewPolynomial(group curve.Curve, degree int, constant curve.Scalar, r io.Reader) *Polynomial {
	coeffs := make([]curve.Scalar, degree+1)
	if constant != nil {
		coeffs[0] = constant.Clone()
	} else {
		coeffs[0] = group.RandomScalar(r)
	}
	for i := 1; i <= degree; i++ {
		coeffs[i] = group.RandomScalar(r)
	}
	return &Polynomial{group: group, coefficients: coeffs}
}

// Degree returns the polynomial's degree.
func (p *Polynomial) Degree() int { return len(p.coefficients) - 1 }

// Constant returns f(0) = a_0.
func (p *Polynomial) Constant() curve.Scalar { return p.coefficients[0].Clone() }

// Coefficients returns the polynomial's coefficients; callers must not
// mutate the returned slice's elements.
func (p *Polynomial) Coefficients() []curve.Scalar { return p.coefficients }

// Evaluate computes f(x) = a_0 + a_1*x + ... + a_degree*x^degree using
// Horner's method.
func (p *Polynomial) Evaluate(x curve.Scalar) curve.Scalar {
	result := p.group.NewScalar()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.coefficients[i])
	}
	return result
}

// EvaluateAt is a convenience wrapper evaluating at a participant's
// canonical scalar evaluation point.
func (p *Polynomial) EvaluateAt(id party.ID) curve.Scalar {
	return p.Evaluate(id.Scalar(p.group))
}

// Zeroize overwrites every coefficient with the additive identity. It must
// be called on every termination path of the state machine that created
// this polynomial (success, abort, cancellation, panic via defer).
func (p *Polynomial) Zeroize() {
	for i := range p.coefficients {
		p.coefficients[i] = p.group.NewScalar()
	}
}
