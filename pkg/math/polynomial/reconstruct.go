package polynomial

import (
	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/party"
)

// Reconstruct combines a threshold-sized subset of shares into f(0) via
// Lagrange interpolation: sum_{i in S} lambda_i(S) * shares[i]. Used by
// the "consistency with reconstruction" property of the end-to-end test
// suite, not by the protocol itself (PedPop+ never reconstructs the full
// secret).
func Reconstruct(group curve.Curve, shares map[party.ID]curve.Scalar) curve.Scalar {
	ids := make(party.IDSlice, 0, len(shares))
	for id := range shares {
		ids = append(ids, id)
	}
	coeffs := party.Lagrange(group, ids)

	result := group.NewScalar()
	for _, id := range ids {
		term := coeffs[id].Clone().Mul(shares[id])
		result = result.Add(term)
	}
	return result
}

// ReconstructPoint is the group-element analogue of Reconstruct, used to
// verify that Lagrange reconstruction of the public shares Xi = ski*G
// matches the published pk: sum_{i in S} lambda_i(S) * Xi.
func ReconstructPoint(group curve.Curve, shares map[party.ID]curve.Point) curve.Point {
	ids := make(party.IDSlice, 0, len(shares))
	for id := range shares {
		ids = append(ids, id)
	}
	coeffs := party.Lagrange(group, ids)

	result := group.NewPoint()
	for _, id := range ids {
		result = result.Add(coeffs[id].Act(shares[id]))
	}
	return result
}
