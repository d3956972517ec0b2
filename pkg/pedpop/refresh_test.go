package pedpop_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/pedpop/internal/round"
	"github.com/luxfi/pedpop/internal/testutil"
	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/math/polynomial"
	"github.com/luxfi/pedpop/pkg/party"
	"github.com/luxfi/pedpop/pkg/pedpop"
)

func runRefresh(t *testing.T, priors map[party.ID]keygenResult) map[party.ID]keygenResult {
	t.Helper()
	ids := make(party.IDSlice, 0, len(priors))
	for id := range priors {
		ids = append(ids, id)
	}
	bus := round.NewBus(ids)
	results := make(chan keygenResult, len(ids))
	for _, id := range ids {
		id := id
		go func() {
			out, err := pedpop.Refresh(context.Background(), bus, priors[id].output, id, nil)
			results <- keygenResult{id: id, output: out, err: err}
		}()
	}
	out := make(map[party.ID]keygenResult, len(ids))
	for range ids {
		r := <-results
		out[r.id] = r
	}
	return out
}

// Scenario 3 (spec section 8): N=4, f=1, t=2, BLS12-381 G2 — successful
// keygen then refresh; new shares Lagrange-reconstruct to the same pk; old
// shares do not combine with new shares.
func TestRefreshPreservesPublicKey(t *testing.T) {
	group := curve.BLS12381G2{}
	ids := testutil.PartyIDs(4)
	before := runKeygen(t, group, ids, 2)

	after := runRefresh(t, before)

	var pk curve.Point
	for _, id := range ids {
		r := after[id]
		require.NoError(t, r.err)
		require.NotNil(t, r.output)
		if pk == nil {
			pk = r.output.PublicKey
		} else {
			assert.True(t, pk.Equal(r.output.PublicKey))
		}
		assert.True(t, pk.Equal(before[ids[0]].output.PublicKey), "refresh must preserve pk")
		assert.Equal(t, before[ids[0]].output.Parameters, r.output.Parameters)
		assert.False(t, r.output.ShareSecret.Equal(before[id].output.ShareSecret), "refresh must produce a different sk_i")
	}

	// New shares reconstruct to pk...
	newSubset := map[party.ID]curve.Scalar{
		ids[0]: after[ids[0]].output.ShareSecret,
		ids[1]: after[ids[1]].output.ShareSecret,
	}
	reconstructed := polynomial.Reconstruct(group, newSubset)
	assert.True(t, reconstructed.ActOnBase().Equal(pk))

	// ...but a mixed old/new subset does not.
	mixedSubset := map[party.ID]curve.Scalar{
		ids[0]: before[ids[0]].output.ShareSecret,
		ids[1]: after[ids[1]].output.ShareSecret,
	}
	mixedReconstructed := polynomial.Reconstruct(group, mixedSubset)
	assert.False(t, mixedReconstructed.ActOnBase().Equal(pk), "mixed old/new shares must not reconstruct pk")
}
