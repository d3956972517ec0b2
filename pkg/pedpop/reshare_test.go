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

// Scenario 4 (spec section 8): N=5 -> N=6, f=1, t=2, Secp256k1 — reshare
// adding one participant; the new participant's share together with any
// two old members' shares reconstructs pk.
func TestReshareAddsParticipant(t *testing.T) {
	group := curve.Secp256k1{}
	oldIDs := testutil.PartyIDs(5)
	before := runKeygen(t, group, oldIDs, 2)
	oldPK := before[oldIDs[0]].output.PublicKey

	newIDs := append(append(party.IDSlice{}, oldIDs...), party.ID(6))
	bus := round.NewBus(newIDs)
	results := make(chan keygenResult, len(newIDs))
	for _, id := range newIDs {
		id := id
		var prior *pedpop.KeygenOutput
		if r, ok := before[id]; ok {
			prior = r.output
		}
		go func() {
			out, err := pedpop.Reshare(context.Background(), bus, group, oldIDs, 2, oldPK, prior, newIDs, id, 2, nil)
			results <- keygenResult{id: id, output: out, err: err}
		}()
	}
	after := make(map[party.ID]keygenResult, len(newIDs))
	for range newIDs {
		r := <-results
		after[r.id] = r
	}

	for _, id := range newIDs {
		r := after[id]
		require.NoError(t, r.err)
		require.NotNil(t, r.output)
		assert.True(t, r.output.PublicKey.Equal(oldPK), "reshare must preserve pk")
	}

	subset := map[party.ID]curve.Scalar{
		party.ID(6):  after[party.ID(6)].output.ShareSecret,
		oldIDs[0]:    after[oldIDs[0]].output.ShareSecret,
		oldIDs[1]:    after[oldIDs[1]].output.ShareSecret,
	}
	// t=2 only requires two shares; take the new joiner plus one old member
	// to directly exercise "new participant's share together with ... an
	// old member's share reconstructs pk", then cross-check a second pair.
	pair1 := map[party.ID]curve.Scalar{party.ID(6): subset[party.ID(6)], oldIDs[0]: subset[oldIDs[0]]}
	pair2 := map[party.ID]curve.Scalar{party.ID(6): subset[party.ID(6)], oldIDs[1]: subset[oldIDs[1]]}

	assert.True(t, polynomial.Reconstruct(group, pair1).ActOnBase().Equal(oldPK))
	assert.True(t, polynomial.Reconstruct(group, pair2).ActOnBase().Equal(oldPK))
}
