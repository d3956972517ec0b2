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
	"github.com/luxfi/pedpop/pkg/policy"
)

type keygenResult struct {
	id     party.ID
	output *pedpop.KeygenOutput
	err    error
}

// runKeygen drives one fresh keygen across every id in ids concurrently on
// a shared bus, the way N independent participant tasks would (spec
// section 5: "each participant's state machine is a single task").
func runKeygen(t *testing.T, group curve.Curve, ids party.IDSlice, tt uint32) map[party.ID]keygenResult {
	t.Helper()
	bus := round.NewBus(ids)
	results := make(chan keygenResult, len(ids))
	for _, id := range ids {
		id := id
		go func() {
			out, err := pedpop.Keygen(context.Background(), bus, group, ids, id, tt, nil)
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

// Scenario 1 (spec section 8): N=4, f=1, t=2, Secp256k1 — successful fresh
// keygen; 2-of-4 Lagrange reconstruction of sk matches pk.
func TestKeygenSecp256k1FreshAndReconstructs(t *testing.T) {
	group := curve.Secp256k1{}
	ids := testutil.PartyIDs(4)
	results := runKeygen(t, group, ids, 2)

	var pk curve.Point
	shares := make(map[party.ID]curve.Scalar, len(ids))
	for _, id := range ids {
		r := results[id]
		require.NoError(t, r.err)
		require.NotNil(t, r.output)
		if pk == nil {
			pk = r.output.PublicKey
		} else {
			assert.True(t, pk.Equal(r.output.PublicKey), "agreement on pk: participant %s disagrees", id)
		}
		shares[id] = r.output.ShareSecret
	}

	subset := map[party.ID]curve.Scalar{ids[0]: shares[ids[0]], ids[2]: shares[ids[2]]}
	reconstructed := polynomial.Reconstruct(group, subset)
	assert.True(t, reconstructed.ActOnBase().Equal(pk), "2-of-4 reconstruction must match pk")
}

// Scenario 6 (spec section 8): N=4, f=2 violates f <= floor((N-1)/3) = 1;
// keygen must abort at the round-1 guard with ParameterError and send no
// messages.
func TestKeygenRejectsInvalidThreshold(t *testing.T) {
	group := curve.Secp256k1{}
	ids := testutil.PartyIDs(4)
	bus := round.NewBus(ids)

	// f=2 implies t=f+1=3, which the caller must still request explicitly;
	// the guard rejects it before any message is sent.
	out, err := pedpop.Keygen(context.Background(), bus, group, ids, ids[0], 3, nil)
	require.Nil(t, out)
	require.Error(t, err)
	assert.IsType(t, &policy.ParameterError{}, err)
}

// Keygen must reject a duplicate participant id before sending any
// message, the same way Refresh and Reshare reject policy violations at
// entry (spec section 4.6).
func TestKeygenRejectsDuplicateParticipant(t *testing.T) {
	group := curve.Secp256k1{}
	ids := party.IDSlice{1, 2, 3, 3}
	bus := round.NewBus(ids)

	out, err := pedpop.Keygen(context.Background(), bus, group, ids, ids[0], 2, nil)
	require.Nil(t, out)
	require.Error(t, err)
	assert.IsType(t, &policy.ParameterError{}, err)
}

func TestKeygenAgreesAcrossCurves(t *testing.T) {
	for _, group := range []curve.Curve{curve.Secp256k1{}, curve.Curve25519{}, curve.BLS12381G2{}} {
		t.Run(group.Name(), func(t *testing.T) {
			ids := testutil.PartyIDs(4)
			results := runKeygen(t, group, ids, 2)
			var pk curve.Point
			for _, id := range ids {
				r := results[id]
				require.NoError(t, r.err)
				if pk == nil {
					pk = r.output.PublicKey
					continue
				}
				assert.True(t, pk.Equal(r.output.PublicKey))
			}
		})
	}
}
