package pedpop_test

import (
	"context"
	"time"

	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/pedpop/internal/round"
	"github.com/luxfi/pedpop/internal/testutil"
	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/party"
	"github.com/luxfi/pedpop/pkg/pedpop"
)

// seedWire and shareWire mirror the private wire shapes of pkg/pedpop's
// round1Payload/round4Payload closely enough for cbor to decode/re-encode
// them identically; they exist only so these fault-injection tests can
// rewrite a specific field of a specific message without pkg/pedpop
// exporting its internal wire types.
type seedWire struct {
	Seed [32]byte `cbor:"1,keyasint"`
}

type shareWire struct {
	Share []byte `cbor:"1,keyasint"`
}

// Scenario 2 (spec section 8): N=7, f=2, Curve25519 — one participant
// echo-broadcasts a second, conflicting sid_i (simulated here as network
// equivocation: the bus delivers different bytes to different honest
// recipients under the same sender/round/sub tag); every participant,
// including the equivocator's own honestly-running task, aborts with
// BroadcastInconsistency{Sender = that id}.
func TestKeygenDetectsEquivocatingSessionSeed(t *testing.T) {
	group := curve.Curve25519{}
	ids := testutil.PartyIDs(7)
	byzantine := ids[0]
	splitVictims := map[party.ID]bool{ids[1]: true, ids[2]: true, ids[3]: true}

	bus := round.NewBus(ids)
	bus.SetTamper(func(from, to party.ID, r round.Number, sub round.Sub, payload []byte) ([]byte, bool) {
		if from != byzantine || r != 1 || sub != round.SubBroadcastSend || !splitVictims[to] {
			return payload, true
		}
		var m seedWire
		if err := cbor.Unmarshal(payload, &m); err != nil {
			return payload, true
		}
		m.Seed[0] ^= 0xFF // a different, still well-formed 32-byte seed
		rewritten, err := cbor.Marshal(m)
		if err != nil {
			return payload, true
		}
		return rewritten, true
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := make(chan keygenResult, len(ids))
	for _, id := range ids {
		id := id
		go func() {
			out, err := pedpop.Keygen(ctx, bus, group, ids, id, 3, nil)
			results <- keygenResult{id: id, output: out, err: err}
		}()
	}
	for range ids {
		r := <-results
		require.Error(t, r.err)
		var inc *pedpop.BroadcastInconsistency
		if assert.ErrorAs(t, r.err, &inc) {
			assert.Equal(t, byzantine, inc.Sender)
		}
	}
}

// Scenario 5 (spec section 8): N=4, f=1, t=2, Curve25519 — one participant
// sends an f_i(j) that does not satisfy the VSS check; P_j aborts at round
// 5 step 16 with ProofInvalid{Sender = that id}. The other participants,
// having received a valid share themselves, proceed to round 5.5 and hang
// waiting for the aborted participant's success broadcast — recovery from
// that hang is the caller's responsibility (spec section 4.4), exercised
// here via ctx's deadline.
func TestKeygenDetectsInvalidVSSShare(t *testing.T) {
	group := curve.Curve25519{}
	ids := testutil.PartyIDs(4)
	dealer := ids[0]
	victim := ids[1]

	bus := round.NewBus(ids)
	bus.SetTamper(func(from, to party.ID, r round.Number, sub round.Sub, payload []byte) ([]byte, bool) {
		if from != dealer || to != victim || r != 4 || sub != round.SubDirect {
			return payload, true
		}
		var m shareWire
		if err := cbor.Unmarshal(payload, &m); err != nil {
			return payload, true
		}
		if len(m.Share) > 0 {
			m.Share[0] ^= 0xFF
		}
		rewritten, err := cbor.Marshal(m)
		if err != nil {
			return payload, true
		}
		return rewritten, true
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := make(chan keygenResult, len(ids))
	for _, id := range ids {
		id := id
		go func() {
			out, err := pedpop.Keygen(ctx, bus, group, ids, id, 2, nil)
			results <- keygenResult{id: id, output: out, err: err}
		}()
	}
	got := make(map[party.ID]keygenResult, len(ids))
	for range ids {
		r := <-results
		got[r.id] = r
	}

	victimErr := got[victim].err
	require.Error(t, victimErr)
	var invalid *pedpop.ProofInvalid
	if assert.ErrorAs(t, victimErr, &invalid) {
		assert.Equal(t, dealer, invalid.Sender)
	}

	for _, id := range ids {
		if id == victim {
			continue
		}
		assert.ErrorIs(t, got[id].err, context.DeadlineExceeded,
			"bystanders must hang at the round 5.5 success broadcast until the caller's deadline, per spec section 4.4")
	}
}
