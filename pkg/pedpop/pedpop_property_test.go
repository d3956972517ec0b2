package pedpop_test

import (
	"context"
	"testing/quick"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/pedpop/internal/round"
	"github.com/luxfi/pedpop/internal/testutil"
	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/math/polynomial"
	"github.com/luxfi/pedpop/pkg/party"
	"github.com/luxfi/pedpop/pkg/pedpop"
)

// runKeygenForProperty mirrors runKeygen's goroutine fan-out (keygen_test.go)
// without the *testing.T dependency, since Ginkgo's quick.Check properties
// run outside a *testing.T context.
func runKeygenForProperty(group curve.Curve, ids party.IDSlice, tt uint32) map[party.ID]keygenResult {
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

var _ = Describe("PedPop+ threshold property", func() {
	var group curve.Curve

	BeforeEach(func() {
		group = curve.Secp256k1{}
	})

	It("reconstructs pk from any T honest shares for any valid (N, T)", func() {
		property := func(nRaw, tRaw uint8) bool {
			n := int(nRaw%7) + 4 // n in [4, 10]
			maxF := (n - 1) / 3
			if maxF < 1 {
				return true
			}
			t := int(tRaw%uint8(maxF)) + 2 // t in [2, maxF+1]

			ids := testutil.PartyIDs(n)
			results := runKeygenForProperty(group, ids, uint32(t))

			var pk curve.Point
			shares := make(map[party.ID]curve.Scalar, n)
			for _, id := range ids {
				r := results[id]
				if r.err != nil {
					return false
				}
				if pk == nil {
					pk = r.output.PublicKey
				} else if !pk.Equal(r.output.PublicKey) {
					return false
				}
				shares[id] = r.output.ShareSecret
			}

			subset := make(map[party.ID]curve.Scalar, t)
			for _, id := range ids[:t] {
				subset[id] = shares[id]
			}
			reconstructed := polynomial.Reconstruct(group, subset)
			return reconstructed.ActOnBase().Equal(pk)
		}

		Expect(quick.Check(property, &quick.Config{MaxCount: 12})).To(Succeed())
	})

	It("reconstructs pk from any T public share-points without seeing any sk_i", func() {
		ids := testutil.PartyIDs(5)
		results := runKeygenForProperty(group, ids, 2)

		pk := results[ids[0]].output.PublicKey
		points := make(map[party.ID]curve.Point, 2)
		for _, id := range ids[:2] {
			r := results[id]
			Expect(r.err).NotTo(HaveOccurred())
			points[id] = r.output.ShareSecret.ActOnBase()
		}

		reconstructed := polynomial.ReconstructPoint(group, points)
		Expect(reconstructed.Equal(pk)).To(BeTrue())
	})

	It("rejects a reshare whose old/new overlap is below the prior threshold", func() {
		ids := testutil.PartyIDs(5)
		before := runKeygenForProperty(group, ids, 2)
		oldPK := before[ids[0]].output.PublicKey

		// Replace every old signer, leaving zero overlap with a t=2 prior.
		// Four members keep the new (N=4, t=2) parameters themselves valid, so
		// the overlap check is what rejects the call.
		disjoint := party.IDSlice{party.ID(200), party.ID(201), party.ID(202), party.ID(203)}
		bus := round.NewBus(disjoint)
		_, err := pedpop.Reshare(context.Background(), bus, group, ids, 2, oldPK, nil, disjoint, disjoint[0], 2, nil)
		Expect(err).To(HaveOccurred())
	})
})
