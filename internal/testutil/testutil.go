// Package testutil provides small helpers shared by this module's test
// suites: deterministic participant-id generation. Fault injection for
// tests is done through round.Bus.SetTamper, not through this package.
package testutil

import (
	"github.com/luxfi/pedpop/pkg/party"
)

// PartyIDs returns n distinct participant identifiers, 1..n, in ascending
// order.
func PartyIDs(n int) party.IDSlice {
	ids := make(party.IDSlice, n)
	for i := 0; i < n; i++ {
		ids[i] = party.ID(i + 1)
	}
	return ids
}
