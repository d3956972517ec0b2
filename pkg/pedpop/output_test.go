package pedpop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/pedpop/internal/testutil"
	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/pedpop"
	"github.com/luxfi/pedpop/pkg/policy"
)

func sampleOutput(t *testing.T, group curve.Curve) *pedpop.KeygenOutput {
	t.Helper()
	sk := group.RandomNonZeroScalar(nil)
	return &pedpop.KeygenOutput{
		Group:        group,
		Participants: testutil.PartyIDs(4),
		Parameters:   policy.Parameters{N: 4, F: 1, T: 2},
		ShareSecret:  sk,
		PublicKey:    sk.ActOnBase(),
	}
}

func TestKeygenOutputRoundTrip(t *testing.T) {
	for _, group := range []curve.Curve{curve.Secp256k1{}, curve.Curve25519{}, curve.BLS12381G2{}} {
		t.Run(group.Name(), func(t *testing.T) {
			want := sampleOutput(t, group)
			encoded, err := want.MarshalBinary()
			require.NoError(t, err)

			var got pedpop.KeygenOutput
			require.NoError(t, got.UnmarshalBinary(encoded))

			assert.Equal(t, want.Participants, got.Participants)
			assert.Equal(t, want.Parameters, got.Parameters)
			assert.True(t, want.PublicKey.Equal(got.PublicKey))
			assert.True(t, want.ShareSecret.Equal(got.ShareSecret))
		})
	}
}

func TestKeygenOutputRejectsMutation(t *testing.T) {
	group := curve.Secp256k1{}
	want := sampleOutput(t, group)
	encoded, err := want.MarshalBinary()
	require.NoError(t, err)

	for i := range encoded {
		mutated := append([]byte(nil), encoded...)
		mutated[i] ^= 0xFF
		var got pedpop.KeygenOutput
		err := got.UnmarshalBinary(mutated)
		if err == nil {
			// A flipped byte inside a participant id or a threshold
			// parameter can still decode to *some* valid-looking value;
			// what must never happen is a silent round trip to the same
			// bytes.
			reencoded, reErr := got.MarshalBinary()
			require.NoError(t, reErr)
			assert.NotEqual(t, encoded, reencoded, "byte %d: mutation decoded to the original value", i)
		}
	}
}
