package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/pedpop/internal/testutil"
	"github.com/luxfi/pedpop/pkg/party"
	"github.com/luxfi/pedpop/pkg/policy"
)

func TestParametersValidate(t *testing.T) {
	cases := []struct {
		name    string
		params  policy.Parameters
		wantErr bool
	}{
		{"valid 4-1-2", policy.Parameters{N: 4, F: 1, T: 2}, false},
		{"valid 7-2-3", policy.Parameters{N: 7, F: 2, T: 3}, false},
		{"t too small", policy.Parameters{N: 4, F: 1, T: 1}, true},
		{"t exceeds n", policy.Parameters{N: 4, F: 1, T: 5}, true},
		{"t not f+1", policy.Parameters{N: 4, F: 1, T: 3}, true},
		{"f over bound", policy.Parameters{N: 4, F: 2, T: 3}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckRefreshRequiresPointwiseEquality(t *testing.T) {
	ids := testutil.PartyIDs(4)
	params := policy.Parameters{N: 4, F: 1, T: 2}
	prior := policy.Prior{Parameters: params, Participants: ids}

	require.NoError(t, policy.CheckRefresh(params, ids, prior))

	differentIDs := testutil.PartyIDs(5)[1:]
	err := policy.CheckRefresh(params, differentIDs, prior)
	require.Error(t, err)
	assert.IsType(t, &policy.ThresholdPolicyViolation{}, err)
}

func TestCheckReshareRequiresOverlap(t *testing.T) {
	oldIDs := testutil.PartyIDs(5)
	prior := policy.Prior{Parameters: policy.Parameters{N: 5, F: 1, T: 2}, Participants: oldIDs}

	newIDs := testutil.PartyIDs(6)
	require.NoError(t, policy.CheckReshare(policy.Parameters{N: 6, F: 1, T: 2}, newIDs, prior))

	disjoint := party.IDSlice{100, 101, 102, 103} // shares no member with oldIDs (1..5)
	err := policy.CheckReshare(policy.Parameters{N: 4, F: 1, T: 2}, disjoint, prior)
	require.Error(t, err)
	assert.IsType(t, &policy.ThresholdPolicyViolation{}, err)
}

func TestCheckKeygenRejectsDuplicateParticipant(t *testing.T) {
	ids := append(testutil.PartyIDs(3), 1)
	err := policy.CheckKeygen(policy.Parameters{N: 4, F: 1, T: 2}, ids)
	require.Error(t, err)
	assert.IsType(t, &policy.ParameterError{}, err)
}
