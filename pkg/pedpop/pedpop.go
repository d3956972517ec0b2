package pedpop

import (
	"context"
	"crypto/rand"
	"io"

	"github.com/luxfi/pedpop/internal/round"
	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/party"
	"github.com/luxfi/pedpop/pkg/policy"
)

// Keygen runs a fresh PedPop+ distributed key generation. Every
// participant in participants must call Keygen concurrently against the
// same bus with its own me; the call returns only once this participant's
// KeygenOutput is ready or the run aborts.
func Keygen(ctx context.Context, bus *round.Bus, group curve.Curve, participants party.IDSlice, me party.ID, t uint32, rng io.Reader) (*KeygenOutput, error) {
	if rng == nil {
		rng = rand.Reader
	}
	if err := policy.CheckKeygen(policy.Parameters{N: uint32(len(participants)), F: t - 1, T: t}, participants); err != nil {
		return nil, err
	}
	return run(ctx, bus, params{
		group:        group,
		me:           me,
		participants: participants,
		t:            t,
		rng:          rng,
	})
}

// Refresh re-randomises every holder's share while preserving pk, N, f,
// and t (spec section 4.6: refresh requires pointwise equality of
// participants and parameters with prior). Every member of
// prior.Participants must call Refresh concurrently.
func Refresh(ctx context.Context, bus *round.Bus, prior *KeygenOutput, me party.ID, rng io.Reader) (*KeygenOutput, error) {
	if rng == nil {
		rng = rand.Reader
	}
	if !party.NewSet(prior.Participants...).Contains(me) {
		return nil, &policy.ParameterError{Reason: "refresh caller must be a member of the prior participant set"}
	}
	if err := policy.CheckRefresh(prior.Parameters, prior.Participants, policy.Prior{
		Parameters:   prior.Parameters,
		Participants: prior.Participants,
	}); err != nil {
		return nil, err
	}
	return run(ctx, bus, params{
		group:        prior.Group,
		me:           me,
		participants: prior.Participants,
		t:            prior.Parameters.T,
		rng:          rng,
		isReshare:    true,
		oldSigners:   prior.Participants,
		oldT:         prior.Parameters.T,
		oldPK:        prior.PublicKey,
		priorShare:   prior.ShareSecret,
	})
}

// Reshare transitions a key from oldParticipants/oldT to newParticipants/
// newT while preserving pk (spec section 4.6 and 4.7). prior is the
// caller's own prior KeygenOutput if it was a member of oldParticipants,
// or nil if the caller is joining fresh; in the latter case oldPK and
// oldParticipants/oldT must still be supplied out of band so every
// participant — old and new — enforces the same policy checks.
func Reshare(ctx context.Context, bus *round.Bus, group curve.Curve, oldParticipants party.IDSlice, oldT uint32, oldPK curve.Point, prior *KeygenOutput, newParticipants party.IDSlice, me party.ID, newT uint32, rng io.Reader) (*KeygenOutput, error) {
	if rng == nil {
		rng = rand.Reader
	}
	oldN := uint32(len(oldParticipants))
	oldParams := policy.Parameters{N: oldN, F: oldT - 1, T: oldT}
	newN := uint32(len(newParticipants))
	newParams := policy.Parameters{N: newN, F: newT - 1, T: newT}
	if err := policy.CheckReshare(newParams, newParticipants, policy.Prior{
		Parameters:   oldParams,
		Participants: oldParticipants,
	}); err != nil {
		return nil, err
	}
	if prior != nil {
		if prior.Group.Name() != group.Name() {
			return nil, &policy.ParameterError{Reason: "prior output was produced over a different group"}
		}
		if !prior.PublicKey.Equal(oldPK) {
			return nil, &policy.ParameterError{Reason: "prior output's public key does not match the supplied oldPK"}
		}
	}

	var priorShare curve.Scalar
	if prior != nil {
		priorShare = prior.ShareSecret
	}
	return run(ctx, bus, params{
		group:        group,
		me:           me,
		participants: newParticipants,
		t:            newT,
		rng:          rng,
		isReshare:    true,
		oldSigners:   oldParticipants,
		oldT:         oldT,
		oldPK:        oldPK,
		priorShare:   priorShare,
	})
}
