// Package policy implements the threshold-policy checks of spec section
// 4.6: at every protocol entry the supplied (N, f, t) and participant set
// are compared against whatever a prior KeygenOutput persisted, before a
// single message is sent. It depends only on pkg/party so that pkg/pedpop
// (which owns KeygenOutput) can depend on policy without a cycle.
package policy

import (
	"fmt"

	"github.com/luxfi/pedpop/pkg/party"
)

// Parameters is the (N, f, t) triple persisted inside every KeygenOutput
// and compared bitwise on every subsequent protocol entry.
type Parameters struct {
	N uint32
	F uint32
	T uint32
}

// Validate checks the three invariants of spec section 3: 1 < t <= N,
// t = f+1, f <= floor((N-1)/3).
func (p Parameters) Validate() error {
	if p.T <= 1 || p.T > p.N {
		return &ParameterError{Reason: fmt.Sprintf("t=%d must satisfy 1 < t <= N=%d", p.T, p.N)}
	}
	if p.T != p.F+1 {
		return &ParameterError{Reason: fmt.Sprintf("t=%d must equal f+1=%d", p.T, p.F+1)}
	}
	if p.N == 0 || p.F > (p.N-1)/3 {
		return &ParameterError{Reason: fmt.Sprintf("f=%d must satisfy f <= floor((N-1)/3) = %d", p.F, (p.N-1)/3)}
	}
	return nil
}

// Prior is the subset of a persisted KeygenOutput that policy checks
// against: the parameters and participant set it was produced under.
type Prior struct {
	Parameters   Parameters
	Participants party.IDSlice
}

// CheckKeygen validates a fresh keygen entry: parameters must be internally
// valid and the participant set duplicate-free and non-empty.
func CheckKeygen(params Parameters, participants party.IDSlice) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return checkParticipantSet(participants, int(params.N))
}

// CheckRefresh validates a refresh entry: spec section 4.6 requires
// pointwise equality of participants and parameters with the prior output.
func CheckRefresh(params Parameters, participants party.IDSlice, prior Prior) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := checkParticipantSet(participants, int(params.N)); err != nil {
		return err
	}
	if params != prior.Parameters {
		return &ThresholdPolicyViolation{Reason: "refresh requires identical (N,f,t) to the prior output"}
	}
	if !sameMembers(participants, prior.Participants) {
		return &ThresholdPolicyViolation{Reason: "refresh requires an identical participant set to the prior output"}
	}
	return nil
}

// CheckReshare validates a reshare entry: the participant set may change,
// but the overlap with the old set must be at least the old threshold
// (spec section 4.7's pre-round guard, enforced here as well since it is
// also a policy-level precondition per section 4.6).
func CheckReshare(params Parameters, participants party.IDSlice, prior Prior) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := checkParticipantSet(participants, int(params.N)); err != nil {
		return err
	}
	oldSet := party.NewSet(prior.Participants...)
	newSet := party.NewSet(participants...)
	overlap := oldSet.Intersect(newSet)
	if len(overlap) < int(prior.Parameters.T) {
		return &ThresholdPolicyViolation{
			Reason: fmt.Sprintf("reshare requires |old ∩ new| >= old_t=%d, got %d", prior.Parameters.T, len(overlap)),
		}
	}
	return nil
}

func checkParticipantSet(participants party.IDSlice, wantN int) error {
	if len(participants) == 0 {
		return &ParameterError{Reason: "participant set must not be empty"}
	}
	if wantN != 0 && len(participants) != wantN {
		return &ParameterError{Reason: fmt.Sprintf("participant set has %d members, want N=%d", len(participants), wantN)}
	}
	seen := make(map[party.ID]bool, len(participants))
	for _, id := range participants {
		if seen[id] {
			return &ParameterError{Reason: fmt.Sprintf("duplicate participant %s", id)}
		}
		seen[id] = true
	}
	return nil
}

func sameMembers(a, b party.IDSlice) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := a.Sorted(), b.Sorted()
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
