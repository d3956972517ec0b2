// Package pedpop implements the PedPop+ distributed key generation,
// resharing, and refresh state machine of spec section 4.7: five rounds
// plus a round 5.5 success acknowledgement, operating identically over
// any curve.Curve and gated on an internal is-reshare flag rather than
// forked into three parallel implementations (the "overlay, not a fork"
// design note).
package pedpop

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/luxfi/pedpop/internal/broadcast"
	"github.com/luxfi/pedpop/internal/round"
	"github.com/luxfi/pedpop/pkg/hash"
	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/math/polynomial"
	"github.com/luxfi/pedpop/pkg/party"
	"github.com/luxfi/pedpop/pkg/policy"
	"github.com/luxfi/pedpop/pkg/math/sample"
	"github.com/luxfi/pedpop/pkg/pool"
)

// round numbers: 1-5 are PedPop+'s main rounds; 6 stands in for round 5.5,
// the success acknowledgement (spec section 4.7).
const roundSuccess round.Number = 6

// params fully describes one engine run: a fresh keygen has isReshare
// false and priorShare nil; a refresh or reshare sets isReshare true and
// supplies the old participant set, old threshold, and (for an existing
// holder) the old share. A participant joining fresh during a reshare
// passes priorShare == nil while still being a member of participants.
type params struct {
	group        curve.Curve
	me           party.ID
	participants party.IDSlice
	t            uint32
	rng          io.Reader

	isReshare  bool
	oldSigners party.IDSlice
	oldT       uint32
	oldPK      curve.Point
	priorShare curve.Scalar
}

// ErrUnexpectedMessage is returned when a message arrives tagged for the
// current round but with a round/sub combination the engine did not
// expect at that point in the protocol.
var ErrUnexpectedMessage = errors.New("pedpop: unexpected message for this round")

func run(ctx context.Context, bus *round.Bus, p params) (*KeygenOutput, error) {
	sorted := p.participants.Sorted()
	n := len(sorted)
	f := int(p.t) - 1

	entryParams := policy.Parameters{N: uint32(n), F: uint32(f), T: p.t}
	if err := entryParams.Validate(); err != nil {
		return nil, err
	}

	overlap := sorted
	if p.isReshare {
		oldSet := party.NewSet(p.oldSigners...)
		newSet := party.NewSet(sorted...)
		overlap = oldSet.Intersect(newSet)
		if len(overlap) < int(p.oldT) {
			return nil, &policy.ThresholdPolicyViolation{
				Reason: fmt.Sprintf("reshare requires |old ∩ new| >= old_t=%d, got %d", p.oldT, len(overlap)),
			}
		}
		meInOld := oldSet.Contains(p.me)
		if meInOld == (p.priorShare == nil) {
			return nil, &policy.ParameterError{
				Reason: "caller must hold the prior share iff it was a member of the old participant set",
			}
		}
	}

	ch := bus.Join(p.me)

	var poly *polynomial.Polynomial
	var k curve.Scalar
	shares := map[party.ID]curve.Scalar{}
	succeeded := false
	defer func() {
		if poly != nil {
			poly.Zeroize()
		}
		if succeeded {
			return
		}
		if k != nil {
			k = p.group.NewScalar()
		}
		for id := range shares {
			shares[id] = p.group.NewScalar()
		}
	}()

	// --- Round 1: session-id commitment ---
	seed, err := sample.SessionSeed(p.rng)
	if err != nil {
		return nil, err
	}
	seedPayload, err := marshalCBOR(p.me, round1Payload{Seed: seed})
	if err != nil {
		return nil, err
	}
	round1Raw, err := broadcast.Run(ctx, ch, sorted, 1, n, f, seedPayload)
	if err != nil {
		return nil, convertBroadcastErr(err)
	}
	seeds := make(map[party.ID][32]byte, n)
	for id, raw := range round1Raw {
		var m round1Payload
		if err := unmarshalCBOR(id, raw, &m); err != nil {
			return nil, err
		}
		seeds[id] = m.Seed
	}
	ch.AdvanceRound()

	// --- Round 2: polynomial sampling and proof ---
	sid := hash.SessionID(sorted, seeds)

	var constant curve.Scalar
	switch {
	case !p.isReshare:
		constant = nil // random constant term
	case p.priorShare != nil:
		lambda := party.NewSet(overlap...).Lagrange(p.group, p.me)
		constant = lambda.Clone().Mul(p.priorShare)
	default:
		constant = p.group.NewScalar() // new joiner: f_i(0) = 0
	}
	poly = polynomial.NewPolynomial(p.group, f, constant, p.rng)
	commitment := polynomial.NewPolynomialExponent(poly)
	commitmentBytes, err := commitment.Encode()
	if err != nil {
		return nil, err
	}
	hLocal := hash.CommitmentHash(p.me, commitmentBytes, sid)

	k = sample.NonZeroScalar(p.rng, p.group)
	R := k.ActOnBase()
	c, err := hash.SchnorrChallenge(p.group, sid, p.me, commitment.Constant(), R)
	if err != nil {
		return nil, err
	}
	s := k.Clone().Add(poly.Constant().Mul(c))

	h2Payload, err := marshalCBOR(p.me, round2Payload{Hash: hLocal})
	if err != nil {
		return nil, err
	}
	for _, other := range sorted {
		if other == p.me {
			continue
		}
		if err := ch.SendPrivate(other, 2, round.SubDirect, h2Payload); err != nil {
			return nil, err
		}
	}
	preCommits := map[party.ID][32]byte{p.me: hLocal}
	for len(preCommits) < n {
		env, err := ch.Receive(ctx)
		if err != nil {
			return nil, err
		}
		if env.Round != 2 || env.Sub != round.SubDirect {
			return nil, ErrUnexpectedMessage
		}
		var m round2Payload
		if err := unmarshalCBOR(env.From, env.Payload, &m); err != nil {
			return nil, err
		}
		if _, dup := preCommits[env.From]; dup {
			return nil, &ProofInvalid{Sender: env.From, Reason: "duplicate pre-commitment"}
		}
		preCommits[env.From] = m.Hash
	}
	ch.AdvanceRound()

	// --- Round 3: reveal commitment and proof ---
	rBytes, err := R.MarshalBinary()
	if err != nil {
		return nil, err
	}
	sBytes, err := s.MarshalBinary()
	if err != nil {
		return nil, err
	}
	round3Out := round3Payload{Commitment: commitmentBytes, R: rBytes, S: sBytes}
	round3Msg, err := marshalCBOR(p.me, round3Out)
	if err != nil {
		return nil, err
	}
	round3Raw, err := broadcast.Run(ctx, ch, sorted, 3, n, f, round3Msg)
	if err != nil {
		return nil, convertBroadcastErr(err)
	}

	commitments := make(map[party.ID]*polynomial.Exponent, n)
	rPoints := make(map[party.ID]curve.Point, n)
	sScalars := make(map[party.ID]curve.Scalar, n)
	for id, raw := range round3Raw {
		var m round3Payload
		if err := unmarshalCBOR(id, raw, &m); err != nil {
			return nil, err
		}
		com, err := polynomial.Decode(p.group, f, m.Commitment)
		if err != nil {
			return nil, &CodecError{Sender: id, Reason: err}
		}
		rp := p.group.NewPoint()
		if err := rp.UnmarshalBinary(m.R); err != nil {
			return nil, &CodecError{Sender: id, Reason: err}
		}
		sp := p.group.NewScalar()
		if err := sp.UnmarshalBinary(m.S); err != nil {
			return nil, &CodecError{Sender: id, Reason: err}
		}
		commitments[id] = com
		rPoints[id] = rp
		sScalars[id] = sp
	}
	ch.AdvanceRound()

	// --- Round 4: verify proofs and distribute shares ---
	verifyErr := pool.New(0).Parallelize(ctx, n, func(_ context.Context, idx int) error {
		j := sorted[idx]
		challenge, err := hash.SchnorrChallenge(p.group, sid, j, commitments[j].Constant(), rPoints[j])
		if err != nil {
			return err
		}
		lhs := sScalars[j].Clone().ActOnBase()
		rhsSubtrahend := challenge.Act(commitments[j].Constant())
		lhs = lhs.Add(rhsSubtrahend.Negate())
		if !lhs.Equal(rPoints[j]) {
			return &ProofInvalid{Sender: j, Reason: "schnorr proof-of-possession failed"}
		}
		encoded, err := commitments[j].Encode()
		if err != nil {
			return err
		}
		if hash.CommitmentHash(j, encoded, sid) != preCommits[j] {
			return &ProofInvalid{Sender: j, Reason: "round-3 reveal does not match round-2 pre-commitment"}
		}
		return nil
	})
	if verifyErr != nil {
		return nil, verifyErr
	}

	for _, other := range sorted {
		if other == p.me {
			continue
		}
		share := poly.EvaluateAt(other)
		shareBytes, err := share.MarshalBinary()
		if err != nil {
			return nil, err
		}
		payload, err := marshalCBOR(p.me, round4Payload{Share: shareBytes})
		if err != nil {
			return nil, err
		}
		if err := ch.SendPrivate(other, 4, round.SubDirect, payload); err != nil {
			return nil, err
		}
	}
	shares[p.me] = poly.EvaluateAt(p.me)
	for len(shares) < n {
		env, err := ch.Receive(ctx)
		if err != nil {
			return nil, err
		}
		if env.Round != 4 || env.Sub != round.SubDirect {
			return nil, ErrUnexpectedMessage
		}
		var m round4Payload
		if err := unmarshalCBOR(env.From, env.Payload, &m); err != nil {
			return nil, err
		}
		if _, dup := shares[env.From]; dup {
			return nil, &ProofInvalid{Sender: env.From, Reason: "duplicate share"}
		}
		share := p.group.NewScalar()
		if err := share.UnmarshalBinary(m.Share); err != nil {
			return nil, &CodecError{Sender: env.From, Reason: err}
		}
		shares[env.From] = share
	}
	ch.AdvanceRound()

	// --- Round 5: share verification and output ---
	for _, j := range sorted {
		expected := commitments[j].EvaluateAt(p.me)
		got := shares[j].ActOnBase()
		if !got.Equal(expected) {
			return nil, &ProofInvalid{Sender: j, Reason: "dealt share fails the VSS binding check"}
		}
	}

	skMe := p.group.NewScalar()
	for _, j := range sorted {
		skMe = skMe.Add(shares[j])
	}
	pk := p.group.NewPoint()
	for _, j := range sorted {
		pk = pk.Add(commitments[j].Constant())
	}
	if p.isReshare && p.oldPK != nil && !pk.Equal(p.oldPK) {
		return nil, &PublicKeyMismatch{}
	}

	ch.AdvanceRound()

	// --- Round 5.5: terminate on full success ---
	successMsg, err := marshalCBOR(p.me, round5Payload{OK: true})
	if err != nil {
		return nil, err
	}
	if _, err := broadcast.Run(ctx, ch, sorted, roundSuccess, n, f, successMsg); err != nil {
		return nil, convertBroadcastErr(err)
	}

	out := &KeygenOutput{
		Group:        p.group,
		Participants: sorted,
		Parameters:   entryParams,
		ShareSecret:  skMe,
		PublicKey:    pk,
	}
	succeeded = true
	return out, nil
}

func convertBroadcastErr(err error) error {
	var inc *broadcast.Inconsistency
	if errors.As(err, &inc) {
		return &BroadcastInconsistency{Sender: inc.Sender}
	}
	return err
}
