package pedpop

import (
	"fmt"

	"github.com/luxfi/pedpop/pkg/party"
)

// CodecError wraps a malformed incoming message (spec section 7): decoding
// failure is non-recoverable for the round, so the receiving participant
// marks the sender misbehaving and aborts.
type CodecError struct {
	Sender party.ID
	Reason error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("pedpop: codec error from participant %s: %v", e.Sender, e.Reason)
}
func (e *CodecError) Unwrap() error { return e.Reason }

// ProofInvalid is returned when a Schnorr proof-of-possession or a VSS
// share check fails (round 4 step 12, round 5 step 16).
type ProofInvalid struct {
	Sender party.ID
	Reason string
}

func (e *ProofInvalid) Error() string {
	return fmt.Sprintf("pedpop: invalid proof from participant %s: %s", e.Sender, e.Reason)
}

// BroadcastInconsistency is returned when the nested echo-broadcast
// channel could not deliver an agreed value for some sender — a
// duplicate tag or contradictory echo/ready values.
type BroadcastInconsistency struct {
	Sender party.ID
}

func (e *BroadcastInconsistency) Error() string {
	return fmt.Sprintf("pedpop: broadcast inconsistency, sender %s", e.Sender)
}

// PublicKeyMismatch is returned by the reshare round-5 check that the
// freshly computed pk equals the prior output's pk (spec section 4.7 step
// 19).
type PublicKeyMismatch struct{}

func (e *PublicKeyMismatch) Error() string {
	return "pedpop: reshare produced a public key different from the prior output"
}
