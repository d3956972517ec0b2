package pedpop

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/pedpop/pkg/party"
)

// round1Payload is round 1's echo-broadcast body: the participant's
// uniformly random session-id contribution (spec section 4.7 step 1-2).
type round1Payload struct {
	Seed [32]byte `cbor:"1,keyasint"`
}

// round2Payload is round 2's point-to-point body: the pre-commitment hash
// h_i sent to every other participant (step 8).
type round2Payload struct {
	Hash [32]byte `cbor:"1,keyasint"`
}

// round3Payload is round 3's echo-broadcast body: the revealed polynomial
// commitment and Schnorr proof (steps 9-10).
type round3Payload struct {
	Commitment []byte `cbor:"1,keyasint"`
	R          []byte `cbor:"2,keyasint"`
	S          []byte `cbor:"3,keyasint"`
}

// round4Payload is round 4's point-to-point body: the dealt share f_i(j)
// (step 14).
type round4Payload struct {
	Share []byte `cbor:"1,keyasint"`
}

// round5Payload is round 5.5's echo-broadcast body: a bare success marker
// (step 20).
type round5Payload struct {
	OK bool `cbor:"1,keyasint"`
}

func marshalCBOR(sender party.ID, v interface{}) ([]byte, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return nil, &CodecError{Sender: sender, Reason: err}
	}
	return b, nil
}

func unmarshalCBOR(sender party.ID, data []byte, v interface{}) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return &CodecError{Sender: sender, Reason: err}
	}
	return nil
}
