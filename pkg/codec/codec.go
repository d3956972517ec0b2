// Package codec implements the tagged, self-describing binary envelope
// that every PedPop+ wire message is encoded in (spec section 4.2 and 6),
// using github.com/fxamacker/cbor/v2 for the payload body — the same
// encoding the teacher uses for round messages (pkg/protocol/handler.go's
// cbor.Marshal(roundMsg.Content) call sites).
package codec

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/pedpop/pkg/party"
)

// Envelope carries everything a wire message needs per spec section 6:
// protocol-instance-id, round-id, sub-id, sender, and a CBOR-encoded
// payload.
type Envelope struct {
	Protocol [16]byte `cbor:"1,keyasint"`
	Round    uint8    `cbor:"2,keyasint"`
	Sub      uint8    `cbor:"3,keyasint"`
	Sender   party.ID `cbor:"4,keyasint"`
	Payload  []byte   `cbor:"5,keyasint"`
}

// Marshal encodes v as a CBOR payload and wraps it in an Envelope.
func Marshal(protocol [16]byte, round, sub uint8, sender party.ID, v interface{}) (*Envelope, error) {
	payload, err := cbor.Marshal(v)
	if err != nil {
		return nil, &Error{Reason: err}
	}
	return &Envelope{Protocol: protocol, Round: round, Sub: sub, Sender: sender, Payload: payload}, nil
}

// Unmarshal decodes an Envelope's payload into v.
func (e *Envelope) Unmarshal(v interface{}) error {
	if err := cbor.Unmarshal(e.Payload, v); err != nil {
		return &Error{Reason: err}
	}
	return nil
}

// Bytes serialises the whole envelope for transport.
func (e *Envelope) Bytes() ([]byte, error) {
	b, err := cbor.Marshal(e)
	if err != nil {
		return nil, &Error{Reason: err}
	}
	return b, nil
}

// Decode parses a whole envelope from transport bytes.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, &Error{Reason: err}
	}
	return &e, nil
}

// Error wraps a codec failure. Decoding failure is non-recoverable for the
// round: per spec section 4.2, the receiving participant marks the sender
// as misbehaving and aborts rather than retrying.
type Error struct {
	Reason error
}

func (e *Error) Error() string { return "codec: " + e.Reason.Error() }
func (e *Error) Unwrap() error { return e.Reason }
