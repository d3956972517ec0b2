package pedpop

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/party"
	"github.com/luxfi/pedpop/pkg/policy"
)

// wireVersion is bumped on any incompatible change to KeygenOutput's
// binary encoding; decoders reject unknown versions.
const wireVersion = 1

// KeygenOutput is the atomic result of a keygen, reshare, or refresh run:
// the holder's scalar share, the group public key, the participant set it
// was produced under, and the threshold parameters. Immutable after
// creation; Zeroize replaces the secret share with zero and is not called
// by anything in this package.
type KeygenOutput struct {
	Group        curve.Curve
	Participants party.IDSlice
	Parameters   policy.Parameters
	ShareSecret  curve.Scalar
	PublicKey    curve.Point
}

// Zeroize overwrites the holder's secret share. It does not affect
// PublicKey or Participants, which are not secret.
func (o *KeygenOutput) Zeroize() {
	if o.ShareSecret != nil {
		o.ShareSecret = o.Group.NewScalar()
	}
}

var (
	errShortBuffer   = errors.New("pedpop: truncated KeygenOutput encoding")
	errUnknownGroup  = errors.New("pedpop: unknown group tag in KeygenOutput encoding")
	errTrailingBytes = errors.New("pedpop: trailing bytes after KeygenOutput encoding")
)

// MarshalBinary implements the canonical encoding of spec section 6:
// version (1) || group tag (1) || participant count (4, BE) ||
// participant ids ascending (4 each) || ThresholdParameters (12) ||
// sk_i (scalar length) || pk (compressed group length).
func (o *KeygenOutput) MarshalBinary() ([]byte, error) {
	ids := o.Participants.Sorted()

	skBytes, err := o.ShareSecret.MarshalBinary()
	if err != nil {
		return nil, err
	}
	pkBytes, err := o.PublicKey.MarshalBinary()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 2+4+len(ids)*4+12+len(skBytes)+len(pkBytes))
	out = append(out, wireVersion, curve.Tag(o.Group))

	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(ids)))
	out = append(out, countBuf[:]...)

	for _, id := range ids {
		var idBuf [4]byte
		binary.BigEndian.PutUint32(idBuf[:], uint32(id))
		out = append(out, idBuf[:]...)
	}

	var paramBuf [12]byte
	binary.BigEndian.PutUint32(paramBuf[0:4], o.Parameters.N)
	binary.BigEndian.PutUint32(paramBuf[4:8], o.Parameters.F)
	binary.BigEndian.PutUint32(paramBuf[8:12], o.Parameters.T)
	out = append(out, paramBuf[:]...)

	out = append(out, skBytes...)
	out = append(out, pkBytes...)
	return out, nil
}

// UnmarshalBinary is the inverse of MarshalBinary. It rejects unknown
// version tags, unknown group tags, and any truncated or over-long input.
func (o *KeygenOutput) UnmarshalBinary(data []byte) error {
	if len(data) < 2+4 {
		return errShortBuffer
	}
	version := data[0]
	if version != wireVersion {
		return errors.New("pedpop: unsupported KeygenOutput wire version")
	}
	group, ok := curve.FromTag(data[1])
	if !ok {
		return errUnknownGroup
	}
	data = data[2:]

	count := binary.BigEndian.Uint32(data[:4])
	data = data[4:]

	if uint64(len(data)) < uint64(count)*4+12 {
		return errShortBuffer
	}
	ids := make(party.IDSlice, count)
	for i := range ids {
		ids[i] = party.ID(binary.BigEndian.Uint32(data[i*4 : i*4+4]))
	}
	data = data[count*4:]

	params := policy.Parameters{
		N: binary.BigEndian.Uint32(data[0:4]),
		F: binary.BigEndian.Uint32(data[4:8]),
		T: binary.BigEndian.Uint32(data[8:12]),
	}
	data = data[12:]

	skLen := group.ScalarBytes()
	pkLen := group.PointBytes()
	if len(data) != skLen+pkLen {
		if len(data) < skLen+pkLen {
			return errShortBuffer
		}
		return errTrailingBytes
	}

	sk := group.NewScalar()
	if err := sk.UnmarshalBinary(data[:skLen]); err != nil {
		return err
	}
	pk := group.NewPoint()
	if err := pk.UnmarshalBinary(data[skLen:]); err != nil {
		return err
	}

	o.Group = group
	o.Participants = ids
	o.Parameters = params
	o.ShareSecret = sk
	o.PublicKey = pk
	return nil
}
