// Package hash implements the three domain-separated transcript hashes
// PedPop+ depends on (spec section 2.3): H1 binds every participant's
// session-seed into one session id, H2 pre-commits to a polynomial
// commitment, and H3 derives the Schnorr challenge. Domain separation uses
// github.com/zeebo/blake3's key-derivation mode, the teacher's hash
// primitive (go.mod requires zeebo/blake3).
package hash

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/luxfi/pedpop/pkg/math/curve"
	"github.com/luxfi/pedpop/pkg/party"
)

const (
	domainSessionID  = "pedpop+ v1 session id (H1)"
	domainCommitment = "pedpop+ v1 commitment hash (H2)"
	domainChallenge  = "pedpop+ v1 schnorr challenge (H3)"
)

// SessionID computes sid = H1(id_1 || sid_1 || ... || id_N || sid_N) over
// the participants' round-1 seeds, each prefixed with its 4-byte
// big-endian participant id and absorbed in canonical (ascending
// identifier) order — the load-bearing tie-breaker of spec section 4.7.
func SessionID(ordered []party.ID, seeds map[party.ID][32]byte) [32]byte {
	h := blake3.NewDeriveKey(domainSessionID)
	for _, id := range ordered {
		writeID(h, id)
		seed := seeds[id]
		h.Write(seed[:])
	}
	return sum32(h)
}

// CommitmentHash computes h_i = H2(i, C_i, sid), the round-2 pre-commitment
// to the round-3 reveal of the polynomial commitment.
func CommitmentHash(id party.ID, commitment []byte, sid [32]byte) [32]byte {
	h := blake3.NewDeriveKey(domainCommitment)
	writeID(h, id)
	h.Write(commitment)
	h.Write(sid[:])
	return sum32(h)
}

// SchnorrChallenge computes c = H3(sid, i, C(0), R), reduced into the
// scalar field of group.
func SchnorrChallenge(group curve.Curve, sid [32]byte, id party.ID, constant, r curve.Point) (curve.Scalar, error) {
	h := blake3.NewDeriveKey(domainChallenge)
	h.Write(sid[:])
	writeID(h, id)

	cBytes, err := constant.MarshalBinary()
	if err != nil {
		return nil, err
	}
	rBytes, err := r.MarshalBinary()
	if err != nil {
		return nil, err
	}
	h.Write(cBytes)
	h.Write(rBytes)

	digest := sum32(h)
	return group.ScalarFromHash(digest[:]), nil
}

func writeID(h *blake3.Hasher, id party.ID) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	h.Write(buf[:])
}

func sum32(h *blake3.Hasher) [32]byte {
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
