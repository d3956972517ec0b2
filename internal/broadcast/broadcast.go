// Package broadcast implements the echo-broadcast (reliable broadcast)
// channel of spec section 4.5: a three-sub-round protocol nested atop
// internal/round that promotes a many-cast into a broadcast with
// validity, no-duplication, no-creation, agreement and totality, provided
// f <= floor((N-1)/3).
//
// It is modelled as its own state machine with its own (sender, round,
// sub) tag space, disjoint from the outer PedPop+ protocol's direct
// point-to-point traffic, per the design note in spec section 9 ("Echo-
// broadcast as a nested protocol"). Since every PedPop+ round that uses
// broadcast at all uses it exclusively (rounds 1, 3, and 5.5 never also
// carry point-to-point traffic), one broadcast.Run call handles all N
// participants' simultaneous broadcasts for that round in three message
// exchanges total, rather than N independent three-sub-round runs.
package broadcast

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/luxfi/pedpop/internal/round"
	"github.com/luxfi/pedpop/pkg/party"
)

// Inconsistency is returned when no single value for a given sender
// gathers the required Ready quorum: a detected equivocation (the sender
// echo-broadcast conflicting values to different honest participants).
type Inconsistency struct {
	Sender party.ID
}

func (e *Inconsistency) Error() string {
	return fmt.Sprintf("broadcast: conflicting values observed for sender %s", e.Sender)
}

// ErrUnexpectedSub is returned when a message arrives tagged for this
// round but with a sub-id outside {Send, Echo, Ready}.
var ErrUnexpectedSub = errors.New("broadcast: message carries an unexpected sub-id")

type digest = [32]byte

// Run executes one round's worth of echo-broadcasts: every participant in
// parties simultaneously broadcasts myPayload (its own contribution) and
// receives every other participant's delivered value. n and f are the
// protocol's threshold parameters; callers must have already rejected
// f > floor((n-1)/3) (spec section 4.5's liveness precondition, enforced
// by PedPop+'s round-1 guard).
func Run(ctx context.Context, ch *round.Channel, parties party.IDSlice, r round.Number, n, f int, myPayload []byte) (map[party.ID][]byte, error) {
	me := ch.Self()

	// deferred holds messages Receive handed us for a later sub-phase of
	// this same round — Send/Echo/Ready all share round r, so a faster
	// participant's Echo can legitimately arrive while we are still
	// collecting Sends. recvSub re-delivers those once their phase comes
	// up instead of treating them as ErrUnexpectedSub.
	deferred := map[round.Sub][]round.Envelope{}
	recvSub := func(sub round.Sub) (round.Envelope, error) {
		if q := deferred[sub]; len(q) > 0 {
			env := q[0]
			deferred[sub] = q[1:]
			return env, nil
		}
		for {
			env, err := ch.Receive(ctx)
			if err != nil {
				return round.Envelope{}, err
			}
			if env.Sub == sub {
				return env, nil
			}
			if env.Sub != round.SubBroadcastSend && env.Sub != round.SubBroadcastEcho && env.Sub != round.SubBroadcastReady {
				return round.Envelope{}, ErrUnexpectedSub
			}
			deferred[env.Sub] = append(deferred[env.Sub], env)
		}
	}

	// --- Send ---
	if err := ch.SendMany(r, round.SubBroadcastSend, myPayload); err != nil {
		return nil, err
	}
	sent := map[party.ID][]byte{me: myPayload}
	for len(sent) < n {
		env, err := recvSub(round.SubBroadcastSend)
		if err != nil {
			return nil, err
		}
		if _, dup := sent[env.From]; dup {
			return nil, &Inconsistency{Sender: env.From}
		}
		sent[env.From] = env.Payload
	}

	// --- Echo ---
	echoMsg := encodeDigests(hashAll(sent))
	if err := ch.SendMany(r, round.SubBroadcastEcho, echoMsg); err != nil {
		return nil, err
	}
	echoCounts := make(map[party.ID]map[digest]int, n)
	recordDigests(echoCounts, hashAll(sent))
	seenEcho := map[party.ID]bool{me: true}
	for len(seenEcho) < n {
		env, err := recvSub(round.SubBroadcastEcho)
		if err != nil {
			return nil, err
		}
		if seenEcho[env.From] {
			return nil, &Inconsistency{Sender: env.From}
		}
		seenEcho[env.From] = true
		digests, err := decodeDigests(env.Payload)
		if err != nil {
			return nil, err
		}
		recordDigests(echoCounts, digests)
	}

	echoThreshold := (n + f) / 2 // "more than (N+F)/2" matching echoes
	ready := readyFrom(echoCounts, echoThreshold)

	// --- Ready ---
	readyMsg := encodeDigests(ready)
	if err := ch.SendMany(r, round.SubBroadcastReady, readyMsg); err != nil {
		return nil, err
	}
	readyCounts := make(map[party.ID]map[digest]int, n)
	recordDigests(readyCounts, ready)
	seenReady := map[party.ID]bool{me: true}
	for len(seenReady) < n {
		env, err := recvSub(round.SubBroadcastReady)
		if err != nil {
			return nil, err
		}
		if seenReady[env.From] {
			return nil, &Inconsistency{Sender: env.From}
		}
		seenReady[env.From] = true
		digests, err := decodeDigests(env.Payload)
		if err != nil {
			return nil, err
		}
		recordDigests(readyCounts, digests)
	}

	// --- Deliver ---
	delivered := make(map[party.ID][]byte, n)
	for _, sender := range parties {
		winner, count := bestDigest(readyCounts[sender])
		if count <= 2*f {
			return nil, &Inconsistency{Sender: sender}
		}
		payload, ok := sent[sender]
		if !ok || hashPayload(payload) != winner {
			// We delivered a value by quorum we never directly received
			// from the sender ourselves (possible under equivocation);
			// without the actual bytes we cannot produce the payload, so
			// this, too, is an inconsistency from our point of view.
			return nil, &Inconsistency{Sender: sender}
		}
		delivered[sender] = payload
	}
	return delivered, nil
}

func hashPayload(payload []byte) digest {
	h := blake3.NewDeriveKey("pedpop+ v1 echo-broadcast payload hash")
	h.Write(payload)
	var out digest
	copy(out[:], h.Sum(nil))
	return out
}

func hashAll(values map[party.ID][]byte) map[party.ID]digest {
	out := make(map[party.ID]digest, len(values))
	for id, payload := range values {
		out[id] = hashPayload(payload)
	}
	return out
}

func recordDigests(counts map[party.ID]map[digest]int, values map[party.ID]digest) {
	for id, d := range values {
		m, ok := counts[id]
		if !ok {
			m = make(map[digest]int)
			counts[id] = m
		}
		m[d]++
	}
}

func readyFrom(counts map[party.ID]map[digest]int, threshold int) map[party.ID]digest {
	out := make(map[party.ID]digest)
	for id, m := range counts {
		for d, c := range m {
			if c > threshold {
				out[id] = d
				break
			}
		}
	}
	return out
}

func bestDigest(m map[digest]int) (digest, int) {
	var best digest
	bestCount := 0
	for d, c := range m {
		if c > bestCount {
			best, bestCount = d, c
		}
	}
	return best, bestCount
}

// encodeDigests / decodeDigests implement a small fixed-width wire format
// for a map[party.ID]digest: count (4 bytes) followed by that many
// (party.ID (4 bytes) || digest (32 bytes)) records in ascending-ID
// order, matching the canonical-ordering tie-breaker used everywhere else
// in this module.
func encodeDigests(m map[party.ID]digest) []byte {
	ids := make(party.IDSlice, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Sort(ids)

	out := make([]byte, 4, 4+len(ids)*(4+32))
	binary.BigEndian.PutUint32(out, uint32(len(ids)))
	for _, id := range ids {
		var idBuf [4]byte
		binary.BigEndian.PutUint32(idBuf[:], uint32(id))
		out = append(out, idBuf[:]...)
		d := m[id]
		out = append(out, d[:]...)
	}
	return out
}

func decodeDigests(data []byte) (map[party.ID]digest, error) {
	if len(data) < 4 {
		return nil, errors.New("broadcast: malformed digest set")
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]
	const recordLen = 4 + 32
	if len(data) != int(n)*recordLen {
		return nil, errors.New("broadcast: malformed digest set")
	}
	out := make(map[party.ID]digest, n)
	for i := 0; i < int(n); i++ {
		rec := data[i*recordLen : (i+1)*recordLen]
		id := party.ID(binary.BigEndian.Uint32(rec[:4]))
		var d digest
		copy(d[:], rec[4:])
		out[id] = d
	}
	return out, nil
}
