// Package round implements the messaging core of spec section 4.4: the
// round-based, single-threaded cooperative driver that every PedPop+
// participant task runs on, plus the in-memory Bus that stands in for the
// authenticated/confidential transport the spec assumes below this layer
// (the real TLS channel is an explicit non-goal; Bus only exists so the
// substrate can be exercised end-to-end in tests and the CLI demo).
//
// Adapted in spirit from the teacher's internal/round package (referenced,
// never vendored, by pkg/protocol/handler.go and every *_test.go round
// file under _examples/other_examples): a round.Session/round.Helper pair
// that owns one participant's state across a protocol run. Because spec
// section 4.4 describes a simpler coroutine-style substrate ("suspension
// is permitted only at receive()") rather than the teacher's
// synchronous-handler event loop, the driver below is rebuilt to match the
// spec's cooperative-task model while keeping the teacher's naming and
// the disjoint (sender, round, sub) tag convention of spec section 6.
package round

import (
	"github.com/luxfi/pedpop/pkg/party"
)

// Number identifies a round within one protocol instance. PedPop+ uses
// 1..5 for its main rounds and 6 for round 5.5's success acknowledgement.
type Number uint8

// Sub identifies a sub-round within a Number, disjoint from the outer
// protocol's own tags per the design note in spec section 9. The
// echo-broadcast channel (internal/broadcast) owns 0x00-0x02; a round that
// carries no nested broadcast uses SubDirect for its point-to-point
// traffic, which never collides with 0x00-0x02 because no PedPop+ round
// number carries both broadcast and point-to-point traffic at once.
type Sub uint8

const (
	SubBroadcastSend  Sub = 0x00
	SubBroadcastEcho  Sub = 0x01
	SubBroadcastReady Sub = 0x02
	SubDirect         Sub = 0x10
)

// Tag uniquely identifies one message slot within a protocol instance:
// (sender, round, sub). A second send_many under an already-used Tag is a
// detectable fault (spec section 4.5's tag-uniqueness rule). Receiver is
// left zero for send_many's tag; send_private additionally distinguishes
// by receiver, since a round legitimately contains one private message per
// other participant (round 2 step 8, round 4 step 14) and those must not
// collide with one another.
type Tag struct {
	Sender   party.ID
	Round    Number
	Sub      Sub
	Receiver party.ID
}

// Envelope is one message body plus its tag, as delivered to a Channel's
// Receive. The payload is opaque to the messaging core, which wraps it in a
// pkg/codec envelope only while it crosses the Bus; callers pick their own
// payload encoding (pkg/pedpop uses CBOR, internal/broadcast a fixed-width
// digest format).
type Envelope struct {
	From    party.ID
	Round   Number
	Sub     Sub
	Payload []byte
}

// message is the internal wire-level representation threaded through a
// Bus: it additionally carries routing information (recipient, or
// broadcast-to-all) that Envelope deliberately omits, since a receiver has
// no use for knowing who else a message was (or wasn't) addressed to.
type message struct {
	from      party.ID
	to        party.ID
	broadcast bool
	round     Number
	sub       Sub
	payload   []byte
}
