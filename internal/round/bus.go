package round

import (
	"crypto/rand"
	"sync"

	"github.com/luxfi/pedpop/pkg/codec"
	"github.com/luxfi/pedpop/pkg/party"
)

// Bus fans out SendMany/SendPrivate calls to the registered participant
// Channels of one protocol instance. It stands in for the authenticated,
// confidential transport spec section 4.4 assumes ("the underlying
// transport is assumed authenticated and confidential"); no encryption or
// network I/O happens here, since the real transport is an explicit
// non-goal of this core (spec section 1).
//
// A Bus is scoped to exactly one protocol instance: two concurrent
// instances on the same participants must use two different Buses, so
// that messaging state is never shared between them (spec section 4.4).
type Bus struct {
	mu       sync.RWMutex
	channels map[party.ID]*Channel
	tamper   TamperFunc

	// instanceTag scopes every codec.Envelope this Bus carries to this one
	// protocol instance, so two instances running concurrently (even with
	// the same participant IDs) never share a wire-format identity.
	instanceTag [16]byte
}

// TamperFunc rewrites or drops one (sender, recipient) delivery before it
// reaches the recipient's inbox. For a broadcast send it is called once
// per recipient, so it can return a different payload to different
// recipients — simulating an equivocating echo-broadcast sender. Return
// ok=false to drop the message entirely.
type TamperFunc func(from, to party.ID, r Number, sub Sub, payload []byte) (rewritten []byte, ok bool)

// NewBus creates a Bus with a Channel pre-registered for every id in
// participants, built synchronously before any participant goroutine
// starts. This matters: if Channels were instead created lazily as each
// participant called Join, one participant's SendMany could race ahead of
// a slower participant's Join and silently miss them (the broadcast
// fan-out in deliver only reaches currently-registered Channels), hanging
// that participant forever waiting for a message it was never sent.
// Pre-registration makes that race impossible.
func NewBus(participants party.IDSlice) *Bus {
	b := &Bus{channels: make(map[party.ID]*Channel, len(participants))}
	_, _ = rand.Read(b.instanceTag[:])
	for _, id := range participants {
		b.channels[id] = newChannel(id, b)
	}
	return b
}

// Join returns self's Channel, registering one on the fly if self was not
// named in NewBus's participant set. Every normal caller is pre-registered,
// so this is a defensive fallback, not the common path.
func (b *Bus) Join(self party.ID) *Channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.channels[self]; ok {
		return c
	}
	c := newChannel(self, b)
	b.channels[self] = c
	return c
}

// SetTamper installs fn as this Bus's fault-injection hook. It exists
// solely so tests can simulate a byzantine participant (an equivocating
// broadcast sender, a malformed point-to-point share); production callers
// never set one, and the zero value delivers every message unmodified.
func (b *Bus) SetTamper(fn TamperFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tamper = fn
}

// deliver unwraps the codec.Envelope a Channel wire-encoded msg.payload
// into, applies the fault-injection hook (if any) to the inner application
// payload, and re-wraps the result into a fresh envelope addressed to each
// recipient — so TamperFunc always operates on the PedPop+ round payload
// itself, never on envelope framing.
func (b *Bus) deliver(msg message) {
	env, err := codec.Decode(msg.payload)
	if err != nil {
		return
	}
	var inner []byte
	if err := env.Unmarshal(&inner); err != nil {
		return
	}

	b.mu.RLock()
	tamper := b.tamper
	tag := b.instanceTag
	if msg.broadcast {
		recipients := make([]*Channel, 0, len(b.channels))
		ids := make([]party.ID, 0, len(b.channels))
		for id, c := range b.channels {
			if id == msg.from {
				continue
			}
			recipients = append(recipients, c)
			ids = append(ids, id)
		}
		b.mu.RUnlock()
		for i, c := range recipients {
			payload := inner
			if tamper != nil {
				rewritten, ok := tamper(msg.from, ids[i], msg.round, msg.sub, inner)
				if !ok {
					continue
				}
				payload = rewritten
			}
			wire, err := encodeEnvelope(tag, msg, payload)
			if err != nil {
				continue
			}
			out := msg
			out.payload = wire
			c.inbox <- out
		}
		return
	}
	c, ok := b.channels[msg.to]
	b.mu.RUnlock()
	if !ok {
		return
	}
	payload := inner
	if tamper != nil {
		rewritten, sendOK := tamper(msg.from, msg.to, msg.round, msg.sub, inner)
		if !sendOK {
			return
		}
		payload = rewritten
	}
	wire, err := encodeEnvelope(tag, msg, payload)
	if err != nil {
		return
	}
	out := msg
	out.payload = wire
	c.inbox <- out
}

func encodeEnvelope(tag [16]byte, msg message, payload []byte) ([]byte, error) {
	env, err := codec.Marshal(tag, uint8(msg.round), uint8(msg.sub), msg.from, payload)
	if err != nil {
		return nil, err
	}
	return env.Bytes()
}
