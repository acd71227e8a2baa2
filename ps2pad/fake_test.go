package ps2pad

import "errors"

var errBus = errors.New("bus fault")

// fakeBus plays the pad side of the wire. reply holds logical (not yet bit
// reversed) bytes; sent records what arrived on the wire.
type fakeBus struct {
	reply []byte
	sent  []byte

	pos      int
	selected bool
	selects  []bool
	frames   int

	// failAt is the byte position that fails, -1 for none.
	failAt     int
	failAssert bool
	// notSelErr is set when a byte moved with select released.
	notSelErr  bool
}

func newFakeBus(reply ...byte) *fakeBus {
	return &fakeBus{reply: reply, failAt: -1}
}

func (b *fakeBus) TransferByte(out byte) (byte, error) {
	if !b.selected {
		b.notSelErr = true
	}
	if b.pos == b.failAt {
		return 0, errBus
	}
	b.sent = append(b.sent, out)
	var in byte = 0xFF
	if b.pos < len(b.reply) {
		in = b.reply[b.pos]
	}
	b.pos++
	return ReverseBits(in), nil
}

func (b *fakeBus) SetSelect(active bool) error {
	b.selects = append(b.selects, active)
	if active && b.failAssert {
		return errBus
	}
	if active {
		b.pos = 0
		b.frames++
	}
	b.selected = active
	return nil
}

// padReply builds a 9-byte reply with the given marker and payload.
func padReply(marker byte, payload ...byte) []byte {
	r := []byte{0xFF, 0x73, marker}
	r = append(r, payload...)
	for len(r) < frameLen {
		r = append(r, 0xFF)
	}
	return r
}
