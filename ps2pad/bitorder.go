// bitorder.go
//
// Bit-order conversion between the controller and the SPI bus.
//
// The PS2 pad shifts every byte out least-significant bit first, while the
// SPI primitive clocks most-significant bit first. Rather than asking the bus
// for LSB-first mode (not every SPI master supports it), each byte is mirrored
// before transmit and after receive.
//
package ps2pad

// reverseTable maps every byte value to its bit-mirrored value.
var reverseTable = buildReverseTable()

func buildReverseTable() [256]byte {
	var t [256]byte
	for i := range t {
		v := byte(i)
		var r byte
		for n := 0; n < 8; n++ {
			r = (r << 1) | (v & 0x01)
			v >>= 1
		}
		t[i] = r
	}
	return t
}

// ReverseBits returns b with its bits in reverse order (bit 7 becomes bit 0).
func ReverseBits(b byte) byte { return reverseTable[b] }

// ReverseBuffer returns a new slice holding the bit-reversed bytes of b,
// in the same order.
func ReverseBuffer(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = reverseTable[v]
	}
	return out
}
