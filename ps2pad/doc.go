// Package ps2pad reads a PlayStation 2 style game pad over SPI.
//
// The pad answers a fixed 9-byte poll frame with its button bitmask and
// four analog stick readings. The package is split in three layers:
//
//   - bit-order conversion (ReverseBits, ReverseBuffer), because the pad is
//     LSB-first while SPI masters shift MSB-first
//   - frame exchange (Exchange) over any Transport that can move one byte and
//     drive the select line; SPITransport implements it with periph.io
//   - state decoding (Pad): Poll, ButtonPressed, StickValue
//
// Factory exposes the pad as a reef-pi driver: the 16 buttons are digital
// inputs and the 4 stick axes are analog inputs.
//
// # Example Usage
//
//	t, err := ps2pad.OpenSPI(ps2pad.SPIConfig{SelectPin: "GPIO8"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
//
//	pad := ps2pad.New(t)
//	for range time.Tick(20 * time.Millisecond) {
//	    if ok, err := pad.Poll(); err != nil || !ok {
//	        continue
//	    }
//	    if pad.ButtonPressed(ps2pad.Cross) == 1 {
//	        log.Println("Cross held")
//	    }
//	    log.Println("left stick:", pad.StickValue(ps2pad.LeftX), pad.StickValue(ps2pad.LeftY))
//	}
//
// Only the read-data command is sent. The pad stays in whatever mode it
// powered up in; in digital mode the stick bytes read 0x80 (centred).
package ps2pad
