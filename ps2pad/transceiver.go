// transceiver.go
//
// Frame exchange with the controller.
//
// One frame is a run of full-duplex byte transfers framed by the select
// (ATT) line. Select is asserted before the first byte and always released
// after the last one, including when the transport fails mid-frame, so the
// bus is never left claimed.
//
package ps2pad

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps every failure reported by a Transport.
	ErrTransport = errors.New("ps2pad: transport failure")
	// ErrFrameLength is returned when a response has fewer bytes than expected.
	ErrFrameLength = errors.New("ps2pad: short frame")
)

// Transport is the bus primitive the pad is wired to.
//
// Bytes are exchanged MSB-first; the bit reversal needed by the pad is done
// by Exchange, not by the transport.
type Transport interface {
	// TransferByte clocks out one byte and returns the byte clocked in.
	TransferByte(out byte) (byte, error)
	// SetSelect drives the select line. active=true pulls it low.
	SetSelect(active bool) error
}

// Exchange sends command to the pad and returns the response of the same
// length. On error no response is returned and select is left deasserted.
func Exchange(t Transport, command []byte) (resp []byte, err error) {
	tx := ReverseBuffer(command)
	rx := make([]byte, len(tx))

	if err := t.SetSelect(true); err != nil {
		// Best effort release; the assert may have half-worked.
		return nil, errors.Join(
			fmt.Errorf("%w: assert select: %w", ErrTransport, err),
			release(t),
		)
	}
	defer func() {
		if rerr := release(t); rerr != nil {
			resp = nil
			err = errors.Join(err, rerr)
		}
	}()

	for i, b := range tx {
		in, terr := t.TransferByte(b)
		if terr != nil {
			return nil, fmt.Errorf("%w: byte %d/%d: %w", ErrTransport, i+1, len(tx), terr)
		}
		rx[i] = in
	}

	return ReverseBuffer(rx), nil
}

func release(t Transport) error {
	if err := t.SetSelect(false); err != nil {
		return fmt.Errorf("%w: release select: %w", ErrTransport, err)
	}
	return nil
}
