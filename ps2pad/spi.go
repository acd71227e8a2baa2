// spi.go
//
// SPI transport built on periph.io.
//
// The pad needs select held low across all 9 bytes of a frame. Linux spidev
// toggles its own CS per transfer, so the port is opened with spi.NoCS and
// select is driven from a plain GPIO instead.
//
// Wiring (pad pin → host):
//
//	1 DAT  → MISO (1k pull-up to 3.3V)
//	2 CMD  → MOSI
//	6 ATT  → SelectPin (GPIO)
//	7 CLK  → SCLK
//
package ps2pad

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// DefaultFrequency is the bus clock the pad is known to tolerate.
	DefaultFrequency = 250 * physic.KiloHertz
	// DefaultSelectPin is the GPIO used for ATT when none is configured.
	DefaultSelectPin = "GPIO8"

	spiMode = spi.Mode3 | spi.NoCS
	spiBits = 8
)

// SPIConfig selects the host resources used by OpenSPI.
type SPIConfig struct {
	Port      string           // spireg name; "" opens the first port
	SelectPin string           // gpioreg name of the ATT line
	Frequency physic.Frequency // 0 means DefaultFrequency
}

// SPITransport exchanges bytes over a periph.io SPI connection with a GPIO
// select line.
type SPITransport struct {
	port spi.PortCloser // nil when the conn was handed in
	conn spi.Conn
	sel  gpio.PinOut

	tx [1]byte
	rx [1]byte
}

// NewSPITransport wraps an already connected SPI conn. Select is released
// (driven high) before returning.
func NewSPITransport(c spi.Conn, sel gpio.PinOut) (*SPITransport, error) {
	if c == nil {
		return nil, errors.New("ps2pad: nil spi conn")
	}
	if sel == nil {
		return nil, errors.New("ps2pad: nil select pin")
	}
	if err := sel.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("ps2pad: release select %s: %w", sel, err)
	}
	return &SPITransport{conn: c, sel: sel}, nil
}

var hostInitOnce = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// OpenSPI initializes the host drivers and opens the port and select pin
// named in cfg.
func OpenSPI(cfg SPIConfig) (*SPITransport, error) {
	if err := hostInitOnce(); err != nil {
		return nil, fmt.Errorf("ps2pad: host init: %w", err)
	}

	selName := cfg.SelectPin
	if selName == "" {
		selName = DefaultSelectPin
	}
	sel := gpioreg.ByName(selName)
	if sel == nil {
		return nil, fmt.Errorf("ps2pad: select pin %q not found", selName)
	}

	freq := cfg.Frequency
	if freq == 0 {
		freq = DefaultFrequency
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("ps2pad: open spi %q: %w", cfg.Port, err)
	}
	c, err := port.Connect(freq, spiMode, spiBits)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("ps2pad: connect spi %q at %s: %w", cfg.Port, freq, err)
	}

	t, err := NewSPITransport(c, sel)
	if err != nil {
		port.Close()
		return nil, err
	}
	t.port = port
	return t, nil
}

// TransferByte implements Transport.
func (t *SPITransport) TransferByte(out byte) (byte, error) {
	t.tx[0] = out
	if err := t.conn.Tx(t.tx[:], t.rx[:]); err != nil {
		return 0, err
	}
	return t.rx[0], nil
}

// SetSelect implements Transport. Select is active low.
func (t *SPITransport) SetSelect(active bool) error {
	l := gpio.High
	if active {
		l = gpio.Low
	}
	return t.sel.Out(l)
}

func (t *SPITransport) String() string {
	return fmt.Sprintf("%s (select %s)", t.conn, t.sel)
}

// Close releases select and the SPI port if this transport opened it.
func (t *SPITransport) Close() error {
	err := t.sel.Out(gpio.High)
	if t.port != nil {
		err = errors.Join(err, t.port.Close())
		t.port = nil
	}
	return err
}
