// hal.go
//
// reef-pi HAL glue for the PS2 pad.
//
// This file provides:
//   - button pins implementing hal.DigitalInputPin (pin n = bit n of the pressed mask)
//   - stick pins implementing hal.AnalogInputPin (0 LeftX, 1 LeftY, 2 RightX, 3 RightY)
//   - a driver implementing hal.DigitalInputDriver and hal.AnalogInputDriver
//
// Concurrency:
//   - reef-pi reads pins from several goroutines. The Pad itself is single
//     threaded, so every poll and query goes through d.mu.
//   - Reads within PollInterval of the last poll reuse the snapshot, so a UI
//     refresh of 20 pins costs one bus frame.
//
package ps2pad

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/reef-pi/hal"
)

// buttonPin is one digital input of the pad. Read returns true while held.
type buttonPin struct {
	driver *Driver
	button Button
}

func (p *buttonPin) Name() string { return fmt.Sprintf("PS2:%s", p.button) }
func (p *buttonPin) Number() int  { return int(p.button) }
func (p *buttonPin) Close() error { return nil }

func (p *buttonPin) Read() (bool, error) {
	v, err := p.driver.button(p.button)
	return v == 1, err
}

// axisPin is one stick axis. Measure returns the raw deflection, Value the
// calibrated one.
type axisPin struct {
	driver *Driver
	axis   Axis

	// guarded by driver.mu
	cal hal.Calibrator
}

func (p *axisPin) Name() string { return fmt.Sprintf("PS2:%s", p.axis) }
func (p *axisPin) Number() int  { return int(p.axis) }
func (p *axisPin) Close() error { return nil }

func (p *axisPin) Measure() (float64, error) {
	v, err := p.driver.stick(p.axis)
	return float64(v), err
}

func (p *axisPin) Value() (float64, error) {
	v, err := p.Measure()
	if err != nil {
		return 0, err
	}
	p.driver.mu.Lock()
	cal := p.cal
	p.driver.mu.Unlock()
	if cal == nil {
		return v, nil
	}
	return cal.Calibrate(v), nil
}

// Calibrate installs a calibrator built from ms. An empty slice removes it.
func (p *axisPin) Calibrate(ms []hal.Measurement) error {
	var cal hal.Calibrator
	if len(ms) > 0 {
		c, err := hal.CalibratorFactory(ms)
		if err != nil {
			return fmt.Errorf("%s: calibrate: %w", p.Name(), err)
		}
		cal = c
	}
	p.driver.mu.Lock()
	p.cal = cal
	p.driver.mu.Unlock()
	return nil
}

// Driver is the reef-pi driver instance for one pad.
type Driver struct {
	t   Transport
	pad *Pad

	// Serialize ALL interactions with the pad.
	mu sync.Mutex

	// interval is how long a snapshot is reused; 0 polls on every read.
	interval time.Duration
	lastPoll time.Time
	now      func() time.Time

	debug bool
	meta  hal.Metadata

	buttons []*buttonPin
	axes    []*axisPin
}

func newDriver(t Transport, interval time.Duration, debug bool, meta hal.Metadata) *Driver {
	d := &Driver{
		t:        t,
		pad:      New(t),
		interval: interval,
		now:      time.Now,
		debug:    debug,
		meta:     meta,
	}
	for i := 0; i < NumButtons; i++ {
		d.buttons = append(d.buttons, &buttonPin{driver: d, button: Button(i)})
	}
	for i := 0; i < NumAxes; i++ {
		d.axes = append(d.axes, &axisPin{driver: d, axis: Axis(i)})
	}
	return d
}

func (d *Driver) Metadata() hal.Metadata { return d.meta }

// Close releases the transport if it can be closed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Required by hal.DigitalInputDriver / hal.AnalogInputDriver
// -----------------------------------------------------------------------------

func (d *Driver) DigitalInputPins() []hal.DigitalInputPin {
	out := make([]hal.DigitalInputPin, len(d.buttons))
	for i, p := range d.buttons {
		out[i] = p
	}
	return out
}

func (d *Driver) DigitalInputPin(n int) (hal.DigitalInputPin, error) {
	if n < 0 || n >= len(d.buttons) {
		return nil, fmt.Errorf("ps2pad: invalid button pin %d (0..%d)", n, len(d.buttons)-1)
	}
	return d.buttons[n], nil
}

func (d *Driver) AnalogInputPins() []hal.AnalogInputPin {
	out := make([]hal.AnalogInputPin, len(d.axes))
	for i, p := range d.axes {
		out[i] = p
	}
	return out
}

func (d *Driver) AnalogInputPin(n int) (hal.AnalogInputPin, error) {
	if n < 0 || n >= len(d.axes) {
		return nil, fmt.Errorf("ps2pad: invalid analog pin %d (0..%d)", n, len(d.axes)-1)
	}
	return d.axes[n], nil
}

func (d *Driver) Pins(cap hal.Capability) ([]hal.Pin, error) {
	var pins []hal.Pin
	switch cap {
	case hal.DigitalInput:
		for _, p := range d.buttons {
			pins = append(pins, p)
		}
	case hal.AnalogInput:
		for _, p := range d.axes {
			pins = append(pins, p)
		}
	default:
		return nil, fmt.Errorf("ps2pad: unsupported capability: %s", cap.String())
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].Number() < pins[j].Number() })
	return pins, nil
}

// Buttons returns the pressed mask (bit n set = button n held).
func (d *Driver) Buttons() (uint16, error) {
	v, err := d.button(Buttons)
	return uint16(v), err
}

// Connected reports whether the pad has ever answered a poll.
func (d *Driver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pad.Connected()
}

// -----------------------------------------------------------------------------
// Internal helpers
// -----------------------------------------------------------------------------

func (d *Driver) button(b Button) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refresh(); err != nil {
		return 0, err
	}
	return d.pad.ButtonPressed(b), nil
}

func (d *Driver) stick(a Axis) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refresh(); err != nil {
		return 0, err
	}
	return d.pad.StickValue(a), nil
}

// refresh polls the pad unless the snapshot is younger than d.interval.
// Caller holds d.mu.
func (d *Driver) refresh() error {
	now := d.now()
	if d.interval > 0 && !d.lastPoll.IsZero() && now.Sub(d.lastPoll) < d.interval {
		return nil
	}

	ok, err := d.pad.Poll()
	if err != nil {
		return fmt.Errorf("ps2pad poll: %w", err)
	}
	d.lastPoll = now

	if d.debug {
		if ok {
			log.Printf("ps2pad poll: state=% X", d.pad.State())
		} else {
			log.Printf("ps2pad poll: invalid reply, keeping last state (connected=%v)", d.pad.Connected())
		}
	}
	return nil
}
