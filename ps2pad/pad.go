// pad.go
//
// Controller state decoding.
//
// Poll sends the fixed read-data command and keeps the 6-byte payload of the
// last valid reply:
//
//	resp[0]  resp[1]  resp[2]  resp[3]   resp[4]   resp[5] resp[6] resp[7] resp[8]
//	idle     ID       0x5A     buttons0  buttons1  RX      RY      LX      LY
//
// Buttons are active LOW (bit=0 means pressed). Sticks are raw 0..255 with
// the centre at 128.
//
// The connected flag is sticky: once a valid reply has been seen it stays
// true, and later invalid replies keep the last good snapshot. There is no
// disconnect detection.
//
package ps2pad

import "fmt"

const (
	frameLen    = 9
	stateLen    = 6
	stateOffset = 3

	markerIndex = 2
	validMarker = 0x5A

	stickCenter = 0x80
)

// pollCommand is the read-data request. Never mutated; see PollFrame.
var pollCommand = [frameLen]byte{0x01, 0x42, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// PollFrame returns a copy of the poll command frame.
func PollFrame() []byte {
	out := make([]byte, frameLen)
	copy(out, pollCommand[:])
	return out
}

// Button names one digital input of the pad.
type Button uint8

const (
	Select Button = iota
	L3
	R3
	Start
	Up
	Right
	Down
	Left
	L2
	R2
	L1
	R1
	Triangle
	Circle
	Cross
	Square

	// Buttons is not a single input: ButtonPressed returns the 16-bit
	// pressed mask (bit n set = button n pressed).
	Buttons
)

// NumButtons is the number of real digital inputs.
const NumButtons = int(Buttons)

type buttonBit struct {
	index uint8
	mask  uint8
	name  string
}

var buttonTable = [NumButtons]buttonBit{
	Select:   {0, 0x01, "Select"},
	L3:       {0, 0x02, "L3"},
	R3:       {0, 0x04, "R3"},
	Start:    {0, 0x08, "Start"},
	Up:       {0, 0x10, "Up"},
	Right:    {0, 0x20, "Right"},
	Down:     {0, 0x40, "Down"},
	Left:     {0, 0x80, "Left"},
	L2:       {1, 0x01, "L2"},
	R2:       {1, 0x02, "R2"},
	L1:       {1, 0x04, "L1"},
	R1:       {1, 0x08, "R1"},
	Triangle: {1, 0x10, "Triangle"},
	Circle:   {1, 0x20, "Circle"},
	Cross:    {1, 0x40, "Cross"},
	Square:   {1, 0x80, "Square"},
}

func (b Button) String() string {
	switch {
	case int(b) < NumButtons:
		return buttonTable[b].name
	case b == Buttons:
		return "Buttons"
	default:
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
}

// Axis names one analog stick axis.
type Axis uint8

const (
	LeftX Axis = iota
	LeftY
	RightX
	RightY
)

// NumAxes is the number of analog axes.
const NumAxes = 4

var axisIndex = [NumAxes]uint8{
	LeftX:  4,
	LeftY:  5,
	RightX: 2,
	RightY: 3,
}

var axisNames = [NumAxes]string{"LeftX", "LeftY", "RightX", "RightY"}

func (a Axis) String() string {
	if int(a) < NumAxes {
		return axisNames[a]
	}
	return fmt.Sprintf("Axis(%d)", uint8(a))
}

// Pad decodes the state of one controller. It is not safe for concurrent
// use; callers sharing a Pad must serialize Poll and the queries.
type Pad struct {
	t         Transport
	state     [stateLen]byte
	connected bool
}

// New returns a Pad that polls through t.
func New(t Transport) *Pad {
	return &Pad{t: t}
}

// Poll reads the controller once. It reports whether the reply was valid.
// An invalid reply is not an error: the previous snapshot is kept. A
// transport error is returned as is and also leaves the snapshot untouched.
func (p *Pad) Poll() (bool, error) {
	resp, err := Exchange(p.t, pollCommand[:])
	if err != nil {
		return false, err
	}
	if len(resp) < frameLen {
		return false, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(resp), frameLen)
	}
	if resp[markerIndex] != validMarker {
		return false, nil
	}
	copy(p.state[:], resp[stateOffset:stateOffset+stateLen])
	p.connected = true
	return true, nil
}

// Connected reports whether a valid reply has ever been received.
func (p *Pad) Connected() bool { return p.connected }

// State returns a copy of the last valid payload.
func (p *Pad) State() [6]byte { return p.state }

// ButtonPressed returns 1 if b is held and 0 otherwise. For Buttons it
// returns the pressed mask instead. Before the first valid poll it returns 0.
func (p *Pad) ButtonPressed(b Button) int {
	if !p.connected {
		return 0
	}
	if b == Buttons {
		return int(p.pressedMask())
	}
	if int(b) >= NumButtons {
		return 0
	}
	bit := buttonTable[b]
	if p.state[bit.index]&bit.mask != 0 {
		return 0
	}
	return 1
}

func (p *Pad) pressedMask() uint16 {
	return ^(uint16(p.state[1])<<8 | uint16(p.state[0]))
}

// StickValue returns the axis deflection in [-128, 127], 0 at rest and before
// the first valid poll.
func (p *Pad) StickValue(a Axis) int {
	if !p.connected || int(a) >= NumAxes {
		return 0
	}
	return int(p.state[axisIndex[a]]) - stickCenter
}
