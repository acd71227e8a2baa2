package ps2pad

import (
	"bytes"
	"errors"
	"testing"
)

func allButtons() []Button {
	out := make([]Button, 0, NumButtons+1)
	for i := 0; i <= NumButtons; i++ {
		out = append(out, Button(i))
	}
	return out
}

func allAxes() []Axis {
	return []Axis{LeftX, LeftY, RightX, RightY}
}

func TestPollFrame(t *testing.T) {
	want := []byte{0x01, 0x42, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	got := PollFrame()
	if !bytes.Equal(got, want) {
		t.Fatalf("PollFrame() = % X, want % X", got, want)
	}
	got[1] = 0x43
	if again := PollFrame(); !bytes.Equal(again, want) {
		t.Errorf("PollFrame() after caller mutation = % X, want % X", again, want)
	}
}

func TestPollSendsReadCommand(t *testing.T) {
	bus := newFakeBus(padReply(validMarker, 0xFF, 0xFF, 0x80, 0x80, 0x80, 0x80)...)
	p := New(bus)
	if _, err := p.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	want := []byte{0x80, 0x42, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(bus.sent, want) {
		t.Errorf("wire saw % X, want % X", bus.sent, want)
	}
}

func TestPollValidReply(t *testing.T) {
	bus := newFakeBus(padReply(validMarker, 0x00, 0xFF, 0x80, 0x80, 0x80, 0x80)...)
	p := New(bus)

	ok, err := p.Poll()
	if err != nil || !ok {
		t.Fatalf("Poll() = %v, %v, want true, nil", ok, err)
	}
	if !p.Connected() {
		t.Error("Connected() = false after a valid reply")
	}
	if got := p.ButtonPressed(Select); got != 1 {
		t.Errorf("ButtonPressed(Select) = %d, want 1", got)
	}
	if got := p.ButtonPressed(Square); got != 0 {
		t.Errorf("ButtonPressed(Square) = %d, want 0", got)
	}
	if got := p.StickValue(RightX); got != 0 {
		t.Errorf("StickValue(RightX) = %d, want 0", got)
	}
	if got := p.StickValue(LeftY); got != 0 {
		t.Errorf("StickValue(LeftY) = %d, want 0", got)
	}
	if got, want := p.State(), [6]byte{0x00, 0xFF, 0x80, 0x80, 0x80, 0x80}; got != want {
		t.Errorf("State() = % X, want % X", got, want)
	}
}

func TestButtonTable(t *testing.T) {
	tests := []struct {
		b          Button
		byte0, by1 byte
	}{
		{Select, 0xFE, 0xFF},
		{L3, 0xFD, 0xFF},
		{R3, 0xFB, 0xFF},
		{Start, 0xF7, 0xFF},
		{Up, 0xEF, 0xFF},
		{Right, 0xDF, 0xFF},
		{Down, 0xBF, 0xFF},
		{Left, 0x7F, 0xFF},
		{L2, 0xFF, 0xFE},
		{R2, 0xFF, 0xFD},
		{L1, 0xFF, 0xFB},
		{R1, 0xFF, 0xF7},
		{Triangle, 0xFF, 0xEF},
		{Circle, 0xFF, 0xDF},
		{Cross, 0xFF, 0xBF},
		{Square, 0xFF, 0x7F},
	}
	for _, tt := range tests {
		p := New(newFakeBus(padReply(validMarker, tt.byte0, tt.by1, 0x80, 0x80, 0x80, 0x80)...))
		if ok, err := p.Poll(); !ok || err != nil {
			t.Fatalf("Poll() = %v, %v", ok, err)
		}
		for _, b := range allButtons()[:NumButtons] {
			want := 0
			if b == tt.b {
				want = 1
			}
			if got := p.ButtonPressed(b); got != want {
				t.Errorf("with only %v held, ButtonPressed(%v) = %d, want %d", tt.b, b, got, want)
			}
		}
		if got, want := p.ButtonPressed(Buttons), 1<<int(tt.b); got != want {
			t.Errorf("with only %v held, ButtonPressed(Buttons) = %#04x, want %#04x", tt.b, got, want)
		}
	}
}

func TestButtonsMask(t *testing.T) {
	tests := []struct {
		b0, b1 byte
		want   int
	}{
		{0x00, 0x00, 0xFFFF},
		{0xFF, 0xFF, 0x0000},
		{0xFE, 0x7F, 0x8001},
		{0x5A, 0xA5, 0x5AA5},
		{0x12, 0x34, ^0x3412 & 0xFFFF},
	}
	for _, tt := range tests {
		p := New(newFakeBus(padReply(validMarker, tt.b0, tt.b1, 0x80, 0x80, 0x80, 0x80)...))
		if ok, err := p.Poll(); !ok || err != nil {
			t.Fatalf("Poll() = %v, %v", ok, err)
		}
		if got := p.ButtonPressed(Buttons); got != tt.want {
			t.Errorf("bytes %#02x %#02x: ButtonPressed(Buttons) = %#04x, want %#04x", tt.b0, tt.b1, got, tt.want)
		}
	}
}

func TestStickValue(t *testing.T) {
	// payload: b0 b1 RX RY LX LY
	p := New(newFakeBus(padReply(validMarker, 0xFF, 0xFF, 0x00, 0xFF, 0x81, 0x7F)...))
	if ok, err := p.Poll(); !ok || err != nil {
		t.Fatalf("Poll() = %v, %v", ok, err)
	}
	want := map[Axis]int{
		RightX: -128,
		RightY: 127,
		LeftX:  1,
		LeftY:  -1,
	}
	for a, w := range want {
		if got := p.StickValue(a); got != w {
			t.Errorf("StickValue(%v) = %d, want %d", a, got, w)
		}
	}
}

func TestQueriesBeforeConnect(t *testing.T) {
	bus := newFakeBus(padReply(0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)...)
	p := New(bus)

	check := func(when string) {
		t.Helper()
		for _, b := range allButtons() {
			if got := p.ButtonPressed(b); got != 0 {
				t.Errorf("%s: ButtonPressed(%v) = %d, want 0", when, b, got)
			}
		}
		for _, a := range allAxes() {
			if got := p.StickValue(a); got != 0 {
				t.Errorf("%s: StickValue(%v) = %d, want 0", when, a, got)
			}
		}
	}

	check("fresh pad")
	if ok, err := p.Poll(); ok || err != nil {
		t.Fatalf("Poll() with bad marker = %v, %v, want false, nil", ok, err)
	}
	if p.Connected() {
		t.Error("Connected() = true after an invalid reply")
	}
	check("after invalid reply")
}

func TestInvalidReplyKeepsState(t *testing.T) {
	bus := newFakeBus(padReply(validMarker, 0xF0, 0x0F, 0x10, 0x20, 0x30, 0x40)...)
	p := New(bus)
	if ok, err := p.Poll(); !ok || err != nil {
		t.Fatalf("Poll() = %v, %v", ok, err)
	}
	before := p.State()

	bus.reply = padReply(0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	ok, err := p.Poll()
	if ok || err != nil {
		t.Fatalf("Poll() with bad marker = %v, %v, want false, nil", ok, err)
	}
	if got := p.State(); got != before {
		t.Errorf("State() after invalid reply = % X, want % X", got, before)
	}
	if !p.Connected() {
		t.Error("Connected() dropped after an invalid reply")
	}
	if got := p.StickValue(LeftX); got != 0x30-0x80 {
		t.Errorf("StickValue(LeftX) = %d, want %d", got, 0x30-0x80)
	}
}

func TestTransportErrorKeepsState(t *testing.T) {
	bus := newFakeBus(padReply(validMarker, 0xFE, 0xFF, 0x80, 0x80, 0x80, 0x80)...)
	p := New(bus)
	if ok, err := p.Poll(); !ok || err != nil {
		t.Fatalf("Poll() = %v, %v", ok, err)
	}

	bus.reply = padReply(validMarker, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00)
	bus.failAt = 5
	ok, err := p.Poll()
	if ok || !errors.Is(err, ErrTransport) {
		t.Fatalf("Poll() = %v, %v, want false, ErrTransport", ok, err)
	}
	if got := p.ButtonPressed(Select); got != 1 {
		t.Errorf("ButtonPressed(Select) = %d after failed poll, want 1", got)
	}
	if got := p.StickValue(RightX); got != 0 {
		t.Errorf("StickValue(RightX) = %d after failed poll, want 0", got)
	}
	if bus.selected {
		t.Error("select left asserted after failed poll")
	}
}

func TestPollIdempotent(t *testing.T) {
	bus := newFakeBus(padReply(validMarker, 0xAA, 0x55, 0x10, 0x90, 0xC0, 0x33)...)
	p := New(bus)

	snapshot := func() ([]int, []int) {
		var bs, as []int
		for _, b := range allButtons() {
			bs = append(bs, p.ButtonPressed(b))
		}
		for _, a := range allAxes() {
			as = append(as, p.StickValue(a))
		}
		return bs, as
	}

	if ok, err := p.Poll(); !ok || err != nil {
		t.Fatalf("first Poll() = %v, %v", ok, err)
	}
	b1, a1 := snapshot()
	if ok, err := p.Poll(); !ok || err != nil {
		t.Fatalf("second Poll() = %v, %v", ok, err)
	}
	b2, a2 := snapshot()

	for i := range b1 {
		if b1[i] != b2[i] {
			t.Errorf("ButtonPressed(%v) changed between identical polls: %d -> %d", Button(i), b1[i], b2[i])
		}
	}
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Errorf("StickValue(%v) changed between identical polls: %d -> %d", Axis(i), a1[i], a2[i])
		}
	}
	if bus.frames != 2 {
		t.Errorf("bus saw %d frames, want 2", bus.frames)
	}
}

func TestUnknownEnums(t *testing.T) {
	p := New(newFakeBus(padReply(validMarker, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)...))
	if ok, err := p.Poll(); !ok || err != nil {
		t.Fatalf("Poll() = %v, %v", ok, err)
	}
	if got := p.ButtonPressed(Button(200)); got != 0 {
		t.Errorf("ButtonPressed(Button(200)) = %d, want 0", got)
	}
	if got := p.StickValue(Axis(9)); got != 0 {
		t.Errorf("StickValue(Axis(9)) = %d, want 0", got)
	}
	if got, want := Button(200).String(), "Button(200)"; got != want {
		t.Errorf("Button(200).String() = %q, want %q", got, want)
	}
	if got, want := Axis(9).String(), "Axis(9)"; got != want {
		t.Errorf("Axis(9).String() = %q, want %q", got, want)
	}
}

func TestNames(t *testing.T) {
	if got := Square.String(); got != "Square" {
		t.Errorf("Square.String() = %q", got)
	}
	if got := Buttons.String(); got != "Buttons" {
		t.Errorf("Buttons.String() = %q", got)
	}
	if got := RightY.String(); got != "RightY" {
		t.Errorf("RightY.String() = %q", got)
	}
}
