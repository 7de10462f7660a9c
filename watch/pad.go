package watch

import (
	"fmt"
	"strings"
)

// Button is one bit of the controller button mask.
type Button uint16

// Controller buttons. Bits 6 and 7 are unused.
const (
	ButtonCRight Button = 1 << iota
	ButtonCLeft
	ButtonCDown
	ButtonCUp
	ButtonR
	ButtonL
	_
	_
	ButtonRight
	ButtonLeft
	ButtonDown
	ButtonUp
	ButtonStart
	ButtonZ
	ButtonB
	ButtonA
)

var buttonNames = []struct {
	b    Button
	name string
}{
	{ButtonA, "A"},
	{ButtonB, "B"},
	{ButtonZ, "Z"},
	{ButtonStart, "Start"},
	{ButtonUp, "Up"},
	{ButtonDown, "Down"},
	{ButtonLeft, "Left"},
	{ButtonRight, "Right"},
	{ButtonL, "L"},
	{ButtonR, "R"},
	{ButtonCUp, "C-Up"},
	{ButtonCDown, "C-Down"},
	{ButtonCLeft, "C-Left"},
	{ButtonCRight, "C-Right"},
}

// Pad is a decoded controller status word.
type Pad struct {
	Buttons Button `json:"buttons"`
	StickX  int8   `json:"stickX"`
	StickY  int8   `json:"stickY"`
}

// DecodePad splits a status word: buttons in the upper half, then the
// signed stick X and Y bytes.
func DecodePad(w uint32) Pad {
	return Pad{
		Buttons: Button(w >> 16),
		StickX:  int8(w >> 8),
		StickY:  int8(w),
	}
}

// Pressed reports whether b is held.
func (p Pad) Pressed(b Button) bool {
	return p.Buttons&b != 0
}

// Analog returns the stick position normalized by 127.
func (p Pad) Analog() (x, y float64) {
	return float64(p.StickX) / 127, float64(p.StickY) / 127
}

// Held lists the names of the held buttons.
func (p Pad) Held() []string {
	var names []string
	for _, bn := range buttonNames {
		if p.Pressed(bn.b) {
			names = append(names, bn.name)
		}
	}
	return names
}

func (p Pad) String() string {
	held := "-"
	if names := p.Held(); len(names) > 0 {
		held = strings.Join(names, " ")
	}
	x, y := p.Analog()
	return fmt.Sprintf("%s (%+.2f, %+.2f)", held, x, y)
}
