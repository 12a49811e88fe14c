package hd44780

import (
	"errors"
	"fmt"
)

// NoPin marks an optional signal as not wired.
const NoPin = -1

var ErrInvalidPinMap = errors.New("invalid pin map")

// PinMap assigns LCD signals to port pins [0:7].
type PinMap struct {
	E  int
	E2 int
	RS int
	RW int
	// D4, D5, D6, D7 in that order
	Data [4]int
	BL   int
}

// LCM1602 is the wiring of the common PCF8574 backpack:
//
//	P7 P6 P5 P4 P3 P2 P1 P0
//	D7 D6 D5 D4 BL E  RW RS
var LCM1602 = PinMap{
	RS:   0,
	RW:   1,
	E:    2,
	BL:   3,
	Data: [4]int{4, 5, 6, 7},
	E2:   NoPin,
}

// Validate checks that every required signal is on a pin [0:7], optional
// signals are either NoPin or on a pin, and no pin carries two signals.
func (m PinMap) Validate() error {
	signals := []struct {
		name     string
		pin      int
		optional bool
	}{
		{"E", m.E, false},
		{"E2", m.E2, true},
		{"RS", m.RS, false},
		{"RW", m.RW, false},
		{"D4", m.Data[0], false},
		{"D5", m.Data[1], false},
		{"D6", m.Data[2], false},
		{"D7", m.Data[3], false},
		{"BL", m.BL, true},
	}
	used := make(map[int]string, len(signals))
	for _, s := range signals {
		if s.optional && s.pin == NoPin {
			continue
		}
		if s.pin < 0 || s.pin > 7 {
			return fmt.Errorf("%w: %s on pin %d", ErrInvalidPinMap, s.name, s.pin)
		}
		if other, ok := used[s.pin]; ok {
			return fmt.Errorf("%w: %s and %s share pin %d", ErrInvalidPinMap, other, s.name, s.pin)
		}
		used[s.pin] = s.name
	}
	return nil
}

func (m PinMap) HasBackLight() bool {
	return m.BL != NoPin
}

func (m PinMap) HasE2() bool {
	return m.E2 != NoPin
}

func bv(pin int) byte {
	return 1 << pin
}

// enable returns the bit value of the enable line of controller 1 or 2.
func (m PinMap) enable(controller int) byte {
	if controller == 2 && m.HasE2() {
		return bv(m.E2)
	}
	return bv(m.E)
}

// controlMask leaves everything but E, RS and RW untouched.
func (m PinMap) controlMask(controller int) byte {
	return ^(m.enable(controller) | bv(m.RS) | bv(m.RW))
}

// dataMask leaves everything but D4-D7 untouched.
func (m PinMap) dataMask() byte {
	return ^m.dataBits()
}

func (m PinMap) dataBits() byte {
	var bits byte
	for _, pin := range m.Data {
		bits |= bv(pin)
	}
	return bits
}

// nibble places the low 4 bits of n on D4-D7.
func (m PinMap) nibble(n byte) byte {
	var out byte
	for i, pin := range m.Data {
		if n&(1<<i) != 0 {
			out |= bv(pin)
		}
	}
	return out
}

// unnibble is the inverse of nibble for a sampled port value.
func (m PinMap) unnibble(value byte) byte {
	var n byte
	for i, pin := range m.Data {
		if value&bv(pin) != 0 {
			n |= 1 << i
		}
	}
	return n
}
