// Package port implements 8-bit output ports with a host-side write cache.
//
// Every port keeps the last successfully written output value and applies
// masked read-modify-write updates to it: a bit whose mask bit is 1 keeps its
// cached state, every other bit takes the value from data. The cache is never
// refreshed from the device, because a quasi-bidirectional port reads back line
// levels rather than the latched output.
package port

import (
	"errors"
)

var (
	ErrInvalidPin = errors.New("pin out of range [0:7]")
	ErrClosed     = errors.New("port is closed")
)

// BV returns the bit value of pin.
func BV(pin int) byte {
	return 1 << pin
}

// Apply computes the port value produced by a masked write over current.
func Apply(current, mask, data byte) byte {
	return (current & mask) | (data &^ mask)
}

// pinWrite converts a single pin update into a mask/data pair.
func pinWrite(pin int, state bool) (mask, data byte, err error) {
	if pin < 0 || pin > 7 {
		return 0, 0, ErrInvalidPin
	}
	mask = ^BV(pin)
	if state {
		data = BV(pin)
	}
	return mask, data, nil
}

// failureCounter tracks consecutive transport failures.
type failureCounter struct {
	n int
}

func (f *failureCounter) observe(err error) error {
	if err != nil {
		f.n++
		return err
	}
	f.n = 0
	return nil
}
