package hd44780

import (
	"context"
	"fmt"
)

// bus is the state of one engine call: which controller is strobed and
// whether the controller is already in 4-bit mode. It is rebuilt for every
// operation so nothing leaks between calls.
type bus struct {
	port       Port
	pins       PinMap
	controller int
	en         byte
	ctrlMask   byte
	fourBit    bool
}

func newBus(p Port, pins PinMap, controller int) *bus {
	b := &bus{port: p, pins: pins, fourBit: true}
	b.selectController(controller)
	return b
}

func (b *bus) selectController(controller int) {
	b.controller = controller
	b.en = b.pins.enable(controller)
	b.ctrlMask = b.pins.controlMask(controller)
}

// write transfers value with the given RS level: high nibble first, then the
// low nibble once the controller is in 4-bit mode.
func (b *bus) write(ctx context.Context, rs byte, value byte) error {
	// RS = rs, E = 0, R/W = 0
	if err := b.port.WriteMasked(ctx, b.ctrlMask, rs); err != nil {
		return err
	}
	if err := b.pulse(ctx, rs, value>>4); err != nil {
		return err
	}
	if !b.fourBit {
		return nil
	}
	return b.pulse(ctx, rs, value&0x0F)
}

// pulse raises E, puts the nibble on D4-D7 and lowers E to latch it.
func (b *bus) pulse(ctx context.Context, rs byte, nibble byte) error {
	if err := b.port.WriteMasked(ctx, b.ctrlMask, rs|b.en); err != nil {
		return err
	}
	if err := b.port.WriteMasked(ctx, b.pins.dataMask(), b.pins.nibble(nibble)); err != nil {
		return err
	}
	return b.port.WriteMasked(ctx, b.ctrlMask, rs)
}

func (b *bus) command(ctx context.Context, cmd byte) error {
	if err := b.write(ctx, 0, cmd); err != nil {
		return fmt.Errorf("command %#02x on controller %d: %w", cmd, b.controller, err)
	}
	return nil
}

func (b *bus) data(ctx context.Context, value byte) error {
	if err := b.write(ctx, bv(b.pins.RS), value); err != nil {
		return fmt.Errorf("data %#02x on controller %d: %w", value, b.controller, err)
	}
	return nil
}

// read strobes E with R/W high and samples D4-D7 for each nibble.
func (b *bus) read(ctx context.Context) (byte, error) {
	rw := bv(b.pins.RW)
	// data lines must be released high before they can be read as inputs
	if err := b.port.WriteMasked(ctx, b.pins.dataMask(), b.pins.dataBits()); err != nil {
		return 0, err
	}
	if err := b.port.WriteMasked(ctx, b.ctrlMask, rw); err != nil {
		return 0, err
	}
	var value byte
	for _, shift := range []int{4, 0} {
		if err := b.port.WriteMasked(ctx, b.ctrlMask, rw|b.en); err != nil {
			return 0, err
		}
		in, err := b.port.ReadInput(ctx)
		if err != nil {
			return 0, err
		}
		value |= b.pins.unnibble(in) << shift
		if err := b.port.WriteMasked(ctx, b.ctrlMask, rw); err != nil {
			return 0, err
		}
	}
	// back to write mode
	if err := b.port.WriteMasked(ctx, b.ctrlMask, 0); err != nil {
		return 0, err
	}
	return value, nil
}
