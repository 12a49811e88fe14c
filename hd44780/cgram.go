package hd44780

import (
	"context"
	"fmt"
)

// SetCustomCharacter writes a 5x8 glyph to CGRAM. address is a multiple of 8
// in [0x00:0x38]; the glyph then shows as character code address/8. Only the
// low 5 bits of each row are used:
//
//	bit pattern     eg          hex
//	76543210
//	---XXXXX        XXXX        1E
//	---XXXXX        X   X       11
//	---XXXXX        X   X       11
//	---XXXXX        XXXX        1E
//	---XXXXX        X   X       11
//	---XXXXX        X   X       11
//	---XXXXX        XXXX        1E
//
// Each controller has its own CGRAM, so two-controller displays get the
// glyph written twice.
func (d *HD44780) SetCustomCharacter(ctx context.Context, address int, pattern [8]byte) error {
	if address < 0 || address >= cgramSlots*cgramSlotSize || address%cgramSlotSize != 0 {
		return fmt.Errorf("%w: %#02x", ErrInvalidAddress, address)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateReady {
		return nil
	}
	return d.setCustomCharacter(ctx, address, pattern)
}

func (d *HD44780) setCustomCharacter(ctx context.Context, address int, pattern [8]byte) error {
	for _, c := range d.controllers() {
		b := newBus(d.port, d.pins, c)
		if err := b.command(ctx, cmdSetCGRAM|byte(address)); err != nil {
			return fmt.Errorf("hd44780: custom character %#02x: %w", address, err)
		}
		for _, row := range pattern {
			if err := b.data(ctx, row); err != nil {
				return fmt.Errorf("hd44780: custom character %#02x: %w", address, err)
			}
		}
	}
	d.slots[address/cgramSlotSize] = slot{pattern: pattern, used: true}
	return nil
}

// AllocCustomCharacter stores pattern in CGRAM and returns its address. A
// glyph already loaded is reused; otherwise the first free slot is taken, and
// once all 8 slots are used they are overwritten in turn.
func (d *HD44780) AllocCustomCharacter(ctx context.Context, pattern [8]byte) (int, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateReady {
		return 0, nil
	}
	free := -1
	for i, s := range d.slots {
		if s.used && s.pattern == pattern {
			return i * cgramSlotSize, nil
		}
		if !s.used && free < 0 {
			free = i
		}
	}
	if free < 0 {
		free = d.nextEvict
		d.nextEvict = (d.nextEvict + 1) % cgramSlots
	}
	address := free * cgramSlotSize
	if err := d.setCustomCharacter(ctx, address, pattern); err != nil {
		return 0, err
	}
	return address, nil
}

// InitBarGraph loads BarGraphGlyphs into CGRAM slots 0 to 5. Glyphs already
// loaded since the last Connect are not written again.
func (d *HD44780) InitBarGraph(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateReady {
		return nil
	}
	for i, glyph := range BarGraphGlyphs {
		if s := d.slots[i]; s.used && s.pattern == glyph {
			continue
		}
		if err := d.setCustomCharacter(ctx, i*cgramSlotSize, glyph); err != nil {
			return err
		}
	}
	return nil
}
