package port

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/displays"
)

type Variant string

const (
	VariantPCF8574  Variant = "pcf8574"
	VariantPCF8574A Variant = "pcf8574a"
	VariantMCP23017 Variant = "mcp23017"
)

const (
	BaseAddressPCF8574  = 0x20
	BaseAddressPCF8574A = 0x38
)

// Address returns the 7-bit bus address of an expander with the given A2..A0
// strap value.
func Address(variant Variant, strap byte) byte {
	switch variant {
	case VariantPCF8574A:
		return BaseAddressPCF8574A + strap&0x07
	case VariantMCP23017:
		return DefaultMCP23017Address + strap&0x07
	default:
		return BaseAddressPCF8574 + strap&0x07
	}
}

// PCF8574 represents an NXP/TI PCF8574(A) 8-bit quasi-bidirectional I/O expander.
// See: https://www.nxp.com/documents/data_sheet/PCF8574.pdf
//
// The chip has no registers: every write latches all eight pins and every read
// returns pin levels.
type PCF8574 struct {
	mx       sync.Mutex
	dev      displays.I2CDevice
	value    byte
	failures failureCounter
	closed   bool
}

func NewPCF8574(dev displays.I2CDevice) *PCF8574 {
	return &PCF8574{dev: dev}
}

// WriteMasked latches (cached & mask) | (data & ^mask). The cache is committed
// only when the bus write succeeds.
func (p *PCF8574) WriteMasked(ctx context.Context, mask, data byte) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.closed {
		return ErrClosed
	}
	value := Apply(p.value, mask, data)
	err := p.failures.observe(p.dev.Write(ctx, []byte{value}))
	if err != nil {
		return fmt.Errorf("pcf8574: could not write port value %#02x: %w", value, err)
	}
	p.value = value
	return nil
}

func (p *PCF8574) SetPin(ctx context.Context, pin int, state bool) error {
	mask, data, err := pinWrite(pin, state)
	if err != nil {
		return fmt.Errorf("pcf8574: %w", err)
	}
	return p.WriteMasked(ctx, mask, data)
}

// Value returns the last successfully written port value.
func (p *PCF8574) Value() byte {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.value
}

// ReadInput samples the pin levels. Only pins latched high can be read as
// inputs; a pin driven low always reads 0.
func (p *PCF8574) ReadInput(ctx context.Context) (byte, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	buf := make([]byte, 1)
	err := p.failures.observe(p.dev.Read(ctx, buf))
	if err != nil {
		return 0, fmt.Errorf("pcf8574: could not read port: %w", err)
	}
	return buf[0], nil
}

func (p *PCF8574) Failures() int {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.failures.n
}

// Close releases the device. Subsequent calls do nothing.
func (p *PCF8574) Close() error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.dev.Close()
	if err != nil {
		slog.Warn("pcf8574: close failed", "error", err)
	}
	return nil
}
