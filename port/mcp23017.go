package port

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/displays"
)

type registry int

const DefaultMCP23017Address = 0x20

const (
	IODIRA registry = iota
	GPPUA
	GPIOA
	OLATA
	IOCONA
)

// BankAddr holds register addresses for IOCON.BANK=0 and IOCON.BANK=1.
var BankAddr = []map[registry]byte{
	{
		IODIRA: 0x00,
		IOCONA: 0x0A,
		GPPUA:  0x0C,
		GPIOA:  0x12,
		OLATA:  0x14,
	},
	{
		IODIRA: 0x00,
		IOCONA: 0x05,
		GPPUA:  0x06,
		GPIOA:  0x09,
		OLATA:  0x0A,
	},
}

// MCP23017 drives bank A of a Microchip MCP23017 16-bit expander as an 8-bit
// output port. Writes go to the output latch (OLATA), reads sample GPIOA.
type MCP23017 struct {
	mx         sync.Mutex
	transport  displays.I2CBus
	bank       int
	address    byte
	retryLimit int
	value      byte
	failures   failureCounter
	closed     bool
}

type MCP23017Opt func(*MCP23017)

// WithBank selects the register layout (IOCON.BANK bit).
func WithBank(bank int) MCP23017Opt {
	return func(m *MCP23017) {
		if bank == 1 {
			m.bank = 1
		}
	}
}

func WithRetryLimit(limit int) MCP23017Opt {
	return func(m *MCP23017) {
		if limit > 0 {
			m.retryLimit = limit
		}
	}
}

func NewMCP23017(bus displays.I2CBus, address byte, opts ...MCP23017Opt) *MCP23017 {
	m := &MCP23017{retryLimit: 2, transport: bus, address: address}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init configures all bank A pins as outputs and drives the latch to 0x00.
func (m *MCP23017) Init(ctx context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	err := m.retry(ctx, func() error {
		return m.transport.WriteToAddr(ctx, m.address, []byte{BankAddr[m.bank][IODIRA], 0x00})
	})
	if err != nil {
		return fmt.Errorf("mcp23017: could not set bank A direction: %w", err)
	}
	err = m.retry(ctx, func() error {
		return m.transport.WriteToAddr(ctx, m.address, []byte{BankAddr[m.bank][OLATA], 0x00})
	})
	if err != nil {
		return fmt.Errorf("mcp23017: could not reset bank A latch: %w", err)
	}
	m.value = 0x00
	return nil
}

// PullUp sets the bank A pull-up resistors.
func (m *MCP23017) PullUp(ctx context.Context, settings byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	err := m.retry(ctx, func() error {
		return m.transport.WriteToAddr(ctx, m.address, []byte{BankAddr[m.bank][GPPUA], settings})
	})
	if err != nil {
		return fmt.Errorf("mcp23017: could not set pull-up on bank A: %w", err)
	}
	return nil
}

func (m *MCP23017) WriteMasked(ctx context.Context, mask, data byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return ErrClosed
	}
	value := Apply(m.value, mask, data)
	err := m.retry(ctx, func() error {
		return m.transport.WriteToAddr(ctx, m.address, []byte{BankAddr[m.bank][OLATA], value})
	})
	if err != nil {
		return fmt.Errorf("mcp23017: could not write latch value %#02x: %w", value, err)
	}
	m.value = value
	return nil
}

func (m *MCP23017) SetPin(ctx context.Context, pin int, state bool) error {
	mask, data, err := pinWrite(pin, state)
	if err != nil {
		return fmt.Errorf("mcp23017: %w", err)
	}
	return m.WriteMasked(ctx, mask, data)
}

func (m *MCP23017) Value() byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.value
}

func (m *MCP23017) ReadInput(ctx context.Context) (byte, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	var res byte
	err := m.retry(ctx, func() error {
		var err error
		res, err = m.readRegistry(ctx, BankAddr[m.bank][GPIOA])
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("mcp23017: could not read bank A: %w", err)
	}
	return res, nil
}

func (m *MCP23017) Failures() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.failures.n
}

func (m *MCP23017) Close() error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	_ = m.transport.Release(context.Background())
	return nil
}

func (m *MCP23017) readRegistry(ctx context.Context, addr byte) (byte, error) {
	err := m.transport.WriteToAddr(ctx, m.address, []byte{addr})
	if err != nil {
		return 0x00, fmt.Errorf("could not set registry address: %w", err)
	}
	buf := make([]byte, 1)
	err = m.transport.ReadFromAddr(ctx, m.address, buf)
	if err != nil {
		return 0x00, fmt.Errorf("could not read registry %#02x: %w", addr, err)
	}
	return buf[0], nil
}

// retry runs op up to retryLimit times, releasing the bus between attempts
// that failed with ErrBusBusy. Must be called with m.mx held.
func (m *MCP23017) retry(ctx context.Context, op func() error) error {
	var err error
	for i := m.retryLimit; i > 0; i-- {
		err = op()
		if err == nil {
			return m.failures.observe(nil)
		}
		if !errors.Is(err, displays.ErrBusBusy) {
			return m.failures.observe(err)
		}
		// try to release the bus
		_ = m.transport.Release(ctx)
	}
	return m.failures.observe(fmt.Errorf("retry limit reached: %w", err))
}
