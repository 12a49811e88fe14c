package port

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIO presents eight directly wired host GPIO lines as one 8-bit port. Slot i
// of the port is pins[i]; nil slots are not wired and are skipped.
type GPIO struct {
	mx       sync.Mutex
	pins     [8]gpio.PinIO
	value    byte
	synced   bool
	failures failureCounter
	closed   bool
}

func NewGPIO(pins [8]gpio.PinIO) *GPIO {
	return &GPIO{pins: pins}
}

// OpenGPIO initialises the host drivers and looks up pins by name, e.g.
// "GPIO17". Empty names leave the slot unwired.
func OpenGPIO(names [8]string) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	var pins [8]gpio.PinIO
	for i, name := range names {
		if name == "" {
			continue
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio: no pin named %q", name)
		}
		pins[i] = p
	}
	return NewGPIO(pins), nil
}

// WriteMasked drives the lines whose value changes. The first write, and the
// first one after a failed write, drives every wired line.
func (g *GPIO) WriteMasked(ctx context.Context, mask, data byte) error {
	g.mx.Lock()
	defer g.mx.Unlock()
	if g.closed {
		return ErrClosed
	}
	value := Apply(g.value, mask, data)
	changed := value ^ g.value
	if !g.synced {
		changed = 0xFF
	}
	for i, p := range g.pins {
		if p == nil || changed&BV(i) == 0 {
			continue
		}
		err := g.failures.observe(p.Out(gpio.Level(value&BV(i) != 0)))
		if err != nil {
			// lines driven so far no longer match the cache
			g.synced = false
			return fmt.Errorf("gpio: could not drive %s: %w", p.Name(), err)
		}
	}
	g.value = value
	g.synced = true
	return nil
}

func (g *GPIO) SetPin(ctx context.Context, pin int, state bool) error {
	mask, data, err := pinWrite(pin, state)
	if err != nil {
		return fmt.Errorf("gpio: %w", err)
	}
	return g.WriteMasked(ctx, mask, data)
}

func (g *GPIO) Value() byte {
	g.mx.Lock()
	defer g.mx.Unlock()
	return g.value
}

// ReadInput samples the level of every wired line.
func (g *GPIO) ReadInput(ctx context.Context) (byte, error) {
	g.mx.Lock()
	defer g.mx.Unlock()
	if g.closed {
		return 0, ErrClosed
	}
	var res byte
	for i, p := range g.pins {
		if p != nil && p.Read() == gpio.High {
			res |= BV(i)
		}
	}
	return res, nil
}

func (g *GPIO) Failures() int {
	g.mx.Lock()
	defer g.mx.Unlock()
	return g.failures.n
}

func (g *GPIO) Close() error {
	g.mx.Lock()
	defer g.mx.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	for _, p := range g.pins {
		if p == nil {
			continue
		}
		if err := p.Halt(); err != nil {
			slog.Warn("gpio: halt failed", "pin", p.Name(), "error", err)
		}
	}
	return nil
}
