package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/displays"
)

var _ displays.I2CBus = &GobotBus{}

// gobotDevice is the part of i2c.GenericDriver the bus uses.
type gobotDevice interface {
	Start() error
	Halt() error
	Read(data []byte) error
	Write(data []byte) error
}

// GobotBus drives I2C devices through gobot generic drivers, one driver per
// address, started on first use.
type GobotBus struct {
	mx      sync.Mutex
	devices map[byte]gobotDevice
	create  func(address byte) gobotDevice
	halt    func() error
}

// NewGobotBus uses connector (any gobot platform adaptor with I2C support)
// and bus number busNr.
func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	return newGobotBus(func(address byte) gobotDevice {
		return i2c.NewGenericDriver(connector, "hd44780", int(address), func(c i2c.Config) {
			c.SetBus(busNr)
		})
	})
}

func newGobotBus(create func(address byte) gobotDevice) *GobotBus {
	return &GobotBus{
		devices: make(map[byte]gobotDevice),
		create:  create,
	}
}

// NewNanoPiBus connects the I2C adaptor of a NanoPi NEO board.
func NewNanoPiBus(busNr int) (*GobotBus, error) {
	npi := nanopi.NewNeoAdaptor()
	err := npi.I2cBusAdaptor.Connect()
	if err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	b := NewGobotBus(npi, busNr)
	b.halt = npi.I2cBusAdaptor.Finalize
	return b, nil
}

func (b *GobotBus) device(address byte) (gobotDevice, error) {
	if dev, ok := b.devices[address]; ok {
		return dev, nil
	}
	dev := b.create(address)
	if err := dev.Start(); err != nil {
		return nil, fmt.Errorf("device %#x start error: %w", address, err)
	}
	b.devices[address] = dev
	return dev, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	dev, err := b.device(address)
	if err != nil {
		return err
	}
	if err := dev.Read(buffer); err != nil {
		return fmt.Errorf("could not read from i2c device %#x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	dev, err := b.device(address)
	if err != nil {
		return err
	}
	if err := dev.Write(buffer); err != nil {
		return fmt.Errorf("could not write to i2c device %#x: %w", address, err)
	}
	return nil
}

// Release halts every started driver; the next transfer starts it again.
func (b *GobotBus) Release(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.haltAll()
}

func (b *GobotBus) haltAll() error {
	var errs []error
	for address, dev := range b.devices {
		if err := dev.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("device %#x halt error: %w", address, err))
		}
		delete(b.devices, address)
	}
	return errors.Join(errs...)
}

// Close halts the drivers and finalizes the board adaptor, if any.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	err := b.haltAll()
	if b.halt != nil {
		err = errors.Join(err, b.halt())
		b.halt = nil
	}
	return err
}
