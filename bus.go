package displays

import (
	"context"
	"fmt"
	"sync"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// I2CDevice is a handle bound to a single bus address.
type I2CDevice interface {
	BusReader
	BusWriter
	Close() error
}

var _ I2CDevice = &Device{}

// Device binds an I2CBus to one address. Closing the device releases the bus
// once; the bus itself stays open for other devices.
type Device struct {
	mx      sync.Mutex
	bus     I2CBus
	address byte
	closed  bool
}

func NewDevice(bus I2CBus, address byte) *Device {
	return &Device{bus: bus, address: address}
}

func (d *Device) Address() byte {
	return d.address
}

func (d *Device) Read(ctx context.Context, buffer []byte) error {
	if d.isClosed() {
		return fmt.Errorf("device %#x is closed", d.address)
	}
	return d.bus.ReadFromAddr(ctx, d.address, buffer)
}

func (d *Device) Write(ctx context.Context, buffer []byte) error {
	if d.isClosed() {
		return fmt.Errorf("device %#x is closed", d.address)
	}
	return d.bus.WriteToAddr(ctx, d.address, buffer)
}

func (d *Device) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.bus.Release(context.Background())
}

func (d *Device) isClosed() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.closed
}
