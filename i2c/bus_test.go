package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestGenericBus_Tx(t *testing.T) {
	ctx := context.Background()
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x27, W: []byte{0x08}},
			{Addr: 0x27, R: []byte{0xF8}},
		},
		DontPanic: true,
	}
	bus := NewBus(playback)

	require.NoError(t, bus.WriteToAddr(ctx, 0x27, []byte{0x08}))
	buf := make([]byte, 1)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x27, buf))
	assert.Equal(t, byte(0xF8), buf[0])
	assert.NoError(t, bus.Release(ctx))
	assert.NoError(t, bus.Close())
}

func TestGenericBus_TxError(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x27, W: []byte{0x08}}},
		DontPanic: true,
	}
	bus := NewBus(playback)
	assert.Error(t, bus.WriteToAddr(context.Background(), 0x3F, []byte{0x01}))
}

type fakeDevice struct {
	address  byte
	started  int
	halted   int
	startErr error
	written  [][]byte
	read     []byte
}

func (f *fakeDevice) Start() error {
	f.started++
	return f.startErr
}

func (f *fakeDevice) Halt() error {
	f.halted++
	return nil
}

func (f *fakeDevice) Read(data []byte) error {
	copy(data, f.read)
	return nil
}

func (f *fakeDevice) Write(data []byte) error {
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func TestGobotBus(t *testing.T) {
	ctx := context.Background()
	created := map[byte][]*fakeDevice{}
	bus := newGobotBus(func(address byte) gobotDevice {
		dev := &fakeDevice{address: address, read: []byte{0xAB}}
		created[address] = append(created[address], dev)
		return dev
	})

	require.NoError(t, bus.WriteToAddr(ctx, 0x27, []byte{0x01}))
	require.NoError(t, bus.WriteToAddr(ctx, 0x27, []byte{0x02}))
	require.NoError(t, bus.WriteToAddr(ctx, 0x20, []byte{0x03}))
	buf := make([]byte, 1)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x27, buf))
	assert.Equal(t, byte(0xAB), buf[0])

	require.Len(t, created[0x27], 1)
	assert.Equal(t, 1, created[0x27][0].started)
	assert.Equal(t, [][]byte{{0x01}, {0x02}}, created[0x27][0].written)

	require.NoError(t, bus.Release(ctx))
	assert.Equal(t, 1, created[0x27][0].halted)
	assert.Equal(t, 1, created[0x20][0].halted)

	// a released device is started again on next use
	require.NoError(t, bus.WriteToAddr(ctx, 0x27, []byte{0x04}))
	assert.Len(t, created[0x27], 2)
	require.NoError(t, bus.Close())
	assert.Equal(t, 1, created[0x27][1].halted)
}

func TestGobotBus_StartError(t *testing.T) {
	bus := newGobotBus(func(address byte) gobotDevice {
		return &fakeDevice{startErr: errors.New("no bus")}
	})
	err := bus.WriteToAddr(context.Background(), 0x27, []byte{0x01})
	assert.Error(t, err)
	assert.Empty(t, bus.devices)
}
