package displays

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestDevice_ReadWrite(t *testing.T) {
	bus := new(MockI2CBus)
	dev := NewDevice(bus, 0x27)
	ctx := context.Background()

	bus.On("WriteToAddr", ctx, byte(0x27), []byte{0xAA}).Return(nil).Once()
	bus.On("ReadFromAddr", ctx, byte(0x27), mock.Anything).Return([]byte{0x5A}, nil).Once()

	require.NoError(t, dev.Write(ctx, []byte{0xAA}))
	buf := make([]byte, 1)
	require.NoError(t, dev.Read(ctx, buf))
	assert.Equal(t, byte(0x5A), buf[0])
	assert.Equal(t, byte(0x27), dev.Address())
	bus.AssertExpectations(t)
}

func TestDevice_CloseReleasesOnce(t *testing.T) {
	bus := new(MockI2CBus)
	dev := NewDevice(bus, 0x3F)
	bus.On("Release", mock.Anything).Return(nil).Once()

	assert.NoError(t, dev.Close())
	assert.NoError(t, dev.Close())
	assert.Error(t, dev.Write(context.Background(), []byte{0x00}))
	bus.AssertNumberOfCalls(t, "Release", 1)
}
