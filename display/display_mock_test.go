package display

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCharacterDisplay_IgnoresCallsUntilConnected(t *testing.T) {
	ctx := context.Background()
	d := NewMockCharacterDisplay(8, 2, true)

	require.NoError(t, d.Print(ctx, 1, "hello"))
	require.NoError(t, d.EnableBackLight(ctx, true))
	assert.Equal(t, "        ", d.Line(1))
	assert.False(t, d.BackLight())

	require.NoError(t, d.Connect(ctx))
	require.NoError(t, d.Print(ctx, 1, "hello"))
	require.NoError(t, d.EnableBackLight(ctx, true))
	assert.Equal(t, "hello   ", d.Line(1))
	assert.True(t, d.BackLight())
}

func TestMockCharacterDisplay_Lines(t *testing.T) {
	ctx := context.Background()
	d := NewMockCharacterDisplay(8, 2, false)
	require.NoError(t, d.Connect(ctx))

	require.NoError(t, d.Print(ctx, 2, "overflowing"))
	assert.Equal(t, "overflow", d.Line(2))

	// out of range goes to line 1
	require.NoError(t, d.Print(ctx, 5, "x"))
	assert.Equal(t, "x       ", d.Line(1))

	require.NoError(t, d.ClearLine(ctx, 2))
	assert.Equal(t, "        ", d.Line(2))
	assert.Equal(t, "x       ", d.Line(1))

	require.NoError(t, d.ClearDisplay(ctx))
	assert.Equal(t, "        ", d.Line(1))
}

func TestMockCharacterDisplay_BackLightNotDeclared(t *testing.T) {
	ctx := context.Background()
	d := NewMockCharacterDisplay(8, 2, false)
	require.NoError(t, d.Connect(ctx))
	assert.NoError(t, d.EnableBackLight(ctx, true))
	assert.False(t, d.HasBackLight())
	assert.False(t, d.BackLight())
}

func TestMockCharacterDisplay_AllocCustomCharacter(t *testing.T) {
	ctx := context.Background()
	d := NewMockCharacterDisplay(8, 2, false)
	require.NoError(t, d.Connect(ctx))

	a := [8]byte{1}
	b := [8]byte{2}
	addrA, err := d.AllocCustomCharacter(ctx, a)
	require.NoError(t, err)
	addrB, err := d.AllocCustomCharacter(ctx, b)
	require.NoError(t, err)
	again, err := d.AllocCustomCharacter(ctx, a)
	require.NoError(t, err)

	assert.Equal(t, 0x00, addrA)
	assert.Equal(t, 0x08, addrB)
	assert.Equal(t, addrA, again)
	assert.Error(t, d.SetCustomCharacter(ctx, 0x03, a))
}
