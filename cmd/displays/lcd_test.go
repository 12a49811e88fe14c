package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/displays/display"
)

func TestExecShellLine(t *testing.T) {
	ctx := context.Background()
	d := display.NewMockCharacterDisplay(16, 2, true)
	require.NoError(t, d.Connect(ctx))
	bars := map[int]*display.BarGraph{}

	quit, err := execShellLine(ctx, d, bars, "1: hello world")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, "hello world     ", d.Line(1))

	_, err = execShellLine(ctx, d, bars, "2:time: 12:00")
	require.NoError(t, err)
	assert.Equal(t, "time: 12:00     ", d.Line(2))

	_, err = execShellLine(ctx, d, bars, "clear 1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat(" ", 16), d.Line(1))
	assert.Equal(t, "time: 12:00     ", d.Line(2))

	_, err = execShellLine(ctx, d, bars, "backlight on")
	require.NoError(t, err)
	assert.True(t, d.BackLight())

	_, err = execShellLine(ctx, d, bars, "bar 1 40")
	require.NoError(t, err)
	assert.Equal(t, display.RenderBar(16, 40), d.Line(1))
	_, err = execShellLine(ctx, d, bars, "bar 1 12")
	require.NoError(t, err)
	assert.Equal(t, 12, bars[1].Value())

	_, err = execShellLine(ctx, d, bars, "clear")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat(" ", 16), d.Line(2))

	quit, err = execShellLine(ctx, d, bars, "quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestExecShellLine_Errors(t *testing.T) {
	ctx := context.Background()
	d := display.NewMockCharacterDisplay(16, 2, true)
	require.NoError(t, d.Connect(ctx))
	for _, line := range []string{"dance", "clear x", "backlight", "backlight maybe", "bar 1", "bar x 1", "bar 1 x"} {
		_, err := execShellLine(ctx, d, map[int]*display.BarGraph{}, line)
		assert.Error(t, err, line)
	}
	quit, err := execShellLine(ctx, d, nil, "   ")
	assert.NoError(t, err)
	assert.False(t, quit)
}

func TestParseSwitch(t *testing.T) {
	on, err := parseSwitch("ON")
	require.NoError(t, err)
	assert.True(t, on)
	on, err = parseSwitch("off")
	require.NoError(t, err)
	assert.False(t, on)
	_, err = parseSwitch("toggle")
	assert.Error(t, err)
}

func TestParseHexByte(t *testing.T) {
	b, err := parseHexByte("F7")
	require.NoError(t, err)
	assert.Equal(t, byte(0xF7), b)
	_, err = parseHexByte("0F0F")
	assert.Error(t, err)
	_, err = parseHexByte("zz")
	assert.Error(t, err)
}
