package display

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBar(t *testing.T) {
	full := string(BarFull)
	empty := string(BarEmpty)
	tests := []struct {
		name     string
		width    int
		value    int
		expected string
	}{
		{"zero", 16, 0, strings.Repeat(empty, 16)},
		{"full", 16, 80, strings.Repeat(full, 16)},
		{"over full", 16, 200, strings.Repeat(full, 16)},
		{"partial", 16, 37, strings.Repeat(full, 7) + "\x02" + strings.Repeat(empty, 8)},
		{"exact cells", 16, 40, strings.Repeat(full, 8) + strings.Repeat(empty, 8)},
		{"one column", 16, 1, "\x01" + strings.Repeat(empty, 15)},
		{"last partial", 16, 79, strings.Repeat(full, 15) + "\x04"},
		{"negative", 8, -3, strings.Repeat(empty, 8)},
		{"no width", 0, 10, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bar := RenderBar(test.width, test.value)
			assert.Equal(t, test.expected, bar)
			assert.Len(t, bar, max(test.width, 0))
		})
	}
}

func TestRenderBar_AlwaysWidth(t *testing.T) {
	for width := 1; width <= 40; width++ {
		for value := 0; value <= width*5+5; value++ {
			bar := RenderBar(width, value)
			require.Len(t, bar, width, "width %d value %d", width, value)
			sum := 0
			for i := 0; i < len(bar); i++ {
				sum += int(bar[i])
			}
			require.Equal(t, min(value, width*5), sum, "width %d value %d", width, value)
		}
	}
}

func TestBarGraph_Set(t *testing.T) {
	ctx := context.Background()
	d := NewMockCharacterDisplay(16, 2, false)
	require.NoError(t, d.Connect(ctx))

	g := NewBarGraph(2)
	require.NoError(t, g.Set(ctx, d, 37))
	assert.Equal(t, 37, g.Value())
	assert.Equal(t, RenderBar(16, 37), d.Line(2))
	assert.Equal(t, strings.Repeat(" ", 16), d.Line(1))
	assert.Equal(t, [8]byte{0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x00}, d.Glyph(0x10))
	assert.Equal(t, [8]byte{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x00}, d.Glyph(0x28))

	require.NoError(t, g.Set(ctx, d, 0))
	assert.Equal(t, strings.Repeat(string(BarEmpty), 16), d.Line(2))
}

type failingDisplay struct {
	*MockCharacterDisplay
	initCalls int
}

func (f *failingDisplay) InitBarGraph(ctx context.Context) error {
	f.initCalls++
	if f.initCalls == 1 {
		return errors.New("bus down")
	}
	return f.MockCharacterDisplay.InitBarGraph(ctx)
}

func TestBarGraph_RetriesGlyphLoad(t *testing.T) {
	ctx := context.Background()
	d := &failingDisplay{MockCharacterDisplay: NewMockCharacterDisplay(8, 1, false)}
	require.NoError(t, d.Connect(ctx))

	g := NewBarGraph(1)
	assert.Error(t, g.Set(ctx, d, 10))
	require.NoError(t, g.Set(ctx, d, 10))
	require.NoError(t, g.Set(ctx, d, 12))
	assert.Equal(t, 3, d.initCalls)
	assert.Equal(t, RenderBar(8, 12), d.Line(1))
}

func TestBarGraph_ReloadsGlyphsAfterConnect(t *testing.T) {
	ctx := context.Background()
	fullGlyph := [8]byte{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x00}
	d := NewMockCharacterDisplay(8, 1, false)
	g := NewBarGraph(1)

	// before Connect the display ignores everything
	require.NoError(t, g.Set(ctx, d, 5))
	require.NoError(t, d.Connect(ctx))
	require.NoError(t, g.Set(ctx, d, 10))
	assert.Equal(t, fullGlyph, d.Glyph(0x28))
	assert.Equal(t, RenderBar(8, 10), d.Line(1))
	assert.Equal(t, 6, d.GlyphLoads())

	require.NoError(t, g.Set(ctx, d, 11))
	assert.Equal(t, 6, d.GlyphLoads(), "resident glyphs are not written again")

	require.NoError(t, d.Disconnect(ctx))
	require.NoError(t, d.Connect(ctx))
	assert.Equal(t, [8]byte{}, d.Glyph(0x28))
	require.NoError(t, g.Set(ctx, d, 12))
	assert.Equal(t, fullGlyph, d.Glyph(0x28))
	assert.Equal(t, RenderBar(8, 12), d.Line(1))
	assert.Equal(t, 12, d.GlyphLoads())
}
