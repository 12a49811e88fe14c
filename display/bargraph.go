package display

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Glyph codes loaded by CharacterDisplay.InitBarGraph: BarEmpty has no column
// filled, BarFull all 5.
const (
	BarEmpty byte = 0x00
	BarFull  byte = 0x05
)

const columnsPerCell = 5

// BarGraph shows a value as a horizontal bar across one display line. Each
// cell holds 5 columns, so a line of width w shows values [0:5w].
type BarGraph struct {
	mx    sync.Mutex
	line  int
	value int
}

func NewBarGraph(line int) *BarGraph {
	return &BarGraph{line: line}
}

// Set renders value on d, first loading any bar glyphs d lost on reconnect.
func (g *BarGraph) Set(ctx context.Context, d CharacterDisplay, value int) error {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.value = value
	if err := d.InitBarGraph(ctx); err != nil {
		return fmt.Errorf("bar graph: could not load glyphs: %w", err)
	}
	return d.Print(ctx, g.line, RenderBar(d.Width(), value))
}

// Value returns the last value set.
func (g *BarGraph) Value() int {
	g.mx.Lock()
	defer g.mx.Unlock()
	return g.value
}

// RenderBar returns exactly width glyph codes: value/5 full cells, one partial
// cell with value%5 columns, then empty cells.
func RenderBar(width, value int) string {
	if width <= 0 {
		return ""
	}
	value = max(0, min(value, width*columnsPerCell))
	full := value / columnsPerCell
	remainder := value % columnsPerCell

	var sb strings.Builder
	sb.Grow(width)
	for range full {
		sb.WriteByte(BarFull)
	}
	if remainder != 0 {
		sb.WriteByte(byte(remainder))
	}
	for sb.Len() < width {
		sb.WriteByte(BarEmpty)
	}
	return sb.String()
}
