package display

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

var _ CharacterDisplay = &MockCharacterDisplay{}

// MockCharacterDisplay is an in-memory CharacterDisplay. It keeps one buffer
// per line and the loaded glyphs so output can be inspected without hardware.
// Like a real display it ignores calls until connected.
//
// Example usage:
//
//	d := NewMockCharacterDisplay(16, 2, true)
//	_ = d.Connect(ctx)
//	_ = d.Print(ctx, 1, "hello")
//	fmt.Println(d.Line(1))
type MockCharacterDisplay struct {
	mx           sync.Mutex
	width        int
	height       int
	hasBackLight bool
	connected    bool
	enabled      bool
	backLight    bool
	lines        [][]byte
	glyphs       [8][8]byte
	used         [8]bool
	nextEvict    int
	glyphLoads   int
}

func NewMockCharacterDisplay(width, height int, hasBackLight bool) *MockCharacterDisplay {
	m := &MockCharacterDisplay{width: width, height: height, hasBackLight: hasBackLight}
	m.clear()
	return m
}

func (m *MockCharacterDisplay) clear() {
	m.lines = make([][]byte, m.height)
	for i := range m.lines {
		m.lines[i] = bytes.Repeat([]byte{' '}, m.width)
	}
}

func (m *MockCharacterDisplay) Connect(ctx context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.connected {
		return nil
	}
	m.connected = true
	m.enabled = true
	m.glyphs = [8][8]byte{}
	m.used = [8]bool{}
	m.clear()
	return nil
}

func (m *MockCharacterDisplay) Disconnect(ctx context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.connected = false
	return nil
}

func (m *MockCharacterDisplay) Enable(ctx context.Context, enable bool) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.connected {
		m.enabled = enable
	}
	return nil
}

func (m *MockCharacterDisplay) index(line int) int {
	if line < 1 || line > m.height {
		return 0
	}
	return line - 1
}

// Print overwrites line from its first column. Text beyond the width is
// dropped.
func (m *MockCharacterDisplay) Print(ctx context.Context, line int, text string) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.connected {
		return nil
	}
	copy(m.lines[m.index(line)], text)
	return nil
}

func (m *MockCharacterDisplay) ClearLine(ctx context.Context, line int) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.connected {
		return nil
	}
	copy(m.lines[m.index(line)], bytes.Repeat([]byte{' '}, m.width))
	return nil
}

func (m *MockCharacterDisplay) ClearDisplay(ctx context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.connected {
		m.clear()
	}
	return nil
}

func (m *MockCharacterDisplay) EnableBackLight(ctx context.Context, enable bool) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.connected && m.hasBackLight {
		m.backLight = enable
	}
	return nil
}

func (m *MockCharacterDisplay) HasBackLight() bool {
	return m.hasBackLight
}

func (m *MockCharacterDisplay) Width() int {
	return m.width
}

func (m *MockCharacterDisplay) Height() int {
	return m.height
}

func (m *MockCharacterDisplay) SetCustomCharacter(ctx context.Context, address int, pattern [8]byte) error {
	if address < 0 || address > 0x38 || address%8 != 0 {
		return fmt.Errorf("invalid custom character address %#02x", address)
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.connected {
		return nil
	}
	m.glyphs[address/8] = pattern
	m.used[address/8] = true
	return nil
}

func (m *MockCharacterDisplay) AllocCustomCharacter(ctx context.Context, pattern [8]byte) (int, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.connected {
		return 0, nil
	}
	free := -1
	for i := range m.glyphs {
		if m.used[i] && m.glyphs[i] == pattern {
			return i * 8, nil
		}
		if !m.used[i] && free < 0 {
			free = i
		}
	}
	if free < 0 {
		free = m.nextEvict
		m.nextEvict = (m.nextEvict + 1) % 8
	}
	m.glyphs[free] = pattern
	m.used[free] = true
	return free * 8, nil
}

func (m *MockCharacterDisplay) InitBarGraph(ctx context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if !m.connected {
		return nil
	}
	for i := range int(BarFull) + 1 {
		var row byte
		for c := range i {
			row |= 0x10 >> c
		}
		glyph := [8]byte{row, row, row, row, row, row, row, 0x00}
		if m.used[i] && m.glyphs[i] == glyph {
			continue
		}
		m.glyphs[i] = glyph
		m.used[i] = true
		m.glyphLoads++
	}
	return nil
}

// GlyphLoads counts the glyphs written by InitBarGraph.
func (m *MockCharacterDisplay) GlyphLoads() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.glyphLoads
}

// Line returns the current content of line [1:height].
func (m *MockCharacterDisplay) Line(line int) string {
	m.mx.Lock()
	defer m.mx.Unlock()
	return string(m.lines[m.index(line)])
}

// Glyph returns the pattern loaded at address.
func (m *MockCharacterDisplay) Glyph(address int) [8]byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.glyphs[(address/8)%8]
}

func (m *MockCharacterDisplay) BackLight() bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.backLight
}

func (m *MockCharacterDisplay) Enabled() bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.enabled
}
