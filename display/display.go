// Package display defines the character display surface and renderers built
// on top of it.
package display

import "context"

// CharacterDisplay is a text display addressed by line. Lines are numbered
// [1:Height]; custom glyphs are 5x8 patterns stored at addresses 0x00, 0x08,
// ... 0x38 and shown as character codes 0 to 7.
type CharacterDisplay interface {
	// Connect initialises the display.
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	// Enable switches the display on or off without losing its content.
	Enable(ctx context.Context, enable bool) error
	Print(ctx context.Context, line int, text string) error
	ClearLine(ctx context.Context, line int) error
	ClearDisplay(ctx context.Context) error
	EnableBackLight(ctx context.Context, enable bool) error
	HasBackLight() bool
	Width() int
	Height() int
	SetCustomCharacter(ctx context.Context, address int, pattern [8]byte) error
	// AllocCustomCharacter stores pattern in a free or reusable slot and
	// returns its address.
	AllocCustomCharacter(ctx context.Context, pattern [8]byte) (int, error)
	// InitBarGraph loads the glyphs used by BarGraph into slots 0 to 5.
	// Glyphs still loaded since the last Connect are left alone, so calling
	// it before every render is cheap.
	InitBarGraph(ctx context.Context) error
}
