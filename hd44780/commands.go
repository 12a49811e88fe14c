package hd44780

// Instruction set, see https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
const (
	cmdClearDisplay   = 0x01
	cmdReturnHome     = 0x02
	cmdEntryIncrement = 0x06
	cmdDisplayControl = 0x08
	cmdFunction8Bit   = 0x30
	cmdFunction4Bit   = 0x20
	cmdSetCGRAM       = 0x40
	cmdSetDDRAM       = 0x80

	flagDisplayOn = 0x04
	flagCursorOn  = 0x02
	flagBlinkOn   = 0x01
	flagTwoLines  = 0x08

	statusBusy = 0x80
)

// DDRAM addresses for the start of lines 1 and 2
const (
	LineOne = 0x00
	LineTwo = 0x40
)

// MaxWidth is the length of a DDRAM line in two-line mode.
const MaxWidth = 40

const space = 0x20

// CGRAM holds 8 glyphs of 8 rows each.
const (
	cgramSlots    = 8
	cgramSlotSize = 8
)

// BarGraphGlyphs are the 5x7 patterns for 0 to 5 filled columns, loaded at
// CGRAM addresses 0x00, 0x08, ... 0x28 so that character code n shows n columns.
var BarGraphGlyphs = [6][8]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x10, 0x00},
	{0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x00},
	{0x1C, 0x1C, 0x1C, 0x1C, 0x1C, 0x1C, 0x1C, 0x00},
	{0x1E, 0x1E, 0x1E, 0x1E, 0x1E, 0x1E, 0x1E, 0x00},
	{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x00},
}
