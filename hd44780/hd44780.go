// Package hd44780 drives HD44780 compatible character LCDs through an 8-bit
// port wired to the display's 4-bit bus.
//
// Displays with more than 80 characters (e.g. 40x4) carry two controllers
// sharing every line except Enable. Lines 1 and 2 live on the first
// controller, lines 3 and 4 on the second; the driver selects the right Enable
// line per call and always returns to the first controller.
//
// Datasheet: https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/displays/display"
)

var _ display.CharacterDisplay = &HD44780{}

var (
	ErrInvalidAddress  = errors.New("invalid CGRAM address")
	ErrInvalidGeometry = errors.New("invalid display geometry")
)

// Port is the capability the driver needs from the transport: masked writes
// over an 8-bit output register.
type Port interface {
	WriteMasked(ctx context.Context, mask, data byte) error
	SetPin(ctx context.Context, pin int, state bool) error
	ReadInput(ctx context.Context) (byte, error)
	Close() error
}

// Opener creates the port when the display connects.
type Opener func(ctx context.Context) (Port, error)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateReady:
		return "READY"
	default:
		return "DISCONNECTED"
	}
}

type Opts struct {
	InitDelay time.Duration
	Logger    *slog.Logger
}

type Opt func(*Opts)

// WithInitDelay sets the pause after the first function set of the
// initialisation handshake. The datasheet requires more than 4.1ms from a
// cold start; the default of 2ms assumes the port round trip covers the rest.
func WithInitDelay(delay time.Duration) Opt {
	return func(o *Opts) {
		o.InitDelay = delay
	}
}

func WithLogger(logger *slog.Logger) Opt {
	return func(o *Opts) {
		o.Logger = logger
	}
}

type slot struct {
	pattern [8]byte
	used    bool
}

// HD44780 represents a character LCD with one or two HD44780 controllers.
//
// Operations before Connect and after Disconnect do nothing and return nil.
// Transport errors abort the current operation and are returned; the port
// keeps its last good value so the next call starts from a consistent state.
type HD44780 struct {
	mx     sync.Mutex
	open   Opener
	port   Port
	pins   PinMap
	width  int
	height int
	state  State
	config Opts

	slots     [cgramSlots]slot
	nextEvict int
}

func New(open Opener, width, height int, pins PinMap, opts ...Opt) (*HD44780, error) {
	if width <= 0 || width > MaxWidth || height <= 0 || height > 4 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, width, height)
	}
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	if width*height > 80 && !pins.HasE2() {
		return nil, fmt.Errorf("%w: %dx%d needs a second enable pin", ErrInvalidPinMap, width, height)
	}
	config := Opts{
		InitDelay: 2 * time.Millisecond,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &HD44780{
		open:   open,
		pins:   pins,
		width:  width,
		height: height,
		config: config,
	}, nil
}

func (d *HD44780) Width() int {
	return d.width
}

func (d *HD44780) Height() int {
	return d.height
}

func (d *HD44780) HasBackLight() bool {
	return d.pins.HasBackLight()
}

func (d *HD44780) State() State {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.state
}

func (d *HD44780) dual() bool {
	return d.width*d.height > 80
}

func (d *HD44780) controllers() []int {
	if d.dual() {
		return []int{1, 2}
	}
	return []int{1}
}

// Connect opens the port and initialises every controller. Connecting a
// ready display does nothing.
func (d *HD44780) Connect(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateDisconnected {
		return nil
	}
	d.state = StateConnecting
	p, err := d.open(ctx)
	if err != nil {
		d.state = StateDisconnected
		return fmt.Errorf("hd44780: could not open port: %w", err)
	}
	err = d.initialise(ctx, p)
	if err != nil {
		_ = p.Close()
		d.state = StateDisconnected
		return fmt.Errorf("hd44780: initialisation failed: %w", err)
	}
	d.port = p
	d.slots = [cgramSlots]slot{}
	d.nextEvict = 0
	d.state = StateReady
	d.config.Logger.Debug("hd44780: display ready", "width", d.width, "height", d.height, "controllers", len(d.controllers()))
	return nil
}

func (d *HD44780) initialise(ctx context.Context, p Port) error {
	// E, RS, R/W and data low before the first strobe
	if err := p.WriteMasked(ctx, 0x00, 0x00); err != nil {
		return err
	}
	for _, c := range d.controllers() {
		if err := d.initController(ctx, newBus(p, d.pins, c)); err != nil {
			return err
		}
	}
	return nil
}

// initController runs the reset-by-instruction sequence. The three 8-bit
// function sets resynchronise the controller whatever mode it was left in.
func (d *HD44780) initController(ctx context.Context, b *bus) error {
	b.fourBit = false
	if err := b.command(ctx, cmdFunction8Bit); err != nil {
		return err
	}
	time.Sleep(d.config.InitDelay)
	for _, cmd := range []byte{cmdFunction8Bit, cmdFunction8Bit, cmdFunction4Bit} {
		if err := b.command(ctx, cmd); err != nil {
			return err
		}
	}
	b.fourBit = true
	sequence := []byte{
		cmdFunction4Bit | flagTwoLines,
		cmdDisplayControl,
		cmdClearDisplay,
		cmdEntryIncrement,
		cmdDisplayControl | flagDisplayOn,
	}
	for _, cmd := range sequence {
		if err := b.command(ctx, cmd); err != nil {
			return err
		}
	}
	d.config.Logger.Debug("hd44780: controller initialised", "controller", b.controller)
	return nil
}

// Disconnect closes the port. Calling it again does nothing.
func (d *HD44780) Disconnect(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	d.state = StateDisconnected
	if err != nil {
		d.config.Logger.Warn("hd44780: port close failed", "error", err)
	}
	return nil
}

// locate returns the controller and DDRAM address of the start of line.
// Lines outside the display fall back to line 1.
func (d *HD44780) locate(line int) (int, byte) {
	if line < 1 || line > d.height {
		line = 1
	}
	controller := 1
	if line > 2 && d.dual() {
		controller = 2
	}
	switch line {
	case 2:
		return controller, LineTwo
	case 3:
		return controller, LineOne + byte(d.width)
	case 4:
		return controller, LineTwo + byte(d.width)
	default:
		return controller, LineOne
	}
}

// Print writes text from the start of line [1:height]. Bytes go to the
// display as-is, so text is in the character ROM encoding and custom glyphs
// are codes 0x00-0x07.
func (d *HD44780) Print(ctx context.Context, line int, text string) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateReady {
		return nil
	}
	return d.print(ctx, line, []byte(text))
}

func (d *HD44780) print(ctx context.Context, line int, text []byte) error {
	controller, addr := d.locate(line)
	b := newBus(d.port, d.pins, controller)
	if err := b.command(ctx, cmdSetDDRAM|addr); err != nil {
		return fmt.Errorf("hd44780: print line %d: %w", line, err)
	}
	for _, c := range text {
		if err := b.data(ctx, c); err != nil {
			return fmt.Errorf("hd44780: print line %d: %w", line, err)
		}
	}
	return nil
}

// ClearLine fills line with spaces without touching other lines.
func (d *HD44780) ClearLine(ctx context.Context, line int) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateReady {
		return nil
	}
	return d.print(ctx, line, bytes.Repeat([]byte{space}, d.width))
}

// ClearDisplay clears the whole display and homes the cursor.
func (d *HD44780) ClearDisplay(ctx context.Context) error {
	return d.broadcast(ctx, cmdClearDisplay)
}

func (d *HD44780) Home(ctx context.Context) error {
	return d.broadcast(ctx, cmdReturnHome)
}

// SetDisplay switches the display, the underline cursor and cursor blink on
// or off.
func (d *HD44780) SetDisplay(ctx context.Context, on, cursor, blink bool) error {
	cmd := byte(cmdDisplayControl)
	if on {
		cmd |= flagDisplayOn
	}
	if cursor {
		cmd |= flagCursorOn
	}
	if blink {
		cmd |= flagBlinkOn
	}
	return d.broadcast(ctx, cmd)
}

// Enable switches the display on or off, keeping DDRAM content.
func (d *HD44780) Enable(ctx context.Context, enable bool) error {
	return d.SetDisplay(ctx, enable, false, false)
}

// broadcast sends cmd to every controller.
func (d *HD44780) broadcast(ctx context.Context, cmd byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateReady {
		return nil
	}
	for _, c := range d.controllers() {
		if err := newBus(d.port, d.pins, c).command(ctx, cmd); err != nil {
			return fmt.Errorf("hd44780: %w", err)
		}
	}
	return nil
}

// EnableBackLight drives the backlight pin. Without a backlight pin it does
// nothing.
func (d *HD44780) EnableBackLight(ctx context.Context, enable bool) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateReady || !d.pins.HasBackLight() {
		return nil
	}
	if err := d.port.SetPin(ctx, d.pins.BL, enable); err != nil {
		return fmt.Errorf("hd44780: backlight: %w", err)
	}
	return nil
}

// ReadStatus reads the busy flag and address counter of the first
// controller. Nothing in the driver depends on it; timing relies on the
// port's own latency.
func (d *HD44780) ReadStatus(ctx context.Context) (bool, byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state != StateReady {
		return false, 0, nil
	}
	value, err := newBus(d.port, d.pins, 1).read(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("hd44780: read status: %w", err)
	}
	return value&statusBusy != 0, value &^ statusBusy, nil
}
