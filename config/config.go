// Package config describes how a character display is wired and loads that
// description from YAML.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/displays"
	"github.com/mklimuk/displays/hd44780"
	"github.com/mklimuk/displays/port"
)

var ErrInvalidConfig = errors.New("invalid display configuration")

// Pins assigns display signals to expander pins [0:7]. E2 and BL are
// optional.
type Pins struct {
	E  int  `yaml:"e"`
	E2 *int `yaml:"e2,omitempty"`
	RS int  `yaml:"rs"`
	RW int  `yaml:"rw"`
	D4 int  `yaml:"d4"`
	D5 int  `yaml:"d5"`
	D6 int  `yaml:"d6"`
	D7 int  `yaml:"d7"`
	BL *int `yaml:"bl,omitempty"`
}

// Display is the configuration of one LCD behind an I/O expander.
//
// Example:
//
//	width: 20
//	height: 4
//	variant: pcf8574
//	address: 7
//	pins: {e: 2, rs: 0, rw: 1, d4: 4, d5: 5, d6: 6, d7: 7, bl: 3}
type Display struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Bus    string `yaml:"bus,omitempty"`
	// Address is the A2..A0 strap value, the bus address is derived from
	// the variant
	Address   byte          `yaml:"address"`
	Variant   port.Variant  `yaml:"variant"`
	Pins      Pins          `yaml:"pins"`
	InitDelay time.Duration `yaml:"init_delay,omitempty"`
}

func pin(n int) *int {
	return &n
}

// DefaultLCM1602 is a 16x2 display on a PCF8574 backpack at 0x27.
func DefaultLCM1602() Display {
	return Display{
		Width:   16,
		Height:  2,
		Address: 7,
		Variant: port.VariantPCF8574,
		Pins: Pins{
			RS: 0,
			RW: 1,
			E:  2,
			BL: pin(3),
			D4: 4,
			D5: 5,
			D6: 6,
			D7: 7,
		},
	}
}

// Load reads a display configuration from a YAML file. Fields missing from
// the file keep their DefaultLCM1602 values.
func Load(path string) (Display, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Display{}, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Display, error) {
	d := DefaultLCM1602()
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Display{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := d.Validate(); err != nil {
		return Display{}, err
	}
	return d, nil
}

func (d Display) Validate() error {
	if d.Width <= 0 || d.Width > hd44780.MaxWidth || d.Height <= 0 || d.Height > 4 {
		return fmt.Errorf("%w: geometry %dx%d", ErrInvalidConfig, d.Width, d.Height)
	}
	if d.Address > 7 {
		return fmt.Errorf("%w: address strap %d out of range [0:7]", ErrInvalidConfig, d.Address)
	}
	switch d.Variant {
	case port.VariantPCF8574, port.VariantPCF8574A, port.VariantMCP23017:
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidConfig, d.Variant)
	}
	if d.InitDelay < 0 {
		return fmt.Errorf("%w: negative init delay", ErrInvalidConfig)
	}
	pins := d.PinMap()
	if err := pins.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if d.DualController() && !pins.HasE2() {
		return fmt.Errorf("%w: %dx%d needs pin e2", ErrInvalidConfig, d.Width, d.Height)
	}
	return nil
}

// DualController reports whether the geometry needs two HD44780 chips.
func (d Display) DualController() bool {
	return d.Width*d.Height > 80
}

func (d Display) BusAddress() byte {
	return port.Address(d.Variant, d.Address)
}

func (d Display) PinMap() hd44780.PinMap {
	m := hd44780.PinMap{
		E:    d.Pins.E,
		E2:   hd44780.NoPin,
		RS:   d.Pins.RS,
		RW:   d.Pins.RW,
		Data: [4]int{d.Pins.D4, d.Pins.D5, d.Pins.D6, d.Pins.D7},
		BL:   hd44780.NoPin,
	}
	if d.Pins.E2 != nil {
		m.E2 = *d.Pins.E2
	}
	if d.Pins.BL != nil {
		m.BL = *d.Pins.BL
	}
	return m
}

// Opener returns an hd44780.Opener creating the expander port on bus.
func (d Display) Opener(bus displays.I2CBus) hd44780.Opener {
	return func(ctx context.Context) (hd44780.Port, error) {
		if d.Variant == port.VariantMCP23017 {
			p := port.NewMCP23017(bus, d.BusAddress())
			if err := p.Init(ctx); err != nil {
				_ = p.Close()
				return nil, err
			}
			return p, nil
		}
		return port.NewPCF8574(displays.NewDevice(bus, d.BusAddress())), nil
	}
}

// NewDisplay validates the configuration and builds a driver talking to bus.
// The display still needs Connect.
func (d Display) NewDisplay(bus displays.I2CBus, opts ...hd44780.Opt) (*hd44780.HD44780, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.InitDelay > 0 {
		opts = append([]hd44780.Opt{hd44780.WithInitDelay(d.InitDelay)}, opts...)
	}
	return hd44780.New(d.Opener(bus), d.Width, d.Height, d.PinMap(), opts...)
}

// Encode writes d as YAML.
func (d Display) Encode() ([]byte, error) {
	return yaml.Marshal(d)
}
