package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/displays"
	"github.com/mklimuk/displays/adapter"
	"github.com/mklimuk/displays/config"
	"github.com/mklimuk/displays/display"
	"github.com/mklimuk/displays/hd44780"
	"github.com/mklimuk/displays/i2c"
	"github.com/mklimuk/displays/port"
	"github.com/mklimuk/displays/snsctx"
)

const (
	adapterMCP2221 = "mcp2221"
	adapterPeriph  = "periph"
	adapterNanoPi  = "nanopi"
	adapterGPIO    = "gpio"
	adapterMock    = "mock"
)

var errMockAdapter = errors.New("not available with the mock adapter")

func loadConfig(c *cli.Context) (config.Display, error) {
	cfg := config.DefaultLCM1602()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if bus := c.String("bus"); bus != "" {
		cfg.Bus = bus
	}
	return cfg, nil
}

// openBus opens the I2C transport selected by --adapter. The returned func
// closes it.
func openBus(c *cli.Context, cfg config.Display) (displays.I2CBus, func() error, error) {
	switch c.String("adapter") {
	case adapterMCP2221:
		return adapter.NewMCP2221(), func() error { return nil }, nil
	case adapterPeriph:
		bus, err := i2c.NewGenericBus(cfg.Bus)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	case adapterNanoPi:
		nr := 0
		if cfg.Bus != "" {
			var err error
			nr, err = strconv.Atoi(cfg.Bus)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid nanopi bus number %q: %w", cfg.Bus, err)
			}
		}
		bus, err := i2c.NewNanoPiBus(nr)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	case adapterMock, adapterGPIO:
		return nil, nil, fmt.Errorf("adapter %s has no i2c bus", c.String("adapter"))
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
	}
}

func gpioNames(c *cli.Context) ([8]string, error) {
	var names [8]string
	pins := c.StringSlice("gpio-pins")
	if len(pins) != 8 {
		return names, fmt.Errorf("expected 8 gpio pin names, got %d", len(pins))
	}
	for i, name := range pins {
		if name != "-" {
			names[i] = name
		}
	}
	return names, nil
}

// openPort opens the bare expander port described by the configuration.
func openPort(c *cli.Context) (hd44780.Port, func() error, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	switch c.String("adapter") {
	case adapterMock:
		return nil, nil, errMockAdapter
	case adapterGPIO:
		names, err := gpioNames(c)
		if err != nil {
			return nil, nil, err
		}
		p, err := port.OpenGPIO(names)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
	bus, closeBus, err := openBus(c, cfg)
	if err != nil {
		return nil, nil, err
	}
	p, err := cfg.Opener(bus)(c.Context)
	if err != nil {
		_ = closeBus()
		return nil, nil, err
	}
	return p, func() error {
		return errors.Join(p.Close(), closeBus())
	}, nil
}

// session is a connected display for the duration of one command.
type session struct {
	display display.CharacterDisplay
	mock    *display.MockCharacterDisplay
	close   func() error
}

func openDisplay(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	ctx := c.Context
	logger := snsctx.Logger(ctx)
	var d display.CharacterDisplay
	s := &session{close: func() error { return nil }}
	switch c.String("adapter") {
	case adapterMock:
		s.mock = display.NewMockCharacterDisplay(cfg.Width, cfg.Height, cfg.PinMap().HasBackLight())
		d = s.mock
	case adapterGPIO:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		names, err := gpioNames(c)
		if err != nil {
			return nil, err
		}
		open := func(ctx context.Context) (hd44780.Port, error) {
			p, err := port.OpenGPIO(names)
			if err != nil {
				return nil, err
			}
			return p, nil
		}
		d, err = hd44780.New(open, cfg.Width, cfg.Height, cfg.PinMap(), hd44780.WithLogger(logger))
		if err != nil {
			return nil, err
		}
	default:
		bus, closeBus, err := openBus(c, cfg)
		if err != nil {
			return nil, err
		}
		d, err = cfg.NewDisplay(bus, hd44780.WithLogger(logger))
		if err != nil {
			_ = closeBus()
			return nil, err
		}
		s.close = closeBus
	}
	if err := d.Connect(ctx); err != nil {
		_ = s.close()
		return nil, err
	}
	s.display = d
	logger.Debug("display connected", "adapter", c.String("adapter"), "width", cfg.Width, "height", cfg.Height)
	return s, nil
}

// Close disconnects the display and closes the bus. With the mock adapter
// the display content is printed first.
func (s *session) Close(ctx context.Context) error {
	if s.mock != nil {
		renderMock(s.mock)
	}
	return errors.Join(s.display.Disconnect(ctx), s.close())
}
