package main

import (
	"encoding/hex"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/displays/cmd/displays/console"
)

var portCmd = cli.Command{
	Name:  "port",
	Usage: "raw access to the expander port behind the display (output cache starts at 0x00)",
	Subcommands: cli.Commands{
		&portWriteCmd,
		&portPinCmd,
		&portReadCmd,
	},
}

type valuer interface {
	Value() byte
}

func parseHexByte(arg string) (byte, error) {
	b, err := hex.DecodeString(arg)
	if err != nil {
		return 0, err
	}
	if len(b) != 1 {
		return 0, hex.ErrLength
	}
	return b[0], nil
}

var portWriteCmd = cli.Command{
	Name:      "write",
	Usage:     "masked write: bits set in MASK keep their value, the rest come from DATA",
	ArgsUsage: "MASK DATA (hex)",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		mask, err := parseHexByte(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not decode mask: %v", err)
		}
		data, err := parseHexByte(c.Args().Get(1))
		if err != nil {
			return console.Exit(1, "could not decode data: %v", err)
		}
		p, closePort, err := openPort(c)
		if err != nil {
			return console.Exit(1, "could not open port: %s", console.Red(err))
		}
		defer func() { _ = closePort() }()
		if err := p.WriteMasked(c.Context, mask, data); err != nil {
			return console.Exit(1, "write error: %s", console.Red(err))
		}
		if v, ok := p.(valuer); ok {
			console.Printf("port value: %s\n", console.White(hex.EncodeToString([]byte{v.Value()})))
		}
		return nil
	},
}

var portPinCmd = cli.Command{
	Name:      "pin",
	Usage:     "set a single pin",
	ArgsUsage: "N on|off",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		pin, err := strconv.Atoi(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not parse pin: %v", err)
		}
		on, err := parseSwitch(c.Args().Get(1))
		if err != nil {
			return console.Exit(1, "%v", err)
		}
		p, closePort, err := openPort(c)
		if err != nil {
			return console.Exit(1, "could not open port: %s", console.Red(err))
		}
		defer func() { _ = closePort() }()
		if err := p.SetPin(c.Context, pin, on); err != nil {
			return console.Exit(1, "write error: %s", console.Red(err))
		}
		return nil
	},
}

var portReadCmd = cli.Command{
	Name:  "read",
	Usage: "sample the pin levels",
	Action: func(c *cli.Context) error {
		p, closePort, err := openPort(c)
		if err != nil {
			return console.Exit(1, "could not open port: %s", console.Red(err))
		}
		defer func() { _ = closePort() }()
		in, err := p.ReadInput(c.Context)
		if err != nil {
			return console.Exit(1, "read error: %s", console.Red(err))
		}
		console.Printf("\nI/O: %#X (%08b)\n", in, in)
		return nil
	},
}
