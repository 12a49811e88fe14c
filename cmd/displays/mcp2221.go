package main

import (
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/displays/adapter"
	"github.com/mklimuk/displays/cmd/displays/console"
)

var deviceFlag = &cli.IntFlag{
	Name:  "device",
	Value: -1,
	Usage: "bridge index from 'usb detect' when several are connected",
}

func newBridge(c *cli.Context) *adapter.MCP2221 {
	if c.Int("device") >= 0 {
		return adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("device")))
	}
	return adapter.NewMCP2221()
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "USB to I2C bridge maintenance",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221SpeedCmd,
	},
}

func dumpStatus(status *adapter.MCP2221Status) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer func() { _ = enc.Close() }()
	err := enc.Encode(status)
	if err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Flags: []cli.Flag{deviceFlag},
	Action: func(c *cli.Context) error {
		status, err := newBridge(c).Status(c.Context)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return dumpStatus(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a stuck I2C transfer",
	Flags: []cli.Flag{deviceFlag},
	Action: func(c *cli.Context) error {
		status, err := newBridge(c).ReleaseBus(c.Context)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return dumpStatus(status)
	},
}

var mcp2221SpeedCmd = cli.Command{
	Name:      "speed",
	Usage:     "set the I2C clock",
	ArgsUsage: "HZ",
	Flags:     []cli.Flag{deviceFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		hz, err := strconv.Atoi(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not parse speed: %v", err)
		}
		if err := newBridge(c).SetSpeed(c.Context, hz); err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		console.Infof("i2c clock set to %dHz", hz)
		return nil
	},
}
