package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/displays/cmd/displays/console"
	"github.com/mklimuk/displays/display"
)

var lineFlag = &cli.IntFlag{
	Name:    "line",
	Aliases: []string{"l"},
	Value:   1,
	Usage:   "display line [1:height]",
}

var lcdCmd = cli.Command{
	Name:  "lcd",
	Usage: "drive a character LCD",
	Subcommands: cli.Commands{
		&lcdPrintCmd,
		&lcdClearCmd,
		&lcdBackLightCmd,
		&lcdBarGraphCmd,
		&lcdStatusCmd,
		&lcdShellCmd,
		&lcdConfigCmd,
	},
}

// withDisplay runs fn against a connected display and disconnects afterwards.
func withDisplay(c *cli.Context, fn func(ctx context.Context, d display.CharacterDisplay) error) error {
	s, err := openDisplay(c)
	if err != nil {
		return console.Exit(1, "could not connect display: %s", console.Red(err))
	}
	err = fn(c.Context, s.display)
	if cerr := s.Close(c.Context); cerr != nil {
		console.Warnf("could not close display: %v", cerr)
	}
	if err != nil {
		return console.Exit(1, "display error: %s", console.Red(err))
	}
	return nil
}

var lcdPrintCmd = cli.Command{
	Name:      "print",
	Usage:     "print text on a line",
	ArgsUsage: "TEXT",
	Flags:     []cli.Flag{lineFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return console.Exit(1, "expected text to print")
		}
		text := strings.Join(c.Args().Slice(), " ")
		return withDisplay(c, func(ctx context.Context, d display.CharacterDisplay) error {
			return d.Print(ctx, c.Int("line"), text)
		})
	},
}

var lcdClearCmd = cli.Command{
	Name:  "clear",
	Usage: "clear the display or a single line",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "line", Aliases: []string{"l"}, Usage: "clear only this line"},
	},
	Action: func(c *cli.Context) error {
		return withDisplay(c, func(ctx context.Context, d display.CharacterDisplay) error {
			if c.IsSet("line") {
				return d.ClearLine(ctx, c.Int("line"))
			}
			return d.ClearDisplay(ctx)
		})
	},
}

var lcdBackLightCmd = cli.Command{
	Name:      "backlight",
	Usage:     "switch the backlight",
	ArgsUsage: "on|off",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		on, err := parseSwitch(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "%v", err)
		}
		return withDisplay(c, func(ctx context.Context, d display.CharacterDisplay) error {
			if !d.HasBackLight() {
				console.Warnf("display has no backlight pin")
			}
			return d.EnableBackLight(ctx, on)
		})
	},
}

var lcdBarGraphCmd = cli.Command{
	Name:      "bargraph",
	Usage:     "draw a horizontal bar, 5 steps per character",
	ArgsUsage: "VALUE",
	Flags:     []cli.Flag{lineFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		value, err := strconv.Atoi(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not parse value: %v", err)
		}
		return withDisplay(c, func(ctx context.Context, d display.CharacterDisplay) error {
			return display.NewBarGraph(c.Int("line")).Set(ctx, d, value)
		})
	},
}

type statusReader interface {
	ReadStatus(ctx context.Context) (bool, byte, error)
}

var lcdStatusCmd = cli.Command{
	Name:  "status",
	Usage: "read the busy flag and address counter of the first controller",
	Action: func(c *cli.Context) error {
		return withDisplay(c, func(ctx context.Context, d display.CharacterDisplay) error {
			r, ok := d.(statusReader)
			if !ok {
				return errMockAdapter
			}
			busy, ac, err := r.ReadStatus(ctx)
			if err != nil {
				return err
			}
			console.Printf("busy: %s\naddress counter: %s\n", console.White(busy), console.White(fmt.Sprintf("%#02x", ac)))
			return nil
		})
	},
}

var lcdShellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive session: 'N: text', 'clear [N]', 'backlight on|off', 'bar N VALUE', 'quit'",
	Action: func(c *cli.Context) error {
		return withDisplay(c, func(ctx context.Context, d display.CharacterDisplay) error {
			bars := map[int]*display.BarGraph{}
			return console.Shell("lcd> ", func(line string) (bool, error) {
				return execShellLine(ctx, d, bars, line)
			})
		})
	},
}

var lcdConfigCmd = cli.Command{
	Name:  "config",
	Usage: "print the effective display configuration",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Exit(1, "invalid configuration: %s", console.Red(err))
		}
		enc := yaml.NewEncoder(os.Stdout)
		defer func() { _ = enc.Close() }()
		if err := enc.Encode(cfg); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}

// execShellLine runs one shell command and reports whether the shell should
// quit.
func execShellLine(ctx context.Context, d display.CharacterDisplay, bars map[int]*display.BarGraph, line string) (bool, error) {
	if n, text, ok := strings.Cut(line, ":"); ok {
		if nr, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return false, d.Print(ctx, nr, strings.TrimPrefix(text, " "))
		}
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "quit", "exit":
		return true, nil
	case "clear":
		if len(fields) == 1 {
			return false, d.ClearDisplay(ctx)
		}
		nr, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid line %q", fields[1])
		}
		return false, d.ClearLine(ctx, nr)
	case "backlight":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: backlight on|off")
		}
		on, err := parseSwitch(fields[1])
		if err != nil {
			return false, err
		}
		return false, d.EnableBackLight(ctx, on)
	case "bar":
		if len(fields) != 3 {
			return false, fmt.Errorf("usage: bar LINE VALUE")
		}
		nr, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid line %q", fields[1])
		}
		value, err := strconv.Atoi(fields[2])
		if err != nil {
			return false, fmt.Errorf("invalid value %q", fields[2])
		}
		bar, ok := bars[nr]
		if !ok {
			bar = display.NewBarGraph(nr)
			bars[nr] = bar
		}
		return false, bar.Set(ctx, d, value)
	}
	return false, fmt.Errorf("unknown command %q", fields[0])
}

func renderMock(m *display.MockCharacterDisplay) {
	lines := make([]string, m.Height())
	for i := range lines {
		lines[i] = m.Line(i + 1)
	}
	console.Frame(m.Width(), lines)
	console.Infof("backlight: %v, enabled: %v", m.BackLight(), m.Enabled())
}
