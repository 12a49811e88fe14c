package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/displays/snsctx"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp()
	app.Name = "displays"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "character display cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "display configuration file (YAML); defaults to a 16x2 LCM1602 backpack",
		},
		&cli.StringFlag{
			Name:  "adapter",
			Value: adapterMCP2221,
			Usage: "bus adapter: mcp2221, periph, nanopi, gpio or mock",
		},
		&cli.StringFlag{
			Name:  "bus",
			Usage: "bus name (periph) or number (nanopi); overrides the config file",
		},
		&cli.StringSliceFlag{
			Name:  "gpio-pins",
			Usage: "8 GPIO names wired to port bits 0..7 (gpio adapter), '-' for unwired",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		logger := slog.New(charm)
		slog.SetDefault(logger)
		ctx.Context = snsctx.WithLogger(snsctx.SetVerbose(ctx.Context, ctx.Bool("verbose")), logger)
		return nil
	}
	app.Commands = cli.Commands{
		&lcdCmd,
		&portCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	err := app.Run(os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}
