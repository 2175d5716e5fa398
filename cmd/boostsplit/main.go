package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

// appState is shared between the global flag handling and the commands.
type appState struct {
	cfg *config
}

func newApp() *cli.App {
	state := &appState{}

	app := cli.NewApp()
	app.Name = "boostsplit"
	app.Usage = "plan and check value-for-value boost splits"
	app.ErrWriter = os.Stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "configfile",
			Usage: "path to an optional ini config file",
		},
		cli.StringFlag{
			Name: "debuglevel",
			Usage: "logging level for all subsystems, overrides the " +
				"config file",
		},
		cli.StringFlag{
			Name:  "network",
			Usage: "the network to use, overrides the config file",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx.GlobalString("configfile"))
		if err != nil {
			return err
		}

		if ctx.GlobalIsSet("debuglevel") {
			cfg.DebugLevel = ctx.GlobalString("debuglevel")
		}
		if ctx.GlobalIsSet("network") {
			cfg.Network = ctx.GlobalString("network")
			if err := cfg.validate(); err != nil {
				return err
			}
		}

		if err := setupLoggers(app.ErrWriter, cfg.DebugLevel); err != nil {
			return err
		}

		state.cfg = cfg

		return nil
	}
	app.Commands = []cli.Command{
		planCommand(state),
		validateCommand(state),
		feedURLCommand(state),
	}

	return app
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[boostsplit] %v\n", err)
		os.Exit(1)
	}
}
