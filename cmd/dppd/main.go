// Package main implements the command line of a platform node. It validates
// and executes state transitions against a local drive.
//
//	dppd versions
//	dppd --db node.db check 0100...
//	dppd --config node.yaml process --height 10 0100... 0300...
//	dppd --db node.db documents 3f2a...
//
// The transitions are given in hexadecimal, either as arguments or one per
// line on the standard input.
package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"go.dedis.ch/dpp"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		dpp.Logger.Fatal().Err(err).Msg("dppd failed")
	}
}

func newApp() *cli.App {
	var metrics *metricsServer

	return &cli.App{
		Name:  "dppd",
		Usage: "validate and execute platform state transitions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the path to a yaml config file",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "the path of the drive database. Overwrites the value of the config file",
			},
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "if provided, serves the Prometheus metrics on this address",
			},
		},
		Before: func(c *cli.Context) error {
			addr := c.String("metrics")
			if addr == "" {
				return nil
			}

			var err error
			metrics, err = serveMetrics(addr)

			return err
		},
		After: func(c *cli.Context) error {
			if metrics == nil {
				return nil
			}

			return metrics.Close()
		},
		Commands: []*cli.Command{
			{
				Name:   "versions",
				Usage:  "list the supported protocol versions and their methods",
				Action: versionsAction,
			},
			{
				Name:   "check",
				Usage:  "check transitions against the committed state",
				Flags:  append(blockFlags(), &cli.BoolFlag{Name: "dry-run", Usage: "estimate the fees instead"}),
				Action: checkAction,
			},
			{
				Name:   "process",
				Usage:  "execute transitions in a block and commit it",
				Flags:  blockFlags(),
				Action: processAction,
			},
			{
				Name:      "documents",
				Usage:     "list the documents of a data contract",
				ArgsUsage: "<contract-id>",
				Action:    documentsAction,
			},
		},
	}
}

func blockFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Uint64Flag{
			Name:  "height",
			Usage: "the height of the block",
		},
		&cli.Uint64Flag{
			Name:  "time",
			Usage: "the time of the block in milliseconds",
		},
		&cli.UintFlag{
			Name:  "core-height",
			Usage: "the height of the core chain locked by the block",
		},
		&cli.UintFlag{
			Name:  "epoch",
			Usage: "the epoch of the block",
		},
	}
}
