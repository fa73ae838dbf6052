package main

import (
	"fmt"
	"os"

	"precisioncalc/cmd/calc"
	"precisioncalc/cmd/ratecheck"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Precisioncalc CMD"
	app.Usage = "The precisioncalc command line interface"

	app.Commands = []cli.Command{
		calcCMD,
		rateCheckCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	calcCMD = cli.Command{
		Name:      "calc",
		Usage:     "run one calculation",
		Action:    calcAction,
		ArgsUsage: "OPERATION OPERAND1 [OPERAND2]",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "from", Usage: "source currency code"},
			cli.StringFlag{Name: "to", Usage: "target currency code"},
		},
		Description: `Run one calculation through the full pipeline and print the outcome`,
	}
	rateCheckCMD = cli.Command{
		Name:        "ratecheck",
		Usage:       "quote a currency pair from every provider",
		Action:      rateCheckAction,
		ArgsUsage:   "FROM TO",
		Flags:       []cli.Flag{},
		Description: `Quote FROM/TO from each configured rate provider in turn`,
	}
)

func calcAction(c *cli.Context) error {
	logrus.Info("Starting calc CMD")

	if c.NArg() < 2 {
		return fmt.Errorf("usage: calc OPERATION OPERAND1 [OPERAND2]")
	}

	cmd := &calc.Calc{
		Log: logrus.WithField("cmd", "calc"),
	}
	err := cmd.Start(c.Args().Get(0), c.Args().Get(1), c.Args().Get(2), c.String("from"), c.String("to"))
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func rateCheckAction(c *cli.Context) error {
	logrus.Info("Starting ratecheck CMD")

	if c.NArg() != 2 {
		return fmt.Errorf("usage: ratecheck FROM TO")
	}

	cmd := &ratecheck.RateCheck{
		Log: logrus.WithField("cmd", "ratecheck"),
	}
	err := cmd.Start(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
