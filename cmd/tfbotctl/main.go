// Command tfbotctl is a thin reference CLI over the session package: a
// discovery scan and a scripted connect-then-probe smoke test. It is not a
// user shell — spec.md excludes those — it exists to exercise a
// transport.Transport end to end, the same way the teacher pack's
// `cmd/` entrypoints wire a component against a real or fake driver.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"

	"github.com/MeachamusPrime/Robosen-Transformers/joints"
	"github.com/MeachamusPrime/Robosen-Transformers/session"
	"github.com/MeachamusPrime/Robosen-Transformers/transport"
	"github.com/MeachamusPrime/Robosen-Transformers/transport/fake"
)

func main() {
	logger := golog.NewDevelopmentLogger("tfbotctl")

	app := &cli.App{
		Name:  "tfbotctl",
		Usage: "discover and smoke-test a Transformers BLE robot session",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "discover", Usage: "scan for nearby simulated robots and exit"},
			&cli.StringFlag{Name: "connect", Usage: "advertised-name prefix to connect to and run a probe against"},
		},
		Action: func(c *cli.Context) error {
			switch {
			case c.Bool("discover"):
				return runDiscover(c.Context, logger)
			case c.String("connect") != "":
				return runConnect(c.Context, logger, c.String("connect"))
			default:
				return cli.ShowAppHelp(c)
			}
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Errorw("tfbotctl failed", "err", err)
		os.Exit(1)
	}
}

// runDiscover exercises the fake loopback transport's Scan: there is no
// real BLE adapter wired into this CLI (spec.md excludes one), so this
// demonstrates the scan-serialization path against an in-memory simulated
// robot.
func runDiscover(ctx context.Context, logger golog.Logger) error {
	robot := fake.NewRobot("OP-M-DEMO", joints.VariantAutobotHumanoid)
	results, err := transport.ScanSerialized(ctx, robot, 2*time.Second)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%s\t%s\n", r.Address, r.Name)
	}
	return nil
}

// runConnect opens a session against a simulated robot matching
// namePrefix, runs the startup probe implicitly via session.Open, prints
// its identity, and cleanly closes.
func runConnect(ctx context.Context, logger golog.Logger, namePrefix string) error {
	variant, _, ok := joints.VariantFromAdvertisingName(namePrefix)
	if !ok {
		return fmt.Errorf("tfbotctl: %q does not match any known platform prefix", namePrefix)
	}

	robot := fake.NewRobot(namePrefix, variant)
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	sess, err := session.Open(ctx, logger, robot, "fake://"+namePrefix, namePrefix, session.DefaultConfig())
	if err != nil {
		return err
	}
	defer sess.Close(context.Background())

	model, err := sess.Model(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("connected to %s (%s), battery %d%%, state %s\n", model, variant, sess.BatteryPercent(), sess.State())
	return nil
}
