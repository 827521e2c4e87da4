package session

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/MeachamusPrime/Robosen-Transformers/fsm"
	"github.com/MeachamusPrime/Robosen-Transformers/joints"
	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
	"github.com/MeachamusPrime/Robosen-Transformers/transport/fake"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InterCommandPause = time.Millisecond
	cfg.PostTransformSettle = time.Millisecond
	cfg.PostProgrammingSettle = time.Millisecond
	cfg.ReplyTimeout = 2 * time.Second
	return cfg
}

func openTestSession(t *testing.T, name string, variant joints.Variant) (*Session, *fake.Robot) {
	t.Helper()
	robot := fake.NewRobot(name, variant)
	robot.SetResponseDelay(0)
	s, err := Open(context.Background(), golog.NewTestLogger(t), robot, "fake://"+name, name, testConfig())
	test.That(t, err, test.ShouldBeNil)
	return s, robot
}

func TestOpenRunsStartupProbe(t *testing.T) {
	s, _ := openTestSession(t, "OP-M-1", joints.VariantAutobotHumanoid)
	test.That(t, s.Variant(), test.ShouldEqual, joints.VariantAutobotHumanoid)
	test.That(t, s.State(), test.ShouldEqual, fsm.StateHumanoidIdle)
	test.That(t, s.BatteryPercent(), test.ShouldEqual, 90)
}

func TestMotionAndStop(t *testing.T) {
	s, _ := openTestSession(t, "GSEG-1", joints.VariantDinobot)
	ctx := context.Background()

	test.That(t, s.Forward(ctx), test.ShouldBeNil)
	// give the fake's ACTION_COMPLETE notification a moment to land
	time.Sleep(20 * time.Millisecond)

	test.That(t, s.Stop(ctx), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, fsm.StateHumanoidIdle)
}

func TestTransformScenario(t *testing.T) {
	s, _ := openTestSession(t, "MEGAF-1", joints.VariantDecepticonHumanoid)
	ctx := context.Background()
	test.That(t, s.State(), test.ShouldEqual, fsm.StateHumanoidIdle)

	test.That(t, s.Transform(ctx), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, fsm.StateVehicleIdle)
}

// Mirrors spec.md §8 scenario 6: SET_POSITION is inadmissible outside
// programming mode.
func TestSetPositionInadmissibleOutsideProgramming(t *testing.T) {
	s, robot := openTestSession(t, "OP-M-2", joints.VariantAutobotHumanoid)
	err := s.SetPosition(context.Background(), map[string]float64{"head": 10})
	test.That(t, err, test.ShouldNotBeNil)
	sessErr, ok := err.(*Error)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sessErr.Kind, test.ShouldEqual, ErrKindInadmissible)

	// The rejection also dispatches the error-announce scripted action
	// (spec.md §8 scenario 6).
	time.Sleep(20 * time.Millisecond)
	test.That(t, robot.WroteOpcode(protocol.OpExecuteFile), test.ShouldBeTrue)
}

func TestEnterProgrammingHandshakeThenSetPosition(t *testing.T) {
	s, _ := openTestSession(t, "OP-M-3", joints.VariantAutobotHumanoid)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	test.That(t, s.EnterProgramming(ctx), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, fsm.StateHumanoidProgramming)

	test.That(t, s.SetPosition(ctx, map[string]float64{"head": 30}), test.ShouldBeNil)

	test.That(t, s.ExitProgramming(ctx), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, fsm.StateHumanoidIdle)
}

func TestEnterProgrammingNoOpOnDinobot(t *testing.T) {
	s, _ := openTestSession(t, "GSEG-2", joints.VariantDinobot)
	ctx := context.Background()
	test.That(t, s.EnterProgramming(ctx), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, fsm.StateHumanoidIdle)
}

func TestChangeSpeedRejectedOnAutobot(t *testing.T) {
	s, _ := openTestSession(t, "OP-M-4", joints.VariantAutobotHumanoid)
	err := s.ChangeSpeed(context.Background(), true)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestHornRequiresVehicleForm(t *testing.T) {
	s, _ := openTestSession(t, "OP-M-5", joints.VariantAutobotHumanoid)
	err := s.Horn1(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestClose(t *testing.T) {
	s, _ := openTestSession(t, "MEGAF-2", joints.VariantDecepticonHumanoid)
	test.That(t, s.Close(context.Background()), test.ShouldBeNil)
	// idempotent
	test.That(t, s.Close(context.Background()), test.ShouldBeNil)
}
