package fsm

import (
	"testing"

	"go.viam.com/test"
)

func TestStartupAndMotion(t *testing.T) {
	m := New()
	test.That(t, m.State(), test.ShouldEqual, StateUnknown)

	m.CompleteStartup(true)
	test.That(t, m.State(), test.ShouldEqual, StateHumanoidIdle)

	test.That(t, m.BeginMotion(), test.ShouldBeNil)
	test.That(t, m.State(), test.ShouldEqual, StateHumanoidMoving)

	// A second motion command while already moving is a no-op transition.
	test.That(t, m.BeginMotion(), test.ShouldBeNil)
	test.That(t, m.State(), test.ShouldEqual, StateHumanoidMoving)

	test.That(t, m.AdmitStop(), test.ShouldBeNil)
	m.EndMotion()
	test.That(t, m.State(), test.ShouldEqual, StateHumanoidIdle)
}

// Mirrors spec.md §8 scenario 4: TRANSFORM moves Idle to the transitional
// state, and only a confirming GET_STATE settles the new form.
func TestTransformScenario(t *testing.T) {
	m := New()
	m.CompleteStartup(true)

	test.That(t, m.BeginTransform(), test.ShouldBeNil)
	test.That(t, m.State(), test.ShouldEqual, StateTransforming)

	// Nothing else is admissible mid-transform.
	test.That(t, m.BeginMotion(), test.ShouldBeError, ErrInadmissible)
	test.That(t, m.BeginTransform(), test.ShouldBeError, ErrInadmissible)

	m.CompleteTransform(false)
	test.That(t, m.State(), test.ShouldEqual, StateVehicleIdle)
}

// Mirrors spec.md §7's Timeout row: a TRANSFORM confirmation that never
// arrives leaves the machine mid-transform rather than falling back to the
// pre-transform form. The session controller simply stops waiting; it must
// not call AbortTransform for this case.
func TestTransformTimeoutLeavesStateTransforming(t *testing.T) {
	m := New()
	m.CompleteStartup(true)
	test.That(t, m.BeginTransform(), test.ShouldBeNil)
	test.That(t, m.State(), test.ShouldEqual, StateTransforming)

	// A later GET_STATE, whenever it eventually arrives, still resolves it.
	m.CompleteTransform(false)
	test.That(t, m.State(), test.ShouldEqual, StateVehicleIdle)
}

// AbortTransform is reserved for failures before the confirmation wait even
// begins (the TRANSFORM write or the post-write settle failing).
func TestAbortTransformFallsBackToPreTransformForm(t *testing.T) {
	m := New()
	m.CompleteStartup(true)
	test.That(t, m.BeginTransform(), test.ShouldBeNil)
	m.AbortTransform()
	test.That(t, m.State(), test.ShouldEqual, StateHumanoidIdle)
}

// Mirrors spec.md §8 scenario 5: STOP admission is never gated, even from
// an odd intermediate state, so a stuck session can always be recovered.
func TestStopAlwaysAdmissible(t *testing.T) {
	m := New()
	test.That(t, m.AdmitStop(), test.ShouldBeNil)

	m.CompleteStartup(true)
	test.That(t, m.BeginTransform(), test.ShouldBeNil)
	test.That(t, m.AdmitStop(), test.ShouldBeNil)
}

// Mirrors spec.md §8 scenario 6: SET_POSITION is inadmissible outside
// programming mode.
func TestProgrammingCommandsGated(t *testing.T) {
	m := New()
	m.CompleteStartup(true)
	test.That(t, m.AdmitProgrammingCommand(), test.ShouldBeError, ErrInadmissible)

	test.That(t, m.BeginProgramming(), test.ShouldBeNil)
	test.That(t, m.State(), test.ShouldEqual, StateHumanoidProgramming)
	test.That(t, m.AdmitProgrammingCommand(), test.ShouldBeNil)

	test.That(t, m.EndProgramming(), test.ShouldBeNil)
	test.That(t, m.State(), test.ShouldEqual, StateHumanoidIdle)
}

func TestScriptedActionAdmissibleFromProgramming(t *testing.T) {
	m := New()
	m.CompleteStartup(false)
	test.That(t, m.BeginProgramming(), test.ShouldBeNil)

	test.That(t, m.BeginScriptedAction(), test.ShouldBeNil)
	test.That(t, m.IsActing(), test.ShouldBeTrue)

	// Re-entrant scripted actions are rejected while one is in flight.
	test.That(t, m.BeginScriptedAction(), test.ShouldBeError, ErrInadmissible)

	m.EndScriptedAction()
	test.That(t, m.IsActing(), test.ShouldBeFalse)
}

func TestScriptedActionInadmissibleWhileMoving(t *testing.T) {
	m := New()
	m.CompleteStartup(true)
	test.That(t, m.BeginMotion(), test.ShouldBeNil)
	test.That(t, m.BeginScriptedAction(), test.ShouldBeError, ErrInadmissible)
}

func TestMotionInadmissibleFromProgramming(t *testing.T) {
	m := New()
	m.CompleteStartup(true)
	test.That(t, m.BeginProgramming(), test.ShouldBeNil)
	test.That(t, m.BeginMotion(), test.ShouldBeError, ErrInadmissible)
}
