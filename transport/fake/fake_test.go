package fake

import (
	"context"
	"testing"
	"time"

	"github.com/MeachamusPrime/Robosen-Transformers/joints"
	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
	"go.viam.com/test"
)

func TestRobotRespondsToModel(t *testing.T) {
	r := NewRobot("OP-M-1", joints.VariantAutobotHumanoid)
	r.SetResponseDelay(0)
	ctx := context.Background()
	test.That(t, r.Connect(ctx, "fake://OP-M-1"), test.ShouldBeNil)

	received := make(chan protocol.Frame, 1)
	test.That(t, r.Subscribe(ctx, func(data []byte) {
		frame, _, err := protocol.Decode(data)
		test.That(t, err, test.ShouldBeNil)
		received <- frame
	}), test.ShouldBeNil)

	test.That(t, r.Write(ctx, protocol.Encode(protocol.OpModel, nil)), test.ShouldBeNil)

	select {
	case frame := <-received:
		test.That(t, frame.Opcode, test.ShouldEqual, protocol.OpModel)
		test.That(t, string(frame.Payload), test.ShouldEqual, r.Model)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for MODEL response")
	}
}

func TestRobotTransformFlipsForm(t *testing.T) {
	r := NewRobot("GSEG-1", joints.VariantDinobot)
	r.SetResponseDelay(0)
	ctx := context.Background()
	_ = r.Connect(ctx, "fake://GSEG-1")

	received := make(chan protocol.Frame, 1)
	_ = r.Subscribe(ctx, func(data []byte) {
		frame, _, _ := protocol.Decode(data)
		received <- frame
	})

	test.That(t, r.Write(ctx, protocol.Encode(protocol.OpTransform, nil)), test.ShouldBeNil)
	frame := <-received
	test.That(t, frame.Opcode, test.ShouldEqual, protocol.OpGetState)
	// started in humanoid form; one TRANSFORM flips it to vehicle (mode byte 1).
	test.That(t, frame.Payload[0], test.ShouldEqual, byte(1))
}

func TestRobotScan(t *testing.T) {
	r := NewRobot("MEGAF-9", joints.VariantDecepticonHumanoid)
	results, err := r.Scan(context.Background(), time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, 1)
	test.That(t, results[0].Name, test.ShouldEqual, "MEGAF-9")
}
