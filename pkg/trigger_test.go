package scope_test

import (
	"context"
	"errors"
	"testing"
	"time"

	scope "github.com/next-exp/scope_daq/pkg"
)

func TestCaptureAfterTwoWaits(t *testing.T) {
	inst := newFakeInstrument()
	inst.script("trigger:state?", "READY", "ARMED", "TRIGGER")
	inst.frames = [][]byte{buildFrame([]int8{1, 2, 3})}

	poller := scope.NewTriggerPoller(inst, 3, 0.01, nil)
	frame, err := poller.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(frame) != 3+scope.FrameOverhead {
		t.Errorf("frame length = %d", len(frame))
	}
	if poller.Polls() != 3 {
		t.Errorf("polls = %d, want 3", poller.Polls())
	}
	if poller.Captures() != 1 {
		t.Errorf("captures = %d, want 1", poller.Captures())
	}
	if poller.State() != scope.Triggered {
		t.Errorf("state = %s, want TRIGGERED", poller.State())
	}
	poller.Release()
	if poller.State() != scope.Idle {
		t.Errorf("state after release = %s", poller.State())
	}

	for _, command := range []string{"trigger:a:mode normal", "trigger:a:holdoff:by time",
		"trigger:a:holdoff:time 0.01", "data:encdg ribinary", "curve?", "<read 11>", "*WAI"} {
		if inst.count(command) != 1 {
			t.Errorf("%q sent %d times, want 1", command, inst.count(command))
		}
	}
}

func TestPollTrimsResponse(t *testing.T) {
	inst := newFakeInstrument()
	inst.script("trigger:state?", "  TRIGGER \r")
	poller := scope.NewTriggerPoller(inst, 3, 0.01, nil)
	triggered, err := poller.Poll()
	if err != nil || !triggered {
		t.Fatalf("Poll = %t, %v", triggered, err)
	}
}

func TestFetchRequiresTrigger(t *testing.T) {
	poller := scope.NewTriggerPoller(newFakeInstrument(), 3, 0.01, nil)
	if _, err := poller.Fetch(); err == nil {
		t.Fatal("Fetch from IDLE should fail")
	}
}

func TestCaptureRetriesTransportErrors(t *testing.T) {
	inst := newFakeInstrument()
	inst.script("trigger:state?", "ERR", "TRIGGER")
	inst.failRead = 1
	inst.frames = [][]byte{buildFrame([]int8{4, 5, 6})}

	poller := scope.NewTriggerPoller(inst, 3, 0.01, nil)
	frame, err := poller.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	raw, err := scope.DecodeFrame(frame, 3)
	if err != nil || raw[0] != 4 {
		t.Fatalf("decoded %v, %v", raw, err)
	}
	// error poll, failed read, successful read
	if poller.Polls() != 3 {
		t.Errorf("polls = %d, want 3", poller.Polls())
	}
	if poller.TransportErrors() != 2 {
		t.Errorf("transport errors = %d, want 2", poller.TransportErrors())
	}
	if poller.Captures() != 1 {
		t.Errorf("captures = %d, want 1", poller.Captures())
	}
}

func TestCaptureHonorsCancellation(t *testing.T) {
	inst := newFakeInstrument()
	inst.script("trigger:state?", "READY")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	poller := scope.NewTriggerPoller(inst, 3, 0.01, scope.FixedInterval(time.Millisecond))
	_, err := poller.Capture(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	if poller.Captures() != 0 {
		t.Errorf("captures = %d", poller.Captures())
	}
}

func TestTriggerStateString(t *testing.T) {
	names := map[scope.TriggerState]string{
		scope.Idle:              "IDLE",
		scope.Armed:             "ARMED",
		scope.WaitTrigger:       "WAIT_TRIGGER",
		scope.Triggered:         "TRIGGERED",
		scope.TriggerState(-1):  "UNKNOWN",
		scope.TriggerState(100): "UNKNOWN",
	}
	for state, want := range names {
		if state.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(state), state.String(), want)
		}
	}
}
