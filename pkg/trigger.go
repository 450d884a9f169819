package scope

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type TriggerState int

const (
	Idle TriggerState = iota
	Armed
	WaitTrigger
	Triggered
)

var triggerStateStrings = []string{
	"IDLE",
	"ARMED",
	"WAIT_TRIGGER",
	"TRIGGERED",
}

func (s TriggerState) String() string {
	if s < Idle || s > Triggered {
		return "UNKNOWN"
	}
	return triggerStateStrings[s]
}

// TriggerStatus is the trigger:state? response of an acquired waveform.
const TriggerStatus = "TRIGGER"

// PollPolicy decides how long to wait between two trigger polls.
type PollPolicy interface {
	Wait(ctx context.Context, attempt int) error
}

// FixedInterval waits the same time between polls. Zero polls back to back.
type FixedInterval time.Duration

func (f FixedInterval) Wait(ctx context.Context, attempt int) error {
	if f <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(f))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TriggerPoller walks one event through IDLE -> ARMED -> WAIT_TRIGGER ->
// TRIGGERED and back to IDLE.
type TriggerPoller struct {
	instrument      Instrument
	recordLength    int
	holdoff         float64
	policy          PollPolicy
	Verbosity       int
	state           TriggerState
	polls           int
	captures        int
	transportErrors int
}

func NewTriggerPoller(instrument Instrument, recordLength int, holdoff float64, policy PollPolicy) *TriggerPoller {
	if policy == nil {
		policy = FixedInterval(0)
	}
	return &TriggerPoller{
		instrument:   instrument,
		recordLength: recordLength,
		holdoff:      holdoff,
		policy:       policy,
		state:        Idle,
	}
}

func (p *TriggerPoller) State() TriggerState { return p.state }
func (p *TriggerPoller) Polls() int          { return p.polls }
func (p *TriggerPoller) Captures() int       { return p.captures }
func (p *TriggerPoller) TransportErrors() int {
	return p.transportErrors
}

// Arm sets normal trigger mode with a time holdoff so the same waveform is
// not recorded twice. Write failures are reported and otherwise ignored.
func (p *TriggerPoller) Arm() {
	commands := []string{
		"trigger:a:mode normal",
		"trigger:a:holdoff:by time",
		"trigger:a:holdoff:time " + strconv.FormatFloat(p.holdoff, 'g', -1, 64),
	}
	for _, command := range commands {
		if err := p.instrument.Write(command); err != nil {
			p.transportErrors++
			logger.Error(fmt.Errorf("error arming trigger: %w", err).Error())
		}
	}
	p.state = Armed
}

// Poll queries the trigger state once and reports whether the instrument
// has triggered.
func (p *TriggerPoller) Poll() (bool, error) {
	if p.state == Idle {
		p.Arm()
	}
	p.state = WaitTrigger
	p.polls++
	response, err := p.instrument.Query("trigger:state?")
	if err != nil {
		p.transportErrors++
		return false, err
	}
	status := strings.TrimSpace(string(response))
	if p.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Trigger state: %s", status), "trigger")
	}
	if status != TriggerStatus {
		return false, nil
	}
	p.state = Triggered
	return true, nil
}

// Fetch transfers the waveform of a triggered event: recordLength samples
// plus the block header and terminator.
func (p *TriggerPoller) Fetch() ([]byte, error) {
	if p.state != Triggered {
		return nil, fmt.Errorf("fetch requested in state %s", p.state)
	}
	if err := p.instrument.Write("data:encdg ribinary"); err != nil {
		return nil, err
	}
	if err := p.instrument.Write("curve?"); err != nil {
		return nil, err
	}
	frame, err := p.instrument.ReadRaw(p.recordLength + FrameOverhead)
	if err != nil {
		return nil, err
	}
	if err := p.instrument.Write("*WAI"); err != nil {
		p.transportErrors++
		logger.Error(fmt.Errorf("error after waveform transfer: %w", err).Error())
	}
	p.captures++
	return frame, nil
}

// Release returns the poller to IDLE once the frame has been handed off.
func (p *TriggerPoller) Release() {
	p.state = Idle
}

// Capture blocks until the instrument triggers and returns the raw frame.
// Transport errors repeat the same poll; only ctx ends the wait.
func (p *TriggerPoller) Capture(ctx context.Context) ([]byte, error) {
	if p.state == Idle {
		p.Arm()
	}
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		triggered, err := p.Poll()
		if err != nil {
			logger.Error(fmt.Errorf("error polling trigger state: %w", err).Error())
		}
		if triggered {
			frame, err := p.Fetch()
			if err == nil {
				return frame, nil
			}
			p.transportErrors++
			logger.Error(fmt.Errorf("error reading waveform: %w", err).Error())
			p.state = WaitTrigger
		}
		if err := p.policy.Wait(ctx, attempt); err != nil {
			return nil, err
		}
	}
}
