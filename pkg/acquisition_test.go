package scope_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	scope "github.com/next-exp/scope_daq/pkg"
)

type recordingSink struct {
	events []int
	fits   int
	closed bool
	err    error
}

func (s *recordingSink) WriteEvent(event *scope.WaveformEvent, fit *scope.FitResult) error {
	s.events = append(s.events, event.Number)
	if fit != nil {
		s.fits++
	}
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

// failingFitter delegates to a PeakFitter except for the listed events.
type failingFitter struct {
	fitter *scope.PeakFitter
	fail   map[int]bool
}

func (f failingFitter) Fit(event int, times []float64, voltages []float64) (scope.FitResult, error) {
	if f.fail[event] {
		return scope.FitResult{}, &scope.ErrFitDiverged{Event: event, Reason: "rejected"}
	}
	return f.fitter.Fit(event, times, voltages)
}

func pulseSamples(recordLength int, c scope.CalibrationParams) []int8 {
	samples := make([]int8, recordLength)
	for i, t := range scope.TimeAxis(c) {
		v := scope.Landau(t, 0.5, 1e-8, 2e-8)
		samples[i] = int8(math.Round((v - c.YZero) / c.YMultiplier))
	}
	return samples
}

func newTestSession(t *testing.T, inst *fakeInstrument, recordLength int, processData bool) *scope.Session {
	t.Helper()
	scriptCalibration(inst, recordLength)
	inst.script("WFMOutpre:PT_OFF?", "50")
	inst.script("WFMOutpre:YMULT?", "0.001")

	config := scope.DefaultConfiguration()
	config.NEvents = 3
	config.OutputDir = t.TempDir()
	config.ProcessData = processData
	config.NBins = 10
	config.InitialGuess = []float64{0.45, 5e-9, 2.5e-8}

	session := scope.NewSession(inst, config)
	if err := session.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return session
}

func TestSessionSetup(t *testing.T) {
	inst := newFakeInstrument()
	scriptCalibration(inst, 10)
	session := scope.NewSession(inst, scope.DefaultConfiguration())
	if err := session.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if session.Calibration != referenceCalibration {
		t.Errorf("calibration = %+v", session.Calibration)
	}
	if len(session.Time) != 10 || !almostEqual(session.Time[0], -5e-7, 1e-18) {
		t.Errorf("time axis = %v", session.Time)
	}
	for _, command := range []string{"header 0", "data:source ch2", "data:enc sri", "data:width 1",
		"CH2:scale 0.05", "horizontal:scale 4e-8", "data:stop 10", "trigger:a:edge:source ch2",
		"trigger:a:level:ch2 0.5", "trigger:a:edge:slope rise"} {
		if inst.count(command) != 1 {
			t.Errorf("%q sent %d times", command, inst.count(command))
		}
	}

	if err := session.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	for _, command := range []string{"trigger:a:holdoff:by random", "trigger:a:mode auto"} {
		if inst.count(command) != 1 {
			t.Errorf("%q sent %d times", command, inst.count(command))
		}
	}
}

func TestSessionSetupBadPreamble(t *testing.T) {
	inst := newFakeInstrument()
	scriptCalibration(inst, 10)
	inst.script("WFMOutpre:YMULT?", "garbage")
	if err := scope.NewSession(inst, scope.DefaultConfiguration()).Setup(); err == nil {
		t.Fatal("Setup should fail on an unparsable preamble")
	}
}

func TestAcquisitionWithoutProcessing(t *testing.T) {
	inst := newFakeInstrument()
	session := newTestSession(t, inst, 10, false)
	inst.script("trigger:state?", "TRIGGER")

	bad := buildFrame(make([]int8, 10))
	bad[0] = 'X'
	inst.frames = [][]byte{
		buildFrame([]int8{0, 0, 0, 0, 0, 0, 0, 10, 20, 10}),
		bad,
		buildFrame(make([]int8, 10)),
		buildFrame(make([]int8, 10)),
	}

	acquisition := scope.NewAcquisition(session, nil)
	sink := &recordingSink{err: errors.New("database gone")}
	acquisition.AddSink(sink)

	summary, err := acquisition.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Triggered != 3 || summary.Discarded != 1 || summary.Fitted != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Polls != 4 {
		t.Errorf("polls = %d, want 4", summary.Polls)
	}
	if len(sink.events) != 3 || sink.events[2] != 3 || sink.fits != 0 {
		t.Errorf("sink saw %v with %d fits", sink.events, sink.fits)
	}
	for n := 1; n <= 3; n++ {
		if _, err := os.Stat(filepath.Join(session.Config.OutputDir, fmt.Sprintf("event_%d.csv", n))); err != nil {
			t.Errorf("event %d: %v", n, err)
		}
	}
	if _, err := os.Stat(filepath.Join(session.Config.OutputDir, "widths.txt")); !os.IsNotExist(err) {
		t.Error("histograms written without processing")
	}
	if err := acquisition.Close(); err != nil || !sink.closed {
		t.Errorf("Close: %v, closed %t", err, sink.closed)
	}
}

func TestAcquisitionFitsAndAggregates(t *testing.T) {
	inst := newFakeInstrument()
	session := newTestSession(t, inst, 200, true)
	inst.script("trigger:state?", "READY", "TRIGGER")
	frame := buildFrame(pulseSamples(200, session.Calibration))
	inst.frames = [][]byte{frame, frame, frame}

	acquisition := scope.NewAcquisition(session, nil)
	summary, err := acquisition.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Triggered != 3 || summary.Fitted != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	if acquisition.Aggregator.Len() != 3 {
		t.Errorf("aggregated %d events", acquisition.Aggregator.Len())
	}
	for _, width := range acquisition.Aggregator.Widths {
		if math.Abs(width-8e-8) > 0.1*8e-8 {
			t.Errorf("full width = %g, want about 8e-8", width)
		}
	}
	if len(summary.Histograms) != 3 {
		t.Fatalf("%d histograms", len(summary.Histograms))
	}
	for _, name := range []string{"widths.txt", "amplitudes.txt", "integrals.txt"} {
		if _, err := os.Stat(filepath.Join(session.Config.OutputDir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestAcquisitionAggregatesOnlyFittedEvents(t *testing.T) {
	inst := newFakeInstrument()
	session := newTestSession(t, inst, 200, true)
	inst.script("trigger:state?", "TRIGGER")
	frame := buildFrame(pulseSamples(200, session.Calibration))
	bad := buildFrame(pulseSamples(200, session.Calibration))
	bad[0] = 'X'
	inst.frames = [][]byte{frame, bad, frame, frame}

	acquisition := scope.NewAcquisition(session, nil)
	acquisition.Fitter = failingFitter{
		fitter: scope.NewPeakFitter(session.Config.InitialGuess),
		fail:   map[int]bool{3: true},
	}
	sink := &recordingSink{}
	acquisition.AddSink(sink)

	summary, err := acquisition.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Triggered != 3 || summary.Discarded != 1 || summary.Fitted != 2 || summary.Diverged != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if acquisition.Aggregator.Len() != summary.Fitted {
		t.Errorf("aggregated %d events, fitted %d", acquisition.Aggregator.Len(), summary.Fitted)
	}
	if len(sink.events) != 3 || sink.events[2] != 3 || sink.fits != 2 {
		t.Errorf("sink saw %v with %d fits", sink.events, sink.fits)
	}
	if len(summary.Histograms) != 3 {
		t.Fatalf("%d histograms", len(summary.Histograms))
	}
	for _, h := range summary.Histograms {
		if sum(h.Counts) != summary.Fitted {
			t.Errorf("%s counts sum to %d, want %d", h.Name, sum(h.Counts), summary.Fitted)
		}
	}
}

func TestAcquisitionArtifactFailureIsFatal(t *testing.T) {
	inst := newFakeInstrument()
	session := newTestSession(t, inst, 10, false)
	inst.script("trigger:state?", "TRIGGER")
	inst.frames = [][]byte{buildFrame(make([]int8, 10))}

	acquisition := scope.NewAcquisition(session, nil)
	acquisition.Writer.Dir = filepath.Join(session.Config.OutputDir, "missing")
	_, err := acquisition.Run(context.Background())
	var artifact *scope.ErrArtifactWrite
	if !errors.As(err, &artifact) {
		t.Fatalf("error = %v, want ErrArtifactWrite", err)
	}
}

func TestAcquisitionEmptyAggregation(t *testing.T) {
	inst := newFakeInstrument()
	session := newTestSession(t, inst, 10, true)
	session.Config.NEvents = 1
	inst.script("trigger:state?", "TRIGGER")
	inst.frames = [][]byte{buildFrame(make([]int8, 10))}

	acquisition := scope.NewAcquisition(session, nil)
	// a single point is too few to fit
	acquisition.Writer = scope.NewEventWriter(session.Config.OutputDir, 10, 1)
	summary, err := acquisition.Run(context.Background())
	var empty *scope.ErrEmptyDataset
	if !errors.As(err, &empty) {
		t.Fatalf("error = %v, want ErrEmptyDataset", err)
	}
	if summary.Diverged != 1 {
		t.Errorf("summary = %+v", summary)
	}
}
