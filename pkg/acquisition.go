package scope

import (
	"context"
	"errors"
	"fmt"
)

// EventSink receives every captured event with its fit, nil when the event
// was not fitted.
type EventSink interface {
	WriteEvent(event *WaveformEvent, fit *FitResult) error
	Close() error
}

// EventFitter fits the downsampled points of one event.
type EventFitter interface {
	Fit(event int, times []float64, voltages []float64) (FitResult, error)
}

// RunSummary reports the counters of a finished run.
type RunSummary struct {
	Triggered  int
	Fitted     int
	Diverged   int
	Discarded  int
	Polls      int
	Histograms []Histogram
}

// Acquisition drives one run: capture, decode, write, fit and aggregate
// until NEvents events have been written.
type Acquisition struct {
	Session    *Session
	Poller     *TriggerPoller
	Writer     *EventWriter
	Fitter     EventFitter
	Aggregator *Aggregator
	Sinks      []EventSink
}

func NewAcquisition(session *Session, policy PollPolicy) *Acquisition {
	config := session.Config
	poller := NewTriggerPoller(session.Instrument, session.Calibration.RecordLength, config.Holdoff, policy)
	poller.Verbosity = config.Verbosity
	return &Acquisition{
		Session:    session,
		Poller:     poller,
		Writer:     NewEventWriter(config.OutputDir, session.Calibration.RecordLength, config.MaxPoints),
		Fitter:     NewPeakFitter(config.InitialGuess),
		Aggregator: NewAggregator(config.NEvents),
	}
}

func (a *Acquisition) AddSink(sink EventSink) {
	a.Sinks = append(a.Sinks, sink)
}

// Run captures events until NEvents have been written or ctx is done.
// Artifact failures end the run; decode, fit and sink failures only affect
// the current event.
func (a *Acquisition) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary
	config := a.Session.Config

	for summary.Triggered < config.NEvents {
		frame, err := a.Poller.Capture(ctx)
		summary.Polls = a.Poller.Polls()
		if err != nil {
			return summary, err
		}
		event, err := a.decode(frame, summary.Triggered+1)
		a.Poller.Release()
		if err != nil {
			summary.Discarded++
			logger.Error(fmt.Errorf("discarding frame: %w", err).Error())
			continue
		}

		times, voltages, err := a.Writer.Write(event)
		if err != nil {
			return summary, err
		}
		summary.Triggered++

		var fit *FitResult
		if config.ProcessData {
			result, err := a.Fitter.Fit(event.Number, times, voltages)
			if err != nil {
				summary.Diverged++
				logger.Error(err.Error())
			} else {
				fit = &result
				summary.Fitted++
				a.Aggregator.Add(result)
			}
		}

		for _, sink := range a.Sinks {
			if err := sink.WriteEvent(event, fit); err != nil {
				var artifact *ErrArtifactWrite
				if errors.As(err, &artifact) {
					return summary, err
				}
				logger.Error(fmt.Errorf("error writing event %d to sink: %w", event.Number, err).Error())
			}
		}

		n := summary.Triggered
		if n == 1 || n%20 == 0 || n == config.NEvents {
			logger.Info(fmt.Sprintf("Processed %d/%d events", n, config.NEvents), "acquisition")
		}
	}

	if !config.ProcessData {
		return summary, nil
	}
	histograms, err := a.Aggregator.Histograms(config.NBins)
	if err != nil {
		return summary, err
	}
	summary.Histograms = histograms
	return summary, WriteHistograms(config.OutputDir, histograms)
}

func (a *Acquisition) decode(frame []byte, number int) (*WaveformEvent, error) {
	calibration := a.Session.Calibration
	raw, err := DecodeFrame(frame, calibration.RecordLength)
	if err != nil {
		return nil, err
	}
	voltages, err := ScaleWaveform(raw, a.Session.Time, calibration)
	if err != nil {
		return nil, err
	}
	return &WaveformEvent{Number: number, Time: a.Session.Time, Voltage: voltages}, nil
}

// Close closes every sink.
func (a *Acquisition) Close() error {
	var errs []error
	for _, sink := range a.Sinks {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}
