package archive

import (
	"errors"
	"fmt"
	"time"

	hdf5 "github.com/jmbenlloch/go-hdf5"

	scope "github.com/next-exp/scope_daq/pkg"
)

// Writer archives the full-resolution waveforms of a run and their fits:
//
//	/Run/runInfo       run id and sensor
//	/Run/calibration   waveform preamble
//	/Run/events        event number and capture time
//	/RD/time           shared time axis
//	/RD/waveforms      one row of voltages per event
//	/Fit/results       fit of every fitted event
type Writer struct {
	File             *hdf5.File
	Filename         string
	RunGroup         *hdf5.Group
	RDGroup          *hdf5.Group
	FitGroup         *hdf5.Group
	EventTable       *hdf5.Dataset
	RunInfoTable     *hdf5.Dataset
	CalibrationTable *hdf5.Dataset
	FitTable         *hdf5.Dataset
	TimeAxis         *hdf5.Dataset
	Waveforms        *hdf5.Dataset
	EvtCounter       int
	FitCounter       int
	nSamples         int
}

func NewWriter(filename string, runID string, sensor string, calibration scope.CalibrationParams,
	timeAxis []float64, compression int) (*Writer, error) {
	var err error
	w := &Writer{Filename: filename, nSamples: len(timeAxis)}
	if w.File, err = openFile(filename); err != nil {
		return nil, err
	}

	if err := w.createLayout(compression); err != nil {
		w.Close()
		return nil, err
	}

	info := RunInfoHDF5{
		run_id: convertToHdf5String(runID),
		sensor: convertToHdf5String(sensor),
	}
	calib := CalibrationHDF5{
		record_length: int32(calibration.RecordLength),
		x_increment:   calibration.XIncrement,
		x_zero:        calibration.XZero,
		pt_offset:     calibration.PointOffset,
		y_multiplier:  calibration.YMultiplier,
		y_zero:        calibration.YZero,
		y_offset:      calibration.YOffset,
	}
	axis := append([]float64(nil), timeAxis...)
	err = errors.Join(
		writeEntryToTable(w.RunInfoTable, info, 0),
		writeEntryToTable(w.CalibrationTable, calib, 0),
		write2dArray(w.TimeAxis, &axis, 0, w.nSamples),
	)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("error writing run header to %s: %w", filename, err)
	}
	return w, nil
}

func (w *Writer) createLayout(compression int) error {
	var err error
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.RDGroup, err = createGroup(w.File, "RD"); err != nil {
		return err
	}
	if w.FitGroup, err = createGroup(w.File, "Fit"); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.RunGroup, "events", EventDataHDF5{}, compression); err != nil {
		return err
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, compression); err != nil {
		return err
	}
	if w.CalibrationTable, err = createTable(w.RunGroup, "calibration", CalibrationHDF5{}, compression); err != nil {
		return err
	}
	if w.FitTable, err = createTable(w.FitGroup, "results", FitResultHDF5{}, compression); err != nil {
		return err
	}
	if w.TimeAxis, err = create2dArray(w.RDGroup, "time", w.nSamples, compression); err != nil {
		return err
	}
	if w.Waveforms, err = create2dArray(w.RDGroup, "waveforms", w.nSamples, compression); err != nil {
		return err
	}
	return nil
}

// WriteEvent appends the event waveform and, when present, its fit.
func (w *Writer) WriteEvent(event *scope.WaveformEvent, fit *scope.FitResult) error {
	if len(event.Voltage) != w.nSamples {
		return &scope.ErrLengthMismatch{Got: len(event.Voltage), Want: w.nSamples}
	}
	entry := EventDataHDF5{
		evt_number: int32(event.Number),
		timestamp:  uint64(time.Now().UnixMilli()),
	}
	if err := writeEntryToTable(w.EventTable, entry, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event %d: %w", event.Number, err)
	}
	voltages := event.Voltage
	if err := write2dArray(w.Waveforms, &voltages, w.EvtCounter, w.nSamples); err != nil {
		return fmt.Errorf("error writing waveform of event %d: %w", event.Number, err)
	}
	w.EvtCounter++

	if fit == nil {
		return nil
	}
	result := FitResultHDF5{
		evt_number: int32(event.Number),
		amplitude:  fit.Amplitude,
		centroid:   fit.Centroid,
		width:      fit.Width,
		integral:   fit.Integral,
	}
	if err := writeEntryToTable(w.FitTable, result, w.FitCounter); err != nil {
		return fmt.Errorf("error writing fit of event %d: %w", event.Number, err)
	}
	w.FitCounter++
	return nil
}

func (w *Writer) Close() error {
	var errs []error
	for _, dset := range []*hdf5.Dataset{w.EventTable, w.RunInfoTable, w.CalibrationTable,
		w.FitTable, w.TimeAxis, w.Waveforms} {
		if dset != nil {
			errs = append(errs, dset.Close())
		}
	}
	for _, group := range []*hdf5.Group{w.RunGroup, w.RDGroup, w.FitGroup} {
		if group != nil {
			errs = append(errs, group.Close())
		}
	}
	if w.File != nil {
		errs = append(errs, w.File.Close())
	}
	return errors.Join(errs...)
}
