package scope

import (
	"errors"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// FitTableName is the file written next to the event files.
const FitTableName = "fits.parquet"

// FitRow is one row of the fit table.
type FitRow struct {
	RunID     string  `parquet:"run_id"`
	Event     int64   `parquet:"event"`
	Fitted    bool    `parquet:"fitted"`
	Amplitude float64 `parquet:"amplitude"`
	Centroid  float64 `parquet:"centroid"`
	Width     float64 `parquet:"width"`
	Integral  float64 `parquet:"integral"`
}

// FitTableWriter streams one row per event to a snappy compressed parquet file.
type FitTableWriter struct {
	Path   string
	runID  string
	file   *os.File
	writer *parquet.GenericWriter[FitRow]
}

func NewFitTableWriter(path string, runID string) (*FitTableWriter, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, &ErrArtifactWrite{Path: path, Err: err}
	}
	return &FitTableWriter{
		Path:   path,
		runID:  runID,
		file:   file,
		writer: parquet.NewGenericWriter[FitRow](file, parquet.Compression(&parquet.Snappy)),
	}, nil
}

func (w *FitTableWriter) WriteEvent(event *WaveformEvent, fit *FitResult) error {
	row := FitRow{RunID: w.runID, Event: int64(event.Number)}
	if fit != nil {
		row.Fitted = true
		row.Amplitude = fit.Amplitude
		row.Centroid = fit.Centroid
		row.Width = fit.Width
		row.Integral = fit.Integral
	}
	if _, err := w.writer.Write([]FitRow{row}); err != nil {
		return &ErrArtifactWrite{Path: w.Path, Err: err}
	}
	return nil
}

func (w *FitTableWriter) Close() error {
	return errors.Join(w.writer.Close(), w.file.Close())
}

// ReadFitTable loads every row of a fit table.
func ReadFitTable(path string) ([]FitRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer file.Close()

	reader := parquet.NewGenericReader[FitRow](file)
	defer reader.Close()

	rows := make([]FitRow, 0, reader.NumRows())
	batch := make([]FitRow, 256)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}
