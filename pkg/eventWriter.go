package scope

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMaxPoints bounds the number of points written per event file.
const DefaultMaxPoints = 20000

// Divider returns the smallest d >= 1 such that recordLength/d <= maxPoints.
func Divider(recordLength int, maxPoints int) int {
	divider := 1
	if maxPoints <= 0 {
		return divider
	}
	for recordLength/divider > maxPoints {
		divider++
	}
	return divider
}

// EventWriter stores every captured event as event_<n>.<ext>, one
// "time,voltage" line per kept sample. A sample is kept when its position in
// the raw frame, Offset plus its index, is a multiple of the divider.
type EventWriter struct {
	Dir       string
	Extension string
	Offset    int
	divider   int
}

func NewEventWriter(dir string, recordLength int, maxPoints int) *EventWriter {
	return &EventWriter{
		Dir:       dir,
		Extension: "csv",
		Offset:    SampleOffset,
		divider:   Divider(recordLength, maxPoints),
	}
}

func (w *EventWriter) Divider() int { return w.divider }

func (w *EventWriter) Filename(number int) string {
	return filepath.Join(w.Dir, fmt.Sprintf("event_%d.%s", number, w.Extension))
}

// Write keeps every divider-th sample of the event, writes them and returns
// the kept points.
func (w *EventWriter) Write(event *WaveformEvent) ([]float64, []float64, error) {
	if len(event.Time) != len(event.Voltage) {
		return nil, nil, &ErrLengthMismatch{Got: len(event.Voltage), Want: len(event.Time)}
	}
	filename := w.Filename(event.Number)
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, &ErrArtifactWrite{Path: filename, Err: err}
	}
	defer file.Close()

	kept := len(event.Time)/w.divider + 1
	times := make([]float64, 0, kept)
	voltages := make([]float64, 0, kept)

	buffer := bufio.NewWriter(file)
	for i := range event.Time {
		if (i+w.Offset)%w.divider != 0 {
			continue
		}
		if _, err := fmt.Fprintf(buffer, "%.5g,%.5g\n", event.Time[i], event.Voltage[i]); err != nil {
			return nil, nil, &ErrArtifactWrite{Path: filename, Err: err}
		}
		times = append(times, event.Time[i])
		voltages = append(voltages, event.Voltage[i])
	}
	if err := buffer.Flush(); err != nil {
		return nil, nil, &ErrArtifactWrite{Path: filename, Err: err}
	}
	if err := file.Close(); err != nil {
		return nil, nil, &ErrArtifactWrite{Path: filename, Err: err}
	}
	return times, voltages, nil
}
