package scope

// CalibrationParams holds the waveform preamble read once per session.
// x = (i - PointOffset)*XIncrement + XZero, y = (raw - YOffset)*YMultiplier + YZero
type CalibrationParams struct {
	RecordLength int
	XIncrement   float64
	XZero        float64
	PointOffset  float64
	YMultiplier  float64
	YZero        float64
	YOffset      float64
}

// WaveformEvent is one decoded capture. Time is shared between events of a
// session and must not be modified.
type WaveformEvent struct {
	Number  int
	Time    []float64
	Voltage []float64
}

type FitResult struct {
	Amplitude float64
	Centroid  float64
	Width     float64
	Integral  float64
}

// FullWidth is the width reported in the width histogram.
func (f FitResult) FullWidth() float64 {
	return 4 * f.Width
}

type Histogram struct {
	Name   string
	Edges  []float64
	Counts []int
}
