package scope

// Scale converts one raw sample to volts.
func Scale(raw int8, c CalibrationParams) float64 {
	return (float64(raw)-c.YOffset)*c.YMultiplier + c.YZero
}

// TimeAxis returns the sample times of a record. Horizontal calibration does
// not change during a session, so the axis is computed once and shared.
func TimeAxis(c CalibrationParams) []float64 {
	if c.RecordLength <= 0 {
		return nil
	}
	t0 := -c.PointOffset*c.XIncrement + c.XZero
	times := make([]float64, c.RecordLength)
	for i := range times {
		times[i] = t0 + float64(i)*c.XIncrement
	}
	return times
}

func ScaleWaveform(raw []int8, times []float64, c CalibrationParams) ([]float64, error) {
	if len(raw) != len(times) {
		return nil, &ErrLengthMismatch{Got: len(raw), Want: len(times)}
	}
	voltages := make([]float64, len(raw))
	for i, sample := range raw {
		voltages[i] = Scale(sample, c)
	}
	return voltages, nil
}
