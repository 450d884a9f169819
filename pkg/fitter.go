package scope

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// DefaultGuess is the starting point of the fit: height scale, location and
// width for a nanosecond pulse.
var DefaultGuess = [3]float64{0.4, -1e-9, 9e-8}

// PeakFitter fits the Landau model to one event by least squares.
type PeakFitter struct {
	Guess         [3]float64
	MaxIterations int
}

func NewPeakFitter(guess []float64) *PeakFitter {
	fitter := &PeakFitter{Guess: DefaultGuess, MaxIterations: 5000}
	if len(guess) == 3 {
		copy(fitter.Guess[:], guess)
	}
	return fitter
}

// parameterScales brings the three parameters to order one so that the
// simplex steps are meaningful for amplitudes in volts and times in seconds.
func (f *PeakFitter) parameterScales(times []float64) [3]float64 {
	amplitude := math.Abs(f.Guess[0])
	if amplitude == 0 {
		amplitude = 1
	}
	timeScale := math.Abs(f.Guess[2])
	if timeScale == 0 {
		timeScale = math.Abs(times[len(times)-1] - times[0])
	}
	if timeScale == 0 {
		timeScale = 1
	}
	return [3]float64{amplitude, timeScale, timeScale}
}

// Fit returns the fitted amplitude, centroid and width of one event and the
// sum of the fitted model over the sampled times.
func (f *PeakFitter) Fit(event int, times []float64, voltages []float64) (FitResult, error) {
	var result FitResult
	if len(times) != len(voltages) {
		return result, &ErrLengthMismatch{Got: len(voltages), Want: len(times)}
	}
	if len(times) < len(f.Guess) {
		return result, &ErrFitDiverged{Event: event, Reason: fmt.Sprintf("%d points for 3 parameters", len(times))}
	}
	if floats.HasNaN(voltages) || floats.HasNaN(times) {
		return result, &ErrFitDiverged{Event: event, Reason: "non-finite samples"}
	}

	scales := f.parameterScales(times)
	unscale := func(x []float64) (float64, float64, float64) {
		return x[0] * scales[0], x[1] * scales[1], x[2] * scales[2]
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			scale, location, width := unscale(x)
			sum := 0.0
			for i, t := range times {
				residual := voltages[i] - Landau(t, scale, location, width)
				sum += residual * residual
			}
			return sum
		},
	}
	initial := []float64{
		f.Guess[0] / scales[0],
		f.Guess[1] / scales[1],
		f.Guess[2] / scales[2],
	}
	settings := &optimize.Settings{
		MajorIterations: f.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   1e-10,
			Iterations: 200,
		},
	}

	optimum, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{SimplexSize: 0.1})
	if err != nil {
		return result, &ErrFitDiverged{Event: event, Reason: err.Error()}
	}
	switch optimum.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit, optimize.Failure:
		return result, &ErrFitDiverged{Event: event, Reason: optimum.Status.String()}
	}

	scale, location, width := unscale(optimum.X)
	for _, value := range []float64{scale, location, width, optimum.F} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return result, &ErrFitDiverged{Event: event, Reason: "non-finite parameters"}
		}
	}
	if width <= 0 {
		return result, &ErrFitDiverged{Event: event, Reason: fmt.Sprintf("width %g", width)}
	}

	model := make([]float64, len(times))
	for i, t := range times {
		model[i] = Landau(t, scale, location, width)
	}
	result = FitResult{
		Amplitude: scale,
		Centroid:  location,
		Width:     width,
		Integral:  floats.Sum(model),
	}
	return result, nil
}
