package scope

import (
	"path/filepath"
)

// Histogram names, also the base names of the written files.
const (
	WidthsHistogram     = "widths"
	AmplitudesHistogram = "amplitudes"
	IntegralsHistogram  = "integrals"
)

// Aggregator collects the per-event fit figures of a run.
type Aggregator struct {
	Widths     []float64
	Amplitudes []float64
	Integrals  []float64
}

func NewAggregator(capacity int) *Aggregator {
	return &Aggregator{
		Widths:     make([]float64, 0, capacity),
		Amplitudes: make([]float64, 0, capacity),
		Integrals:  make([]float64, 0, capacity),
	}
}

// Add records one successful fit. The width stored is the full width,
// four times the Landau width parameter.
func (a *Aggregator) Add(fit FitResult) {
	a.Widths = append(a.Widths, fit.FullWidth())
	a.Amplitudes = append(a.Amplitudes, fit.Amplitude)
	a.Integrals = append(a.Integrals, fit.Integral)
}

func (a *Aggregator) Len() int { return len(a.Widths) }

// Histograms bins the three collected series.
func (a *Aggregator) Histograms(nbins int) ([]Histogram, error) {
	series := []struct {
		name string
		data []float64
	}{
		{WidthsHistogram, a.Widths},
		{AmplitudesHistogram, a.Amplitudes},
		{IntegralsHistogram, a.Integrals},
	}
	histograms := make([]Histogram, 0, len(series))
	for _, s := range series {
		h, err := FillHistogram(s.name, s.data, nbins)
		if err != nil {
			return nil, err
		}
		histograms = append(histograms, h)
	}
	return histograms, nil
}

// WriteHistograms writes each histogram to <dir>/<name>.txt.
func WriteHistograms(dir string, histograms []Histogram) error {
	for _, h := range histograms {
		if err := WriteHistogram(filepath.Join(dir, h.Name+".txt"), h); err != nil {
			return err
		}
	}
	return nil
}
