package scope

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"golang.org/x/exp/slices"
)

// DefaultBins is the number of bins of every summary histogram.
const DefaultBins = 500

// FillHistogram bins data over [min-0.1*min, max+0.1*max] in nbins equal
// bins, where min and max are taken over the finite values only. Values
// landing outside the range go to the nearest edge bin and NaN goes to bin 0,
// so the counts always add up to len(data).
func FillHistogram(name string, data []float64, nbins int) (Histogram, error) {
	h := Histogram{Name: name}
	if len(data) == 0 {
		return h, &ErrEmptyDataset{Name: name}
	}
	if nbins <= 0 {
		nbins = DefaultBins
	}

	low, high := finiteRange(data)
	xmin := low - 0.1*low
	xmax := high + 0.1*high
	width := (xmax - xmin) / float64(nbins)

	h.Edges = make([]float64, nbins)
	for i := range h.Edges {
		h.Edges[i] = xmin + float64(i)*width
	}
	h.Counts = make([]int, nbins)
	for _, value := range data {
		h.Counts[binIndex(value, xmin, width, nbins)]++
	}
	return h, nil
}

// finiteRange returns the extremes of the finite values of data, zero when
// there are none.
func finiteRange(data []float64) (float64, float64) {
	finite := slices.DeleteFunc(slices.Clone(data), func(v float64) bool {
		return math.IsNaN(v) || math.IsInf(v, 0)
	})
	if len(finite) == 0 {
		return 0, 0
	}
	return slices.Min(finite), slices.Max(finite)
}

func binIndex(value float64, xmin float64, width float64, nbins int) int {
	if width == 0 || math.IsNaN(width) || math.IsInf(width, 0) || math.IsNaN(value) {
		return 0
	}
	position := math.Floor((value - xmin) / width)
	switch {
	case math.IsNaN(position) || position < 0:
		return 0
	case position >= float64(nbins):
		return nbins - 1
	}
	return int(position)
}

// WriteHistogram writes one "edge,count" line per bin.
func WriteHistogram(path string, h Histogram) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return &ErrArtifactWrite{Path: path, Err: err}
	}
	defer file.Close()

	buffer := bufio.NewWriter(file)
	for i, edge := range h.Edges {
		if _, err := fmt.Fprintf(buffer, "%.5e,%d\n", edge, h.Counts[i]); err != nil {
			return &ErrArtifactWrite{Path: path, Err: err}
		}
	}
	if err := buffer.Flush(); err != nil {
		return &ErrArtifactWrite{Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &ErrArtifactWrite{Path: path, Err: err}
	}
	return nil
}
