package scope

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// RefitResult is the outcome of refitting one event file.
type RefitResult struct {
	Path  string
	Event int
	Fit   FitResult
	Err   error
}

func refitWorker(id int, fitter *PeakFitter, jobs <-chan string, results chan<- RefitResult) {
	for path := range jobs {
		results <- refitFile(id, fitter, path)
	}
}

func refitFile(id int, fitter *PeakFitter, path string) (result RefitResult) {
	result.Path = path
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("worker %d recovered from panic on %s: %v", id, path, r)
		}
	}()

	event, err := ReadEventFile(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.Event = event.Number
	result.Fit, result.Err = fitter.Fit(event.Number, event.Time, event.Voltage)
	return result
}

// RefitEvents fits every event file with numWorkers workers and returns the
// results ordered by event number. Per-file errors are reported in the
// results; only ctx ends the run early.
func RefitEvents(ctx context.Context, files []string, fitter *PeakFitter, numWorkers int) ([]RefitResult, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan string, numWorkers)
	results := make(chan RefitResult, len(files))

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			refitWorker(id, fitter, jobs, results)
		}(w)
	}

	var err error
feed:
	for _, path := range files {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	collected := make([]RefitResult, 0, len(files))
	for result := range results {
		collected = append(collected, result)
	}
	slices.SortFunc(collected, func(a, b RefitResult) int {
		return a.Event - b.Event
	})
	return collected, err
}
