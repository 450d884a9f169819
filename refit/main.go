package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	scope "github.com/next-exp/scope_daq/pkg"
	"golang.org/x/exp/slices"
)

var configuration scope.Configuration

var logger scope.StdLogger

func init() {
	logger = scope.NewStdLogger(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path (.json or .yaml)")
	dir := flag.String("dir", ".", "Directory with the event files of a run")
	flag.Parse()

	var err error
	configuration, err = scope.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	scope.SetLogger(logger)
	if configuration.Verbosity > 0 {
		scope.PrintConfiguration(configuration, logger)
	}

	files, err := eventFiles(*dir)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Refitting %d events with %d workers", len(files), configuration.NumWorkers), "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fitter := scope.NewPeakFitter(configuration.InitialGuess)
	results, err := scope.RefitEvents(ctx, files, fitter, configuration.NumWorkers)
	if err != nil {
		logger.Error(fmt.Errorf("refit interrupted: %w", err).Error())
	}

	aggregator := scope.NewAggregator(len(results))
	for _, result := range results {
		if result.Err != nil {
			logger.Error(result.Err.Error())
			continue
		}
		aggregator.Add(result.Fit)
		if configuration.Verbosity > 1 {
			message := fmt.Sprintf("Event %d: amplitude %g, centroid %g, width %g", result.Event,
				result.Fit.Amplitude, result.Fit.Centroid, result.Fit.Width)
			logger.Info(message, "refit")
		}
	}
	logger.Info(fmt.Sprintf("Fitted %d/%d events", aggregator.Len(), len(files)), "main")
	reportStoredFits(filepath.Join(*dir, scope.FitTableName), aggregator.Len())

	histograms, err := aggregator.Histograms(configuration.NBins)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if err := scope.WriteHistograms(*dir, histograms); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// reportStoredFits compares the refit count with the fit table written
// during acquisition, when the run has one.
func reportStoredFits(path string, refitted int) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	rows, err := scope.ReadFitTable(path)
	if err != nil {
		logger.Error(fmt.Errorf("error reading %s: %w", path, err).Error())
		return
	}
	stored := 0
	for _, row := range rows {
		if row.Fitted {
			stored++
		}
	}
	runID := ""
	if len(rows) > 0 {
		runID = rows[0].RunID
	}
	message := fmt.Sprintf("Run %s: %d/%d events fitted during acquisition, %d refitted", runID, stored, len(rows), refitted)
	logger.Info(message, "main")
}

// eventFiles lists event_<n>.csv files sorted by event number.
func eventFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "event_*.csv"))
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(matches))
	numbers := make(map[string]int, len(matches))
	for _, path := range matches {
		n, err := scope.EventNumberFromFilename(path)
		if err != nil {
			continue
		}
		numbers[path] = n
		files = append(files, path)
	}
	slices.SortFunc(files, func(a, b string) int {
		return numbers[a] - numbers[b]
	})
	if len(files) == 0 {
		return nil, fmt.Errorf("no event files in %s", dir)
	}
	return files, nil
}
