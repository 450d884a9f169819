package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	sqlx "github.com/jmoiron/sqlx"
	scope "github.com/next-exp/scope_daq/pkg"
	"github.com/next-exp/scope_daq/pkg/archive"
)

var dbConn *sqlx.DB
var configuration scope.Configuration

var (
	logger         scope.StdLogger
	VerbosityLevel int
)

func init() {
	logger = scope.NewStdLogger(os.Stdout, os.Stderr)
}

func main() {
	if err := run(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	configFilename := flag.String("config", "", "Configuration file path (.json or .yaml)")
	sensor := flag.String("sensor", "", "Sensor number or identifier")
	nEvents := flag.Int("n", 0, "Number of events, overrides the configuration")
	flag.Parse()

	var err error
	configuration, err = scope.LoadConfiguration(*configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	scope.SetLogger(logger)
	if *sensor != "" {
		configuration.Sensor = *sensor
	}
	if *nEvents > 0 {
		configuration.NEvents = *nEvents
	}
	if configuration.Sensor == "" {
		configuration.Sensor, err = promptLine("Enter the number of sensor or its string identifier: ")
		if err != nil {
			return err
		}
	}

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Reading configuration file: %s", *configFilename), "main")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !configuration.NoDB {
		dbConn, err = scope.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			return fmt.Errorf("Error connection to database: %w", err)
		}
		defer dbConn.Close()

		settings, found, err := scope.LoadSensorSettings(dbConn, configuration.Sensor)
		if err != nil {
			logger.Error(fmt.Errorf("error loading sensor settings: %w", err).Error())
		} else if found {
			settings.Apply(&configuration)
		}
	}
	if VerbosityLevel > 0 {
		scope.PrintConfiguration(configuration, logger)
	}

	instrument, err := scope.DialInstrument(ctx, configuration.Address, configuration.Timeout())
	if err != nil {
		return err
	}
	defer instrument.Close()

	session := scope.NewSession(instrument, configuration)
	if err := session.Setup(); err != nil {
		return fmt.Errorf("error setting up instrument: %w", err)
	}

	runErr := acquire(ctx, session)
	if err := session.Teardown(); err != nil {
		logger.Error(fmt.Errorf("error restoring instrument: %w", err).Error())
	}
	if runErr != nil {
		return runErr
	}

	if !configuration.LeaveTerminal {
		_, err = promptLine("Press ENTER to exit")
	}
	return err
}

func acquire(ctx context.Context, session *scope.Session) (err error) {
	outputDir := filepath.Join(configuration.OutputDir, "sens "+configuration.Sensor)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return &scope.ErrArtifactWrite{Path: outputDir, Err: err}
	}
	session.Config.OutputDir = outputDir

	runID := uuid.NewString()
	logger.Info(fmt.Sprintf("Run %s, output in %s", runID, outputDir), "main")

	acquisition := scope.NewAcquisition(session, scope.FixedInterval(configuration.PollInterval()))
	defer func() {
		err = errors.Join(err, acquisition.Close())
	}()

	if configuration.WriteHDF5 {
		writer, err := archive.NewWriter(filepath.Join(outputDir, configuration.FileOut), runID,
			configuration.Sensor, session.Calibration, session.Time, configuration.CompressionLevel)
		if err != nil {
			return err
		}
		acquisition.AddSink(writer)
	}
	if configuration.WriteParquet {
		table, err := scope.NewFitTableWriter(filepath.Join(outputDir, scope.FitTableName), runID)
		if err != nil {
			return err
		}
		acquisition.AddSink(table)
	}
	if dbConn != nil {
		catalog, err := scope.NewRunCatalog(dbConn, runID, configuration.Sensor, session.Calibration)
		if err != nil {
			logger.Error(err.Error())
		} else {
			acquisition.AddSink(catalog)
		}
	}

	summary, err := acquisition.Run(ctx)
	logger.Info(fmt.Sprintf("Triggered %d events in %d polls, %d fitted, %d diverged, %d discarded",
		summary.Triggered, summary.Polls, summary.Fitted, summary.Diverged, summary.Discarded), "main")
	if err != nil {
		return err
	}

	if configuration.GetScreen {
		if _, err := scope.Screenshot(session.Instrument, outputDir, configuration.Channel, configuration.ScreenLevel); err != nil {
			logger.Error(fmt.Errorf("error capturing screenshot: %w", err).Error())
		}
	}
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("error reading from terminal: %w", err)
	}
	return strings.TrimSpace(line), nil
}
