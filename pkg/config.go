package scope

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Configuration struct {
	NEvents          int       `json:"n_events" yaml:"n_events"`
	Verbosity        int       `json:"verbosity" yaml:"verbosity"`
	Address          string    `json:"address" yaml:"address"`
	TimeoutMs        int       `json:"timeout_ms" yaml:"timeout_ms"`
	Sensor           string    `json:"sensor" yaml:"sensor"`
	OutputDir        string    `json:"output_dir" yaml:"output_dir"`
	Channel          string    `json:"channel" yaml:"channel"`
	Threshold        string    `json:"threshold" yaml:"threshold"`
	RestoreLevel     string    `json:"restore_level" yaml:"restore_level"`
	HorizScale       string    `json:"horiz_scale" yaml:"horiz_scale"`
	VertScale        string    `json:"vert_scale" yaml:"vert_scale"`
	Holdoff          float64   `json:"holdoff" yaml:"holdoff"`
	PollIntervalMs   int       `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	MaxPoints        int       `json:"max_points" yaml:"max_points"`
	NBins            int       `json:"n_bins" yaml:"n_bins"`
	InitialGuess     []float64 `json:"initial_guess" yaml:"initial_guess"`
	ProcessData      bool      `json:"process_data" yaml:"process_data"`
	GetScreen        bool      `json:"get_screen" yaml:"get_screen"`
	ScreenLevel      string    `json:"screen_level" yaml:"screen_level"`
	LeaveTerminal    bool      `json:"leave_terminal" yaml:"leave_terminal"`
	WriteHDF5        bool      `json:"write_hdf5" yaml:"write_hdf5"`
	FileOut          string    `json:"file_out" yaml:"file_out"`
	CompressionLevel int       `json:"compression_level" yaml:"compression_level"`
	WriteParquet     bool      `json:"write_parquet" yaml:"write_parquet"`
	NoDB             bool      `json:"no_db" yaml:"no_db"`
	Host             string    `json:"host" yaml:"host"`
	User             string    `json:"user" yaml:"user"`
	Passwd           string    `json:"pass" yaml:"pass"`
	DBName           string    `json:"dbname" yaml:"dbname"`
	NumWorkers       int       `json:"num_workers" yaml:"num_workers"`
}

// DefaultConfiguration mirrors the settings shipped with the bench setup.
func DefaultConfiguration() Configuration {
	return Configuration{
		NEvents:          10,
		Verbosity:        0,
		Address:          "192.168.0.200:4000",
		TimeoutMs:        10000,
		OutputDir:        ".",
		Channel:          "ch2",
		Threshold:        "0.5",
		RestoreLevel:     "0.5",
		HorizScale:       "4e-8",
		VertScale:        "0.05",
		Holdoff:          0.01,
		PollIntervalMs:   0,
		MaxPoints:        DefaultMaxPoints,
		NBins:            DefaultBins,
		InitialGuess:     []float64{0.4, -1e-9, 9e-8},
		ProcessData:      true,
		GetScreen:        false,
		ScreenLevel:      "0.01",
		LeaveTerminal:    true,
		WriteHDF5:        false,
		FileOut:          "waveforms.h5",
		CompressionLevel: 4,
		WriteParquet:     false,
		NoDB:             true,
		Host:             "localhost",
		User:             "scope",
		Passwd:           "scope",
		DBName:           "SCOPEDAQ",
		NumWorkers:       1,
	}
}

func (c Configuration) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c Configuration) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// LoadConfiguration reads a JSON or YAML file (by extension) on top of the
// default settings. An empty filename returns the defaults.
func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, &ErrOpenFile{Filename: filename, Err: err}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, fmt.Errorf("error parsing configuration %s: %w", filename, err)
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Number of events: %d", config.NEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Address: %s", config.Address), "config")
	logger.Info(fmt.Sprintf("Timeout: %v", config.Timeout()), "config")
	logger.Info(fmt.Sprintf("Sensor: %s", config.Sensor), "config")
	logger.Info(fmt.Sprintf("Output dir: %s", config.OutputDir), "config")
	logger.Info(fmt.Sprintf("Channel: %s", config.Channel), "config")
	logger.Info(fmt.Sprintf("Threshold: %s", config.Threshold), "config")
	logger.Info(fmt.Sprintf("Restore level: %s", config.RestoreLevel), "config")
	logger.Info(fmt.Sprintf("Horizontal scale: %s", config.HorizScale), "config")
	logger.Info(fmt.Sprintf("Vertical scale: %s", config.VertScale), "config")
	logger.Info(fmt.Sprintf("Holdoff: %g", config.Holdoff), "config")
	logger.Info(fmt.Sprintf("Poll interval: %v", config.PollInterval()), "config")
	logger.Info(fmt.Sprintf("Max points: %d", config.MaxPoints), "config")
	logger.Info(fmt.Sprintf("Number of bins: %d", config.NBins), "config")
	logger.Info(fmt.Sprintf("Initial guess: %v", config.InitialGuess), "config")
	logger.Info(fmt.Sprintf("Process data: %t", config.ProcessData), "config")
	logger.Info(fmt.Sprintf("Get screen: %t", config.GetScreen), "config")
	logger.Info(fmt.Sprintf("Leave terminal: %t", config.LeaveTerminal), "config")
	logger.Info(fmt.Sprintf("Write HDF5: %t", config.WriteHDF5), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Write parquet: %t", config.WriteParquet), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
}
