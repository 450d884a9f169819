package scope

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// SensorSettings are per-sensor overrides of the acquisition settings.
type SensorSettings struct {
	Sensor     string `db:"Sensor"`
	Channel    string `db:"Channel"`
	Threshold  string `db:"Threshold"`
	HorizScale string `db:"HorizScale"`
	VertScale  string `db:"VertScale"`
	NEvents    int    `db:"NEvents"`
}

// Apply overrides the non-empty settings in config.
func (s SensorSettings) Apply(config *Configuration) {
	if s.Channel != "" {
		config.Channel = s.Channel
	}
	if s.Threshold != "" {
		config.Threshold = s.Threshold
	}
	if s.HorizScale != "" {
		config.HorizScale = s.HorizScale
	}
	if s.VertScale != "" {
		config.VertScale = s.VertScale
	}
	if s.NEvents > 0 {
		config.NEvents = s.NEvents
	}
}

// LoadSensorSettings returns the stored settings of a sensor and whether
// there were any.
func LoadSensorSettings(db *sqlx.DB, sensor string) (SensorSettings, bool, error) {
	query := "SELECT Sensor, Channel, Threshold, HorizScale, VertScale, NEvents FROM SensorSettings WHERE Sensor = ?"
	logger.Info(fmt.Sprintf("Reading settings of sensor %s from database", sensor), "database")

	rows, err := db.Queryx(query, sensor)
	if err != nil {
		return SensorSettings{}, false, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var settings SensorSettings
	found := false
	for rows.Next() {
		if err := rows.StructScan(&settings); err != nil {
			return SensorSettings{}, false, fmt.Errorf("error scanning DB row: %w", err)
		}
		found = true
	}
	return settings, found, rows.Err()
}

type runRow struct {
	RunID        string    `db:"RunID"`
	Sensor       string    `db:"Sensor"`
	StartTime    time.Time `db:"StartTime"`
	RecordLength int       `db:"RecordLength"`
	XIncrement   float64   `db:"XIncrement"`
	XZero        float64   `db:"XZero"`
	PointOffset  float64   `db:"PointOffset"`
	YMultiplier  float64   `db:"YMultiplier"`
	YZero        float64   `db:"YZero"`
	YOffset      float64   `db:"YOffset"`
}

type fitRow struct {
	RunID     string  `db:"RunID"`
	Event     int     `db:"Event"`
	Amplitude float64 `db:"Amplitude"`
	Centroid  float64 `db:"Centroid"`
	Width     float64 `db:"Width"`
	Integral  float64 `db:"Integral"`
}

// RunCatalog records a run and the fit of every event in the database.
type RunCatalog struct {
	db     *sqlx.DB
	runID  string
	events int
}

func NewRunCatalog(db *sqlx.DB, runID string, sensor string, calibration CalibrationParams) (*RunCatalog, error) {
	run := runRow{
		RunID:        runID,
		Sensor:       sensor,
		StartTime:    time.Now(),
		RecordLength: calibration.RecordLength,
		XIncrement:   calibration.XIncrement,
		XZero:        calibration.XZero,
		PointOffset:  calibration.PointOffset,
		YMultiplier:  calibration.YMultiplier,
		YZero:        calibration.YZero,
		YOffset:      calibration.YOffset,
	}
	query := `INSERT INTO Runs (RunID, Sensor, StartTime, RecordLength, XIncrement, XZero, PointOffset, YMultiplier, YZero, YOffset)
	VALUES (:RunID, :Sensor, :StartTime, :RecordLength, :XIncrement, :XZero, :PointOffset, :YMultiplier, :YZero, :YOffset)`
	if _, err := db.NamedExec(query, run); err != nil {
		return nil, fmt.Errorf("error inserting run %s: %w", runID, err)
	}
	return &RunCatalog{db: db, runID: runID}, nil
}

// WriteEvent stores the fit of an event. Events without a fit are only counted.
func (c *RunCatalog) WriteEvent(event *WaveformEvent, fit *FitResult) error {
	c.events++
	if fit == nil {
		return nil
	}
	row := fitRow{
		RunID:     c.runID,
		Event:     event.Number,
		Amplitude: fit.Amplitude,
		Centroid:  fit.Centroid,
		Width:     fit.Width,
		Integral:  fit.Integral,
	}
	query := `INSERT INTO Fits (RunID, Event, Amplitude, Centroid, Width, Integral)
	VALUES (:RunID, :Event, :Amplitude, :Centroid, :Width, :Integral)`
	if _, err := c.db.NamedExec(query, row); err != nil {
		return fmt.Errorf("error inserting fit of event %d: %w", event.Number, err)
	}
	return nil
}

// Close marks the run as finished. The connection stays open.
func (c *RunCatalog) Close() error {
	_, err := c.db.Exec("UPDATE Runs SET EndTime = ?, NEvents = ? WHERE RunID = ?", time.Now(), c.events, c.runID)
	if err != nil {
		return fmt.Errorf("error closing run %s: %w", c.runID, err)
	}
	return nil
}
