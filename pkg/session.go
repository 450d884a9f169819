package scope

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Session bundles the instrument link with the calibration read from it.
// Calibration and Time are fixed once Setup returns.
type Session struct {
	Instrument  Instrument
	Config      Configuration
	Identity    string
	Calibration CalibrationParams
	Time        []float64
}

func NewSession(instrument Instrument, config Configuration) *Session {
	return &Session{Instrument: instrument, Config: config}
}

// Setup configures acquisition on the configured channel, reads the
// waveform preamble and arms the edge trigger.
func (s *Session) Setup() error {
	identity, err := s.Instrument.Query("*idn?")
	if err != nil {
		return fmt.Errorf("error identifying instrument: %w", err)
	}
	s.Identity = strings.TrimSpace(string(identity))
	logger.Info(fmt.Sprintf("Connected to %s", s.Identity), "session")

	channel := s.Config.Channel
	commands := []string{
		"header 0",                 // arguments only in query responses
		"data:source " + channel,   // waveform source
		"data:enc sri",             // signed binary
		"data:width 1",             // one byte per sample
		"data:start 1",             // first point
		"data:stop 1e10",           // clipped to the record length
		"horizontal:scale " + s.Config.HorizScale,
		strings.ToUpper(channel) + ":scale " + s.Config.VertScale,
	}
	if err := writeAll(s.Instrument, commands); err != nil {
		return err
	}

	s.Calibration, err = ReadCalibration(s.Instrument)
	if err != nil {
		return err
	}
	if s.Calibration.RecordLength <= 0 {
		return fmt.Errorf("instrument reported record length %d", s.Calibration.RecordLength)
	}
	s.Time = TimeAxis(s.Calibration)

	commands = []string{
		"data:stop " + strconv.Itoa(s.Calibration.RecordLength),
		"trigger:a:edge:source " + channel,
		"trigger:a:level:" + channel + " " + s.Config.Threshold,
		"trigger:a:edge:slope rise",
	}
	if err := writeAll(s.Instrument, commands); err != nil {
		return err
	}

	if s.Config.Verbosity > 0 {
		c := s.Calibration
		message := fmt.Sprintf("Record length %d, xincr %g, xzero %g, pt_off %g, ymult %g, yzero %g, yoff %g",
			c.RecordLength, c.XIncrement, c.XZero, c.PointOffset, c.YMultiplier, c.YZero, c.YOffset)
		logger.Info(message, "session")
	}
	return nil
}

// Teardown puts the instrument back in free-running mode.
func (s *Session) Teardown() error {
	commands := []string{
		"trigger:a:holdoff:by random",
		"trigger:a:mode auto",
		"trigger:a:level:" + s.Config.Channel + " " + s.Config.RestoreLevel,
	}
	var errs []error
	for _, command := range commands {
		if err := s.Instrument.Write(command); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReadCalibration queries the waveform preamble.
func ReadCalibration(instrument Instrument) (CalibrationParams, error) {
	var c CalibrationParams
	points, err := queryFloat(instrument, "WFMOutpre:NR_Pt?")
	if err != nil {
		return c, err
	}
	c.RecordLength = int(points)

	fields := []struct {
		command string
		value   *float64
	}{
		{"WFMOutpre:XINcr?", &c.XIncrement},
		{"WFMOutpre:XZERO?", &c.XZero},
		{"WFMOutpre:PT_OFF?", &c.PointOffset},
		{"WFMOutpre:YMULT?", &c.YMultiplier},
		{"WFMOutpre:YZERO?", &c.YZero},
		{"WFMOutpre:YOFF?", &c.YOffset},
	}
	for _, field := range fields {
		*field.value, err = queryFloat(instrument, field.command)
		if err != nil {
			return c, err
		}
	}
	return c, nil
}

func queryFloat(instrument Instrument, command string) (float64, error) {
	response, err := instrument.Query(command)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(response))
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing response %q to %s: %w", text, command, err)
	}
	return value, nil
}

func writeAll(instrument Instrument, commands []string) error {
	for _, command := range commands {
		if err := instrument.Write(command); err != nil {
			return err
		}
	}
	return nil
}
