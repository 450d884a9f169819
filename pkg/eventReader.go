package scope

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadEventFile loads the time,voltage lines written by EventWriter.
func ReadEventFile(path string) (*WaveformEvent, error) {
	number, err := EventNumberFromFilename(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer file.Close()

	event := &WaveformEvent{Number: number}
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		timeField, voltageField, found := strings.Cut(text, ",")
		if !found {
			return nil, fmt.Errorf("%s:%d: expected time,voltage", path, line)
		}
		t, err := strconv.ParseFloat(timeField, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		v, err := strconv.ParseFloat(voltageField, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		event.Time = append(event.Time, t)
		event.Voltage = append(event.Voltage, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return event, nil
}

// EventNumberFromFilename extracts n from event_<n>.<ext>.
func EventNumberFromFilename(path string) (int, error) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	digits, found := strings.CutPrefix(name, "event_")
	if !found {
		return 0, fmt.Errorf("not an event file: %s", base)
	}
	number, err := strconv.Atoi(digits)
	if err != nil || number < 1 {
		return 0, fmt.Errorf("invalid event number in %s", base)
	}
	return number, nil
}
