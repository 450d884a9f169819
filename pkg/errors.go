package scope

import "fmt"

// ErrTransport represents a failed round-trip with the instrument.
type ErrTransport struct {
	Command string
	Err     error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("transport error on %q: %v", e.Command, e.Err)
}

func (e *ErrTransport) Unwrap() error { return e.Err }

// ErrFrameTooShort represents a waveform frame shorter than record length plus header.
type ErrFrameTooShort struct {
	Got  int
	Want int
}

func (e *ErrFrameTooShort) Error() string {
	return fmt.Sprintf("frame too short: got %d bytes, want at least %d", e.Got, e.Want)
}

// ErrMalformedHeader represents a frame whose IEEE block header cannot be parsed.
type ErrMalformedHeader struct {
	Reason string
}

func (e *ErrMalformedHeader) Error() string {
	return fmt.Sprintf("malformed block header: %s", e.Reason)
}

// ErrLengthMismatch represents two sequences that should have the same length.
type ErrLengthMismatch struct {
	Got  int
	Want int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("length mismatch: got %d, want %d", e.Got, e.Want)
}

// ErrFitDiverged represents a peak fit that did not converge for one event.
type ErrFitDiverged struct {
	Event  int
	Reason string
}

func (e *ErrFitDiverged) Error() string {
	return fmt.Sprintf("fit diverged on event %d: %s", e.Event, e.Reason)
}

// ErrEmptyDataset represents an attempt to histogram no data.
type ErrEmptyDataset struct {
	Name string
}

func (e *ErrEmptyDataset) Error() string {
	return fmt.Sprintf("empty dataset %q", e.Name)
}

// ErrArtifactWrite represents a failure creating or writing an output file.
type ErrArtifactWrite struct {
	Path string
	Err  error
}

func (e *ErrArtifactWrite) Error() string {
	return fmt.Sprintf("error writing artifact %q: %v", e.Path, e.Err)
}

func (e *ErrArtifactWrite) Unwrap() error { return e.Err }

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }
