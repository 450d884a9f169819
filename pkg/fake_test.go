package scope_test

import (
	"errors"
	"fmt"
)

var errLinkDown = errors.New("link down")

// fakeInstrument answers queries from per-command scripts and records every
// command it receives.
type fakeInstrument struct {
	queries  map[string][]string
	fallback map[string]string
	frames   [][]byte
	image    []byte
	failRead int
	commands []string
	closed   bool
}

func newFakeInstrument() *fakeInstrument {
	return &fakeInstrument{
		queries:  make(map[string][]string),
		fallback: make(map[string]string),
	}
}

// script replaces the responses queued for a query; the last one is repeated
// once the queue is empty. An "ERR" response fails the query.
func (f *fakeInstrument) script(command string, responses ...string) {
	f.queries[command] = responses
	if len(responses) > 0 {
		f.fallback[command] = responses[len(responses)-1]
	}
}

func (f *fakeInstrument) Write(command string) error {
	f.commands = append(f.commands, command)
	return nil
}

func (f *fakeInstrument) Query(command string) ([]byte, error) {
	f.commands = append(f.commands, command)
	queue := f.queries[command]
	response, ok := f.fallback[command]
	if len(queue) > 0 {
		response, ok = queue[0], true
		f.queries[command] = queue[1:]
	}
	if !ok {
		return nil, fmt.Errorf("unexpected query %q", command)
	}
	if response == "ERR" {
		return nil, errLinkDown
	}
	return []byte(response + "\n"), nil
}

func (f *fakeInstrument) ReadRaw(n int) ([]byte, error) {
	f.commands = append(f.commands, fmt.Sprintf("<read %d>", n))
	if f.failRead > 0 {
		f.failRead--
		return nil, errLinkDown
	}
	if len(f.frames) == 0 {
		return nil, errors.New("no frame pending")
	}
	frame := f.frames[0]
	f.frames = f.frames[1:]
	if len(frame) > n {
		frame = frame[:n]
	}
	return frame, nil
}

func (f *fakeInstrument) ReadAvailable(limit int) ([]byte, error) {
	if len(f.image) > limit {
		return f.image[:limit], nil
	}
	return f.image, nil
}

func (f *fakeInstrument) Close() error {
	f.closed = true
	return nil
}

func (f *fakeInstrument) count(command string) int {
	n := 0
	for _, c := range f.commands {
		if c == command {
			n++
		}
	}
	return n
}

// buildFrame wraps samples in a five-digit IEEE block with a terminator.
func buildFrame(samples []int8) []byte {
	frame := []byte(fmt.Sprintf("#5%05d", len(samples)))
	for _, s := range samples {
		frame = append(frame, byte(s))
	}
	return append(frame, '\n')
}

// scriptCalibration answers the preamble queries of the reference scenario.
func scriptCalibration(f *fakeInstrument, recordLength int) {
	f.script("*idn?", "TEKTRONIX,MSO54,C000001,CF:91.1CT FV:1.0")
	f.script("WFMOutpre:NR_Pt?", fmt.Sprint(recordLength))
	f.script("WFMOutpre:XINcr?", "1.0E-9")
	f.script("WFMOutpre:XZERO?", "0.0")
	f.script("WFMOutpre:PT_OFF?", "500")
	f.script("WFMOutpre:YMULT?", "0.01")
	f.script("WFMOutpre:YZERO?", "0.0")
	f.script("WFMOutpre:YOFF?", "0.0")
}
