package scope_test

import (
	"bytes"
	"os"
	"testing"

	scope "github.com/next-exp/scope_daq/pkg"
)

// writeOnlyInstrument exposes only the Instrument methods of its link.
type writeOnlyInstrument struct{ scope.Instrument }

func TestScreenshot(t *testing.T) {
	inst := newFakeInstrument()
	inst.image = []byte("\x89PNG\r\n\x1a\nimage")
	dir := t.TempDir()

	path, err := scope.Screenshot(inst, dir, "ch2", "0.01")
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, inst.image) {
		t.Errorf("image = %q", data)
	}

	want := []string{
		"trigger:a:level:ch2 0.01",
		"acquire:fastacq:state on",
		"pause 0.5",
		`save:image "C:/st.png"`,
		"*wai",
		`filesystem:readfile "C:/st.png"`,
		"*wai",
		"acquire:fastacq:state off",
		"trigger:a:mode auto",
	}
	if len(inst.commands) != len(want) {
		t.Fatalf("commands = %q", inst.commands)
	}
	for i := range want {
		if inst.commands[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, inst.commands[i], want[i])
		}
	}
}

func TestScreenshotNeedsBulkReads(t *testing.T) {
	inst := writeOnlyInstrument{newFakeInstrument()}
	if _, err := scope.Screenshot(inst, t.TempDir(), "ch2", "0.01"); err == nil {
		t.Fatal("screenshot without bulk reads should fail")
	}
}
