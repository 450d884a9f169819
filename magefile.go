//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
var Default = Build

// Build compiles both executables into ./bin
func Build() error {
	mg.Deps(BuildAcquire, BuildRefit)
	fmt.Println("Compilation finished")
	return nil
}

// BuildAcquire needs libhdf5 through cgo for the waveform archive
func BuildAcquire() error {
	fmt.Println("Building acquire executable...")
	return goCommand(true, "build", "-o", "./bin/acquire", "./acquire")
}

func BuildRefit() error {
	fmt.Println("Building refit executable...")
	return goCommand(false, "build", "-o", "./bin/refit", "./refit")
}

// Test runs the tests of the packages that do not need libhdf5
func Test() error {
	fmt.Println("Running tests...")
	return goCommand(false, "test", "./pkg/")
}

func goCommand(cgo bool, args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Env = os.Environ()
	if cgo {
		cmd.Env = append(cmd.Env,
			"CGO_ENABLED=1",
			fmt.Sprintf("CGO_LDFLAGS=%s", os.Getenv("CGO_LDFLAGS")),
			fmt.Sprintf("CGO_CFLAGS=%s", os.Getenv("CGO_CFLAGS")))
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
