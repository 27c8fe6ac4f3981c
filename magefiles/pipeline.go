// Copyright Ming Liu, 2025. All rights reserved.

//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// run executes the built CLI with the given arguments.
func run(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", bin, args, err)
	}
	return nil
}

// Crawl builds the CLI and runs a full metadata crawl into data/.
func Crawl() error {
	mg.Deps(Build, Init)
	return run("crawl", "--output", "data")
}

// Download builds the CLI and transfers available PDFs into downloads/.
func Download() error {
	mg.Deps(Build, Init)
	return run("download", "--data", "data", "--output", "downloads")
}

// Organize arranges downloaded PDFs into the library/ tree.
func Organize() error {
	mg.Deps(Build)
	return run("organize", "--source", "downloads", "--library", "library")
}
