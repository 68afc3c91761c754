// Package installer hands a downloaded package to the macOS installer
// tooling, either interactively or unattended.
package installer

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Paths of the system binaries involved in an installation.
const (
	openBin      = "/usr/bin/open"
	sudoBin      = "/usr/bin/sudo"
	pkgutilBin   = "/usr/sbin/pkgutil"
	installerBin = "/usr/sbin/installer"

	installerBundleID = "com.apple.installer"
)

// Runner executes external commands.
// This allows for mocking in tests.
type Runner interface {
	// Output runs a command and returns its standard output.
	Output(name string, args ...string) ([]byte, error)
	// Run runs a command wired to the caller's terminal, so sudo can
	// prompt for a password.
	Run(name string, args ...string) error
}

// ExecRunner uses os/exec to run commands.
type ExecRunner struct{}

func (ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func (ExecRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Installer invokes the system installer on a downloaded package.
type Installer struct {
	Runner Runner
	Out    io.Writer
}

// New creates an installer backed by the real system binaries.
func New() *Installer {
	return &Installer{Runner: ExecRunner{}, Out: os.Stdout}
}

// InstallInteractive opens the package in the graphical Installer app and
// returns; the user drives the rest of the installation.
func (i *Installer) InstallInteractive(pkgPath string) error {
	if err := i.Runner.Run(openBin, "-b", installerBundleID, pkgPath); err != nil {
		return fmt.Errorf("open installer for %s: %w", pkgPath, err)
	}
	return nil
}

// InstallUnattended applies the package with the command-line installer,
// selecting the same optional components that are already installed. The
// installer runs under sudo against the root volume.
func (i *Installer) InstallUnattended(pkgPath string) error {
	doc, err := i.ChoiceChanges(pkgPath)
	if err != nil {
		return err
	}

	tf, err := os.CreateTemp("", "mopup-*.plist")
	if err != nil {
		return fmt.Errorf("create choice-changes file: %w", err)
	}
	defer func() { _ = os.Remove(tf.Name()) }()

	if _, err := tf.Write(doc); err != nil {
		_ = tf.Close()
		return fmt.Errorf("write choice-changes file: %w", err)
	}
	if err := tf.Close(); err != nil {
		return fmt.Errorf("write choice-changes file: %w", err)
	}

	fmt.Fprintln(i.Out, "Enter your administrative password to run the update:")
	err = i.Runner.Run(sudoBin, installerBin,
		"-applyChoiceChangesXML", tf.Name(),
		"-pkg", pkgPath,
		"-target", "/")
	if err != nil {
		return fmt.Errorf("run installer for %s: %w", pkgPath, err)
	}
	return nil
}
