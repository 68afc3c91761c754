package update

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// PlatformTag is the minimum macOS version a package build requires, as it
// appears in the package filename (e.g. "11", "10.9"). The host OS version
// is expressed the same way.
type PlatformTag string

var platformTagRegex = regexp.MustCompile(`^\d+(?:\.\d+)*$`)

// ParsePlatformTag validates a dotted numeric version string.
func ParsePlatformTag(s string) (PlatformTag, error) {
	if !platformTagRegex.MatchString(s) {
		return "", fmt.Errorf("invalid platform tag: %q", s)
	}
	return PlatformTag(s), nil
}

// components splits the tag into its numeric parts.
func (t PlatformTag) components() []int {
	parts := strings.Split(string(t), ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		nums[i], _ = strconv.Atoi(p)
	}
	return nums
}

// Compare compares two tags component-wise numerically. A missing
// component compares as zero, so "11" == "11.0" and "10.9" < "11".
func (t PlatformTag) Compare(other PlatformTag) int {
	a, b := t.components(), other.components()
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av > bv {
				return 1
			}
			return -1
		}
	}
	return 0
}

// RunsOn reports whether a build requiring t can run on the given host
// OS version.
func (t PlatformTag) RunsOn(host PlatformTag) bool {
	return t.Compare(host) <= 0
}

// Runner executes external commands and returns their standard output.
// It exists so tests never have to invoke the real system binaries.
type Runner interface {
	Output(name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// HostOSVersion returns the running macOS version as a platform tag,
// truncated to major.minor.
func HostOSVersion(r Runner) (PlatformTag, error) {
	out, err := r.Output("/usr/bin/sw_vers", "-productVersion")
	if err != nil {
		return "", fmt.Errorf("detect macOS version: %w", err)
	}
	parts := strings.Split(strings.TrimSpace(string(out)), ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return ParsePlatformTag(strings.Join(parts, "."))
}

// DetectInstalled queries the given Python interpreter for its version.
// The interpreter prints e.g. "Python 3.11.4" or "Python 3.13.0rc1".
func DetectInstalled(r Runner, interpreter string) (*Version, error) {
	out, err := r.Output(interpreter, "--version")
	if err != nil {
		return nil, fmt.Errorf("query %s for its version: %w", interpreter, err)
	}
	s := strings.TrimSpace(string(out))
	s = strings.TrimPrefix(s, "Python ")
	v, err := ParseVersion(s)
	if err != nil {
		return nil, fmt.Errorf("unexpected version output from %s: %w", interpreter, err)
	}
	return v, nil
}
