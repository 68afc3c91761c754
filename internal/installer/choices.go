package installer

import (
	"fmt"
	"strings"

	"howett.net/plist"
)

// ChoiceChanges computes the choice-changes document for pkgPath. The
// package's own choice manifest is cross-referenced against the package
// identifiers currently installed on the system: every "selected" choice
// whose identifier is already installed gets marked for installation, so
// an unattended update upgrades exactly the components the user has.
func (i *Installer) ChoiceChanges(pkgPath string) ([]byte, error) {
	out, err := i.Runner.Output(pkgutilBin, "--pkgs")
	if err != nil {
		return nil, fmt.Errorf("list installed packages: %w", err)
	}
	installed := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			installed[line] = true
		}
	}

	manifest, err := i.Runner.Output(installerBin, "-showChoiceChangesXML", "-pkg", pkgPath)
	if err != nil {
		return nil, fmt.Errorf("read choice manifest for %s: %w", pkgPath, err)
	}

	// The manifest is an array of loosely-shaped dicts; decode into maps
	// so unrecognized keys survive the round trip.
	var choices []map[string]any
	if _, err := plist.Unmarshal(manifest, &choices); err != nil {
		return nil, fmt.Errorf("decode choice manifest for %s: %w", pkgPath, err)
	}

	for _, choice := range choices {
		if choice["choiceAttribute"] != "selected" {
			continue
		}
		id, ok := choice["choiceIdentifier"].(string)
		if !ok || !installed[id] {
			continue
		}
		fmt.Fprintf(i.Out, "selecting choice %s\n", id)
		choice["attributeSetting"] = 1
	}

	doc, err := plist.MarshalIndent(choices, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("encode choice changes: %w", err)
	}
	return doc, nil
}
