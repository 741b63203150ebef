package upgrade

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// CurrentVersion is the schema version written by this module.
const CurrentVersion = "1.96"

// Checkpoints lists, in ascending order, the versions at which the
// document schema changed.
var Checkpoints = []string{"0.3", "0.5", "1.3", "1.5", CurrentVersion}

// ParseVersion parses a "major.minor" version. Versions compare as decimal
// numbers, so "1.96" is newer than "1.5". An empty string is version 0.
func ParseVersion(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	return v, nil
}

// DocumentVersion returns the declared version of a profile document.
func DocumentVersion(doc *etree.Document) (string, error) {
	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("document has no root element")
	}
	return root.SelectAttrValue("version", ""), nil
}

// NeedsUpgrade reports whether a document predates CurrentVersion.
func NeedsUpgrade(doc *etree.Document) (bool, error) {
	s, err := DocumentVersion(doc)
	if err != nil {
		return false, err
	}
	v, err := ParseVersion(s)
	if err != nil {
		return false, err
	}
	cur, _ := ParseVersion(CurrentVersion)
	return v < cur, nil
}
