package upgrade

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/pelletier/go-toml/v2"
)

// RuleSet is a declarative rewrite of a profile document, read from
// upgrade_<version>.toml. Rules run in field order: renames first, then
// defaults, then removals.
type RuleSet struct {
	RenameElement   []RenameElement   `toml:"rename_element"`
	RenameAttribute []RenameAttribute `toml:"rename_attribute"`
	DefaultAttr     []DefaultAttr     `toml:"default_attribute"`
	RemoveAttribute []RemoveAttribute `toml:"remove_attribute"`
	RemoveElement   []RemoveElement   `toml:"remove_element"`
}

// RenameElement renames every element matching Path.
type RenameElement struct {
	Path string `toml:"path"`
	To   string `toml:"to"`
}

// RenameAttribute renames an attribute on every element matching Path.
type RenameAttribute struct {
	Path string `toml:"path"`
	From string `toml:"from"`
	To   string `toml:"to"`
}

// DefaultAttr sets an attribute on matching elements that lack it.
type DefaultAttr struct {
	Path  string `toml:"path"`
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

// RemoveAttribute deletes an attribute from matching elements.
type RemoveAttribute struct {
	Path string `toml:"path"`
	Name string `toml:"name"`
}

// RemoveElement deletes every element matching Path.
type RemoveElement struct {
	Path string `toml:"path"`
}

// RuleFileName returns the rule file name for a checkpoint.
func RuleFileName(version string) string {
	return "upgrade_" + version + ".toml"
}

// ParseRules decodes a rule file.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := toml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return &rs, nil
}

// loadRules reads the rule file for a checkpoint. A missing directory or
// file yields nil without error.
func loadRules(dir, version string) (*RuleSet, error) {
	if dir == "" {
		return nil, nil
	}
	path := filepath.Join(dir, RuleFileName(version))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Apply rewrites doc in place and returns the number of elements touched.
func (rs *RuleSet) Apply(doc *etree.Document) (int, error) {
	n := 0
	each := func(path string, fn func(e *etree.Element)) error {
		p, err := etree.CompilePath(path)
		if err != nil {
			return fmt.Errorf("path %q: %w", path, err)
		}
		for _, e := range doc.FindElementsPath(p) {
			fn(e)
			n++
		}
		return nil
	}

	for _, r := range rs.RenameElement {
		if r.To == "" {
			return n, fmt.Errorf("rename_element %q: missing target name", r.Path)
		}
		if err := each(r.Path, func(e *etree.Element) { e.Tag = r.To }); err != nil {
			return n, err
		}
	}
	for _, r := range rs.RenameAttribute {
		err := each(r.Path, func(e *etree.Element) {
			if a := e.SelectAttr(r.From); a != nil && r.From != r.To {
				e.CreateAttr(r.To, a.Value)
				e.RemoveAttr(r.From)
			}
		})
		if err != nil {
			return n, err
		}
	}
	for _, r := range rs.DefaultAttr {
		err := each(r.Path, func(e *etree.Element) {
			if e.SelectAttr(r.Name) == nil {
				e.CreateAttr(r.Name, r.Value)
			}
		})
		if err != nil {
			return n, err
		}
	}
	for _, r := range rs.RemoveAttribute {
		if err := each(r.Path, func(e *etree.Element) { e.RemoveAttr(r.Name) }); err != nil {
			return n, err
		}
	}
	for _, r := range rs.RemoveElement {
		err := each(r.Path, func(e *etree.Element) {
			if parent := e.Parent(); parent != nil {
				parent.RemoveChild(e)
			}
		})
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
