// Package upgrade migrates profile documents written by older releases to
// the current schema.
//
// Each checkpoint in Checkpoints above the document's version is applied in
// order: first the optional rule file upgrade_<version>.toml from the
// transforms directory, then the programmatic fixup registered for that
// version, and finally the document version is set to the checkpoint.
package upgrade

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/dshills/inputmap/internal/logging"
)

// Step is one checkpoint of the pipeline.
type Step struct {
	Version     string
	Description string
	Fixup       Fixup
}

// Result describes an applied checkpoint.
type Result struct {
	Version     string
	Description string

	// Rules is the number of elements touched by the rule file, or -1 if
	// the checkpoint has no rule file.
	Rules int
}

// Upgrader runs the checkpoint pipeline.
type Upgrader struct {
	transformsDir string
	steps         []Step
	logger        *logging.Logger
}

// New creates an upgrader reading rule files from transformsDir. An empty
// directory disables rule files.
func New(transformsDir string, logger *logging.Logger) *Upgrader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Upgrader{
		transformsDir: transformsDir,
		steps:         DefaultSteps(),
		logger:        logger.WithComponent("upgrade"),
	}
}

// fixups maps a checkpoint to its description and programmatic fixup.
var fixups = map[string]Step{
	"0.3":          {Description: "initial schema"},
	"0.5":          {Description: "extended key scan codes", Fixup: fixExtendedScanCodes},
	"1.3":          {Description: "per-region pointer lists", Fixup: splitPointerRegions},
	"1.5":          {Description: "default translucency", Fixup: defaultTranslucency},
	CurrentVersion: {Description: "current schema"},
}

// DefaultSteps returns one step per entry of Checkpoints.
func DefaultSteps() []Step {
	steps := make([]Step, len(Checkpoints))
	for i, v := range Checkpoints {
		steps[i] = fixups[v]
		steps[i].Version = v
	}
	return steps
}

// Upgrade returns doc migrated to CurrentVersion. The input document is
// never modified. When doc is already current it is returned as is and
// results is empty.
func (u *Upgrader) Upgrade(doc *etree.Document) (out *etree.Document, results []Result, err error) {
	declared, err := DocumentVersion(doc)
	if err != nil {
		return nil, nil, &StepError{Version: "", Err: err}
	}
	from, err := ParseVersion(declared)
	if err != nil {
		return nil, nil, &StepError{Version: declared, Err: err}
	}

	out = doc
	for _, step := range u.steps {
		v, err := ParseVersion(step.Version)
		if err != nil {
			return nil, nil, &StepError{Version: step.Version, Err: err}
		}
		if v <= from {
			continue
		}
		if out == doc {
			out = doc.Copy()
		}

		res, err := u.apply(out, step)
		if err != nil {
			return nil, nil, &StepError{Version: step.Version, Err: err}
		}
		results = append(results, res)
		u.logger.Info("applied checkpoint %s (%s)", step.Version, step.Description)
	}
	return out, results, nil
}

func (u *Upgrader) apply(doc *etree.Document, step Step) (Result, error) {
	res := Result{Version: step.Version, Description: step.Description, Rules: -1}

	rules, err := loadRules(u.transformsDir, step.Version)
	if err != nil {
		return res, err
	}
	if rules != nil {
		if res.Rules, err = rules.Apply(doc); err != nil {
			return res, fmt.Errorf("rules: %w", err)
		}
	} else {
		u.logger.Debug("no rule file for checkpoint %s", step.Version)
	}

	if step.Fixup != nil {
		if err := step.Fixup(doc); err != nil {
			return res, fmt.Errorf("%s: %w", step.Description, err)
		}
	}

	root := doc.Root()
	if root == nil {
		return res, fmt.Errorf("document has no root element")
	}
	root.CreateAttr("version", step.Version)
	return res, nil
}
