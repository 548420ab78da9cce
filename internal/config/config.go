// Package config loads and validates a root configuration declaring
// transformation sets, an ordered group list, and global parameters,
// optionally amended by an extension configuration.
//
// Documents are YAML (gopkg.in/yaml.v3), matching the rest of the toolchain's
// use of YAML for hand-edited structured configuration (cf. internal/ext's
// funxy.yaml loader, which this package's Load/validate split is grounded
// on).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loopweave/xform/internal/diagnostics"
)

// EngineVersion is the current engine version, compared against a
// configuration's declared minimum.
const EngineVersion = "0.9.0"

// GroupType classifies a transformation's pairing behavior.
type GroupType string

const (
	Dependent   GroupType = "dependent"
	Independent GroupType = "independent"
)

// TriggerType classifies what causes a transformation to be registered.
type TriggerType string

const (
	TriggerDirective       TriggerType = "directive"
	TriggerTranslationUnit TriggerType = "translation-unit"
)

// SetRef names one transformation set and the document it is loaded from.
type SetRef struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// GroupSpec declares one entry in the ordered group list:
// which set+name maps to which transformation class, and how it behaves.
type GroupSpec struct {
	Name    string      `yaml:"name"`
	Set     string      `yaml:"set"`
	Class   string      `yaml:"class"`
	Type    GroupType   `yaml:"type"`
	Trigger TriggerType `yaml:"trigger"`
	Block   bool        `yaml:"block,omitempty"`
}

// Root is a fully-resolved configuration: a root document, merged with its
// extension, if any.
type Root struct {
	Version    string            `yaml:"version"`
	Sets       []SetRef          `yaml:"sets"`
	Groups     []GroupSpec       `yaml:"groups"`
	Parameters map[string]string `yaml:"parameters"`
}

// Extension amends a Root configuration:
// parameters are always overlaid; sets and groups replace the root's own
// only when the extension declares at least one.
type Extension struct {
	Version    string            `yaml:"version"`
	Sets       []SetRef          `yaml:"sets,omitempty"`
	Groups     []GroupSpec       `yaml:"groups,omitempty"`
	Parameters map[string]string `yaml:"parameters,omitempty"`
}

// LoadRoot reads and parses a root configuration document.
func LoadRoot(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var r Root
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if r.Parameters == nil {
		r.Parameters = map[string]string{}
	}
	return &r, nil
}

// LoadExtension reads and parses an extension configuration document.
func LoadExtension(path string) (*Extension, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var e Extension
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &e, nil
}

// Merge amends root with ext: parameters are overlaid key-by-key; sets and
// groups are wholesale-replaced only when ext declares any. The
// extension's version, if set, wins (it is what gets checked against the
// engine version).
func Merge(root *Root, ext *Extension) *Root {
	merged := &Root{
		Version:    root.Version,
		Sets:       root.Sets,
		Groups:     root.Groups,
		Parameters: map[string]string{},
	}
	for k, v := range root.Parameters {
		merged.Parameters[k] = v
	}
	if ext == nil {
		return merged
	}
	if ext.Version != "" {
		merged.Version = ext.Version
	}
	if len(ext.Sets) > 0 {
		merged.Sets = ext.Sets
	}
	if len(ext.Groups) > 0 {
		merged.Groups = ext.Groups
	}
	for k, v := range ext.Parameters {
		merged.Parameters[k] = v
	}
	return merged
}

// Validate checks a merged Root against its structural rules, reporting
// every problem found (the loader does not stop at the first
// one, since ConfigurationError is fatal at load time regardless of count
// — collecting them all gives the operator a single actionable report).
// The one exception is a version mismatch: it is reported on its own and
// the remaining checks are skipped.
// knownClasses is the set of transformation class paths the engine has
// registered (supplied by the transform package to avoid an import cycle).
func Validate(root *Root, knownClasses map[string]bool) []*diagnostics.Diagnostic {
	var diags []*diagnostics.Diagnostic

	if !atLeast(root.Version, EngineVersion) {
		diags = append(diags, diagnostics.New(diagnostics.PhaseConfig, diagnostics.CodeConfigVersion, 0, "", EngineVersion, root.Version))
		// A version mismatch makes every other check moot; the config is
		// unusable regardless of what else is wrong with it.
		return diags
	}

	seenNames := map[string]bool{}
	for _, g := range root.Groups {
		if seenNames[g.Name] {
			diags = append(diags, diagnostics.New(diagnostics.PhaseConfig, diagnostics.CodeDuplicateGroup, 0, "", g.Name))
			continue
		}
		seenNames[g.Name] = true

		if !knownClasses[g.Class] {
			diags = append(diags, diagnostics.New(diagnostics.PhaseConfig, diagnostics.CodeMissingClass, 0, "", g.Class))
		}

		if g.Block && g.Trigger == TriggerTranslationUnit {
			diags = append(diags, diagnostics.New(diagnostics.PhaseConfig, diagnostics.CodeBlockOnUnit, 0, "", g.Name))
		}
	}

	return diags
}

// Param returns a global parameter value, defaulting to "" when absent.
func (r *Root) Param(key string) string {
	return r.Parameters[key]
}
