package models

// TemplateSet describes a named collection of asset templates. Sets live
// under templates/<name>/ in the library and mirror the package layout:
// every slot maps a template file onto the asset path it produces.
type TemplateSet struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version,omitempty"`
	Author      string `yaml:"author,omitempty"`
	Language    string `yaml:"language,omitempty"`

	// Slots is populated from the files on disk, not from set.yaml.
	Slots []TemplateSlot `yaml:"-"`

	// Builtin is true for the embedded default set.
	Builtin bool `yaml:"-"`
}

// TemplateSlot is one template file within a set.
type TemplateSlot struct {
	// RelPath is the output path relative to the package dir, e.g.
	// "scripts/email_nurture_sequence.md".
	RelPath string

	// Source holds the raw template text with {{.Topic}}-style fields.
	Source string
}

// Slot returns the slot producing relPath, or nil.
func (ts *TemplateSet) Slot(relPath string) *TemplateSlot {
	for i := range ts.Slots {
		if ts.Slots[i].RelPath == relPath {
			return &ts.Slots[i]
		}
	}
	return nil
}

// SlotPaths lists the output paths the set produces, in slot order.
func (ts *TemplateSet) SlotPaths() []string {
	paths := make([]string, 0, len(ts.Slots))
	for _, s := range ts.Slots {
		paths = append(paths, s.RelPath)
	}
	return paths
}
